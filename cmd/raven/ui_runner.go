package main

import (
	"context"
	"fmt"
	"os"

	"raven/internal/buildpipeline"
	"raven/internal/ui"
)

type buildOutcome struct {
	result buildpipeline.BuildResult
	err    error
}

func runBuildWithUI(ctx context.Context, title string, files []string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		close(events)
		outcomeCh <- buildOutcome{result: res, err: err}
	}()

	uiErr := ui.Run(title, files, events, os.Stdout)
	if uiErr != nil {
		cancel()
	}
	// UI мог выйти раньше (ctrl+c); не даём сборке заблокироваться на канале
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
