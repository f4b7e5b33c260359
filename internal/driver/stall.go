package driver

import (
	"context"
	"fmt"
	"strings"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/mono"
	"raven/internal/trace"
)

const checkPrefix = "check "

// drain runs the executor until nothing is left parked. Jobs parked at
// quiescence can never be woken; their units fail with ResolutionStall and
// the executor runs again so dependents observe the failure.
func (c *compilation) drain(ctx context.Context) error {
	for round := 0; ; round++ {
		if err := c.exec.Run(ctx); err != nil {
			return err
		}
		if !c.reg.Sealed() {
			// a tokenize or parse job died before reaching the seal
			trace.Point(c.tracer, trace.ScopePass, "late seal", fmt.Sprintf("round %d", round))
			c.reg.Seal()
			continue
		}
		stalled := c.exec.Stalled()
		if len(stalled) == 0 {
			return nil
		}
		trace.Point(c.tracer, trace.ScopePass, "stall", fmt.Sprintf("round %d: %d jobs", round, len(stalled)))
		c.abortStalled(stalled)
	}
}

// stalledUnit maps a task name to the unit it finalizes.
func stalledUnit(task string) (name string, instance bool) {
	switch {
	case strings.HasPrefix(task, mono.JobPrefix):
		return strings.TrimPrefix(task, mono.JobPrefix), true
	case strings.HasPrefix(task, checkPrefix):
		return strings.TrimPrefix(task, checkPrefix), false
	}
	return task, false
}

func (c *compilation) abortStalled(stalled []asyncrt.TaskInfo) {
	names := make([]string, len(stalled))
	for i, t := range stalled {
		names[i], _ = stalledUnit(t.Name)
	}
	for i, t := range stalled {
		name, instance := stalledUnit(t.Name)
		err := &diag.Error{
			Code:    diag.SemaResolutionStall,
			Unit:    name,
			Message: fmt.Sprintf("resolution of `%s` never completed: waiting forever on %s", name, others(names, i)),
		}
		if snap, ok := c.reg.Lookup(name); ok {
			err.Span = snap.Span
		}
		if _, ok := c.exec.Abort(t.ID, err); !ok {
			continue
		}
		if instance {
			c.cache.Abort(name, diag.Errors{err})
			continue
		}
		// Fail wakes dependents; the aborted task itself ignores the wake
		_ = c.reg.Fail(name, diag.Errors{err})
	}
}

func others(names []string, skip int) string {
	var parts []string
	for i, n := range names {
		if i != skip {
			parts = append(parts, "`"+n+"`")
		}
	}
	switch len(parts) {
	case 0:
		return "a unit that is never finalized"
	case 1:
		return parts[0]
	}
	const limit = 5
	if len(parts) > limit {
		return strings.Join(parts[:limit], ", ") + fmt.Sprintf(" and %d more", len(parts)-limit)
	}
	return strings.Join(parts, ", ")
}
