package driver

import (
	"encoding/json"
	"fmt"

	"raven/internal/diag"
	"raven/internal/observ"
	"raven/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	BuildID string               `json:"build_id,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic ignores the bag limit: timings are requested
// explicitly and must not be dropped.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(len(bag.Items()) + 1)
	for _, d := range bag.Items() {
		overflow.Add(d)
	}
	overflow.Add(entry)
	*bag = *overflow
}
