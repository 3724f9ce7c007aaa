package driver

import (
	"encoding/json"
	"fmt"

	"kiln/internal/diag"
	"kiln/internal/observ"
	"kiln/internal/source"
)

type timingPayload struct {
	Kind     string               `json:"kind"`
	Fragment string               `json:"fragment,omitempty"`
	TotalMS  float64              `json:"total_ms"`
	Phases   []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic attaches the timer report to bag as an info
// diagnostic; the note carries the JSON form for tools.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "compile"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Fragment != "" {
		msg = fmt.Sprintf("%s, %s", msg, payload.Fragment)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, msg).
		WithNote(source.Span{}, string(data))

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
