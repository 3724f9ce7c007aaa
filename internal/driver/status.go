package driver

import (
	"errors"

	"kiln/internal/diag"
	"kiln/internal/observ"
	"kiln/internal/session"
)

var (
	// ErrReentrant rejects an entry point called while another one runs.
	ErrReentrant = errors.New("driver: reentrant call")
	// ErrDirectiveInPrompt rejects prompt input starting with '#'; such
	// lines go through CompilePreprocessed.
	ErrDirectiveInPrompt = errors.New("driver: directive in prompt input")
	ErrNoFrontend        = errors.New("driver: no frontend")
	ErrNoBackend         = errors.New("driver: no backend")
	ErrClosed            = errors.New("driver: closed")
	// ErrNoSnapshotSink is returned by WriteStartupSnapshot when the session
	// does not build a snapshot.
	ErrNoSnapshotSink = errors.New("driver: no startup snapshot sink")
	// ErrSnapshotActive is returned when a snapshot is already loaded or built.
	ErrSnapshotActive = errors.New("driver: startup snapshot already active")
)

// Mode selects the stage toggles of one compile call.
type Mode uint8

const (
	// ModeAsIs compiles the text verbatim: no declaration extraction and
	// no value printing.
	ModeAsIs Mode = iota
	// ModePrompt compiles a prompt line: wrapper locals become globals and
	// a trailing expression prints its value.
	ModePrompt
)

func (m Mode) String() string {
	if m == ModePrompt {
		return "prompt"
	}
	return "as_is"
}

// Status classifies a call.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusSucceededWithWarnings
	StatusFailed
	StatusInvalidInput
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSucceededWithWarnings:
		return "succeeded_with_warnings"
	case StatusFailed:
		return "failed"
	case StatusInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Outcome is the result of one entry point call.
type Outcome struct {
	Status Status
	// Txn is nil for calls rejected before a transaction opened.
	Txn *session.Transaction
	// Diags holds the diagnostics of this call only.
	Diags   *diag.Bag
	Timings observ.Report
	Err     error
}

// OK reports whether the call did not fail.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess || o.Status == StatusSucceededWithWarnings
}

func invalid(err error) Outcome {
	return Outcome{Status: StatusInvalidInput, Diags: diag.NewBag(1), Err: err}
}
