package vm

import (
	"kiln/internal/source"
)

// Control tells the enclosing statement list how a statement finished.
type Control uint8

const (
	CtrlNext Control = iota
	CtrlBreak
	CtrlContinue
	CtrlReturn
)

// Eval computes an expression in a frame.
type Eval func(*Frame) (Value, error)

// Exec runs a statement in a frame.
type Exec func(*Frame) (Control, error)

// Frame represents a function activation record on the call stack.
type Frame struct {
	Func  string
	Slots []Value
	// Span - текущая точка исполнения, попадает в backtrace
	Span source.Span
	Ret  Value
}

// NewFrame creates a frame with size zeroed slots.
func NewFrame(fn string, size uint32, span source.Span) *Frame {
	return &Frame{
		Func:  fn,
		Slots: make([]Value, size),
		Span:  span,
	}
}
