package vm

import (
	"fmt"
	"strings"

	"kiln/internal/source"
)

// PanicCode identifies the type of VM panic.
type PanicCode int

// Stable panic codes - do not change values.
const (
	PanicTypeMismatch    PanicCode = 1003 // VM1003: type mismatch
	PanicDivisionByZero  PanicCode = 1007 // VM1007: integer division by zero
	PanicUnresolvedName  PanicCode = 1008 // VM1008: dynamic name not found
	PanicUnknownFunction PanicCode = 1009 // VM1009: function has no definition
	PanicStackOverflow   PanicCode = 1010 // VM1010: call depth limit
	PanicIntOverflow     PanicCode = 1011 // VM1011: float does not fit into int
	PanicUnimplemented   PanicCode = 1999 // VM1999: unimplemented operation
)

// String returns the code as "VM1001" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// BacktraceFrame represents one frame in the panic backtrace.
type BacktraceFrame struct {
	FuncName string
	Span     source.Span
}

// VMError represents a runtime panic in the VM.
type VMError struct {
	Code      PanicCode
	Message   string
	Span      source.Span      // Location where panic occurred
	Backtrace []BacktraceFrame // Stack frames from top to bottom
}

// Error implements the error interface.
func (p *VMError) Error() string {
	return fmt.Sprintf("panic %s: %s", p.Code, p.Message)
}

// FormatWithFiles formats the panic with resolved file:line:col information.
func (p *VMError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "panic %s: %s\n", p.Code, p.Message)
	sb.WriteString("at ")
	sb.WriteString(formatSpan(p.Span, files))
	sb.WriteString("\n")
	if len(p.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, frame := range p.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s\n", i, frame.FuncName, formatSpan(frame.Span, files))
		}
	}
	return sb.String()
}

// formatSpan formats a span as "file:line:col" or "<no-span>" if empty.
func formatSpan(span source.Span, files *source.FileSet) string {
	if files == nil || (span.Start == 0 && span.End == 0) {
		return "<no-span>"
	}
	file := files.Get(span.File)
	if file == nil {
		return "<no-span>"
	}
	start, _ := files.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", file.Path, start.Line, start.Col)
}

// Panic builds a VMError at span with the current call stack as backtrace.
func (vm *VM) Panic(code PanicCode, span source.Span, format string, args ...any) *VMError {
	e := &VMError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
	// верхний кадр первым
	e.Backtrace = make([]BacktraceFrame, 0, len(vm.stack))
	for i := len(vm.stack) - 1; i >= 0; i-- {
		f := vm.stack[i]
		e.Backtrace = append(e.Backtrace, BacktraceFrame{FuncName: f.Func, Span: f.Span})
	}
	return e
}
