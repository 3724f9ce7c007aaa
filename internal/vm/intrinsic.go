package vm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"kiln/internal/source"
)

// Print writes args separated by spaces and a newline.
func (vm *VM) Print(args []Value) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Display()
	}
	_, err := fmt.Fprintln(vm.out, strings.Join(parts, " "))
	return err
}

// Echo writes the REPL rendering of v.
func (vm *VM) Echo(v Value) error {
	_, err := fmt.Fprintln(vm.out, v.Repr())
	return err
}

// Len counts the runes of a string.
func (vm *VM) Len(span source.Span, v Value) (Value, error) {
	if v.Kind != VKString {
		return Value{}, vm.Panic(PanicTypeMismatch, span, "len expects string, got %s", v.Kind)
	}
	n, err := safecast.Conv[int64](utf8.RuneCountInString(v.S))
	if err != nil {
		return Value{}, vm.Panic(PanicIntOverflow, span, "string length overflow: %v", err)
	}
	return IntValue(n), nil
}

// Str renders any value as a string.
func (vm *VM) Str(span source.Span, v Value) (Value, error) {
	if v.Kind == VKNothing || v.Kind == VKInvalid {
		return Value{}, vm.Panic(PanicTypeMismatch, span, "cannot convert %s to string", v.Kind)
	}
	return StringValue(v.Display()), nil
}
