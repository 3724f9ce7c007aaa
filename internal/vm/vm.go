package vm

import (
	"io"
	"os"
	"sort"

	"fortio.org/safecast"

	"kiln/internal/source"
)

const defaultMaxDepth = 4096

// Options configures VM execution.
type Options struct {
	Stdout   io.Writer
	MaxDepth int
}

// GlobalID identifies a global slot; codegen uses the declaration id.
type GlobalID uint32

// Global is one global variable.
type Global struct {
	ID    GlobalID
	Name  string
	Kind  ValueKind
	Value Value
}

// Function is a lowered function body.
type Function struct {
	Name      string
	Params    []ValueKind
	Result    ValueKind
	FrameSize uint32
	Body      Exec
	Span      source.Span
}

// VM holds the state that survives between compile calls: globals and
// function definitions. Each call only adds to it.
type VM struct {
	out      io.Writer
	maxDepth int
	globals  map[GlobalID]*Global
	names    map[string]*Global
	funcs    map[string]*Function
	stack    []*Frame
}

// New creates an empty machine.
func New(opts Options) *VM {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	return &VM{
		out:      opts.Stdout,
		maxDepth: opts.MaxDepth,
		globals:  make(map[GlobalID]*Global),
		names:    make(map[string]*Global),
		funcs:    make(map[string]*Function),
	}
}

// SetStdout redirects print output.
func (vm *VM) SetStdout(w io.Writer) {
	vm.out = w
}

// DefineGlobal creates a zeroed global; an existing id is returned as is.
func (vm *VM) DefineGlobal(id GlobalID, name string, kind ValueKind) *Global {
	if g, ok := vm.globals[id]; ok {
		return g
	}
	g := &Global{ID: id, Name: name, Kind: kind, Value: Zero(kind)}
	vm.globals[id] = g
	vm.names[name] = g
	return g
}

// Global finds a global by id.
func (vm *VM) Global(id GlobalID) (*Global, bool) {
	g, ok := vm.globals[id]
	return g, ok
}

// LookupName finds a global by name; used by run-time lookups.
func (vm *VM) LookupName(name string) (*Global, bool) {
	g, ok := vm.names[name]
	return g, ok
}

// GlobalNames returns the names of all globals, sorted.
func (vm *VM) GlobalNames() []string {
	out := make([]string, 0, len(vm.names))
	for name := range vm.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetFunction registers or replaces a function body.
func (vm *VM) SetFunction(fn *Function) {
	vm.funcs[fn.Name] = fn
}

// Function finds a function by name.
func (vm *VM) Function(name string) (*Function, bool) {
	fn, ok := vm.funcs[name]
	return fn, ok
}

// Depth reports the current call depth.
func (vm *VM) Depth() int {
	return len(vm.stack)
}

// Call invokes a function by name. Functions are resolved at call time,
// so a prototype may be defined after its callers.
func (vm *VM) Call(name string, args []Value, span source.Span) (Value, error) {
	fn, ok := vm.funcs[name]
	if !ok {
		return Value{}, vm.Panic(PanicUnknownFunction, span, "function '%s' has no definition", name)
	}
	if len(args) != len(fn.Params) {
		return Value{}, vm.Panic(PanicTypeMismatch, span, "function '%s' expects %d arguments, got %d", name, len(fn.Params), len(args))
	}
	return vm.Invoke(fn, args, span)
}

// Invoke runs fn with already checked arguments.
func (vm *VM) Invoke(fn *Function, args []Value, span source.Span) (Value, error) {
	if len(vm.stack) >= vm.maxDepth {
		return Value{}, vm.Panic(PanicStackOverflow, span, "call depth limit %d exceeded in '%s'", vm.maxDepth, fn.Name)
	}
	size := fn.FrameSize
	n, err := safecast.Conv[uint32](len(args))
	if err != nil {
		return Value{}, vm.Panic(PanicTypeMismatch, span, "too many arguments to '%s'", fn.Name)
	}
	size = max(size, n)
	frame := NewFrame(fn.Name, size, fn.Span)
	copy(frame.Slots, args)
	frame.Ret = Zero(fn.Result)

	vm.stack = append(vm.stack, frame)
	defer func() { vm.stack = vm.stack[:len(vm.stack)-1] }()

	if fn.Body == nil {
		return frame.Ret, nil
	}
	if _, err := fn.Body(frame); err != nil {
		return Value{}, err
	}
	return frame.Ret, nil
}
