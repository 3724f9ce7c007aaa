// Package pipeline holds the ordered set of transform stages every
// declaration batch passes through before code generation.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"kiln/internal/ast"
	"kiln/internal/trace"
)

// StageID is the fixed identity of a stage.
type StageID uint8

const (
	StageDynamicRewriter StageID = iota
	StageDeclExtractor
	StageValuePrinter
	StageDumper
	StageCodeGen
	StageSnapshotWriter
	numStages
)

var stageNames = [numStages]string{
	StageDynamicRewriter: "dynamic_rewriter",
	StageDeclExtractor:   "decl_extractor",
	StageValuePrinter:    "value_printer",
	StageDumper:          "dumper",
	StageCodeGen:         "codegen",
	StageSnapshotWriter:  "snapshot_writer",
}

func (id StageID) String() string {
	if id < numStages {
		return stageNames[id]
	}
	return "unknown"
}

// ParseStageID maps a stage name back onto its identity.
func ParseStageID(s string) (StageID, bool) {
	for i, name := range stageNames {
		if name == s {
			return StageID(i), true
		}
	}
	return 0, false
}

// Stage observes or rewrites declaration batches. A stage may mutate the
// group in place; later stages see the rewritten group.
type Stage interface {
	HandleGroup(g *ast.Group)
	// FlushTransaction marks the end of one compile call.
	FlushTransaction()
	// EnabledByDefault is the state the stage starts in after Register.
	EnabledByDefault() bool
}

type entry struct {
	stage   Stage
	enabled bool
}

// Pipeline owns its stages. Dispatch order is registration order.
type Pipeline struct {
	slots [numStages]*entry
	order []StageID
	// группы, прошедшие Dispatch в текущей транзакции
	queue []ast.Group
}

func New() *Pipeline {
	return &Pipeline{}
}

// Register adds a stage under id. It reports false, changing nothing, when
// id is already taken. The code generation stage always starts enabled.
func (p *Pipeline) Register(id StageID, st Stage) bool {
	if id >= numStages || st == nil || p.slots[id] != nil {
		return false
	}
	enabled := st.EnabledByDefault() || id == StageCodeGen
	p.slots[id] = &entry{stage: st, enabled: enabled}
	p.order = append(p.order, id)
	return true
}

// Remove frees the slot of id. A stage that implements io.Closer is closed.
func (p *Pipeline) Remove(id StageID) (bool, error) {
	if !p.Exists(id) {
		return false, nil
	}
	e := p.slots[id]
	p.slots[id] = nil
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i:i], p.order[i+1:]...)
			break
		}
	}
	if c, ok := e.stage.(interface{ Close() error }); ok {
		return true, c.Close()
	}
	return true, nil
}

func (p *Pipeline) Exists(id StageID) bool {
	return id < numStages && p.slots[id] != nil
}

// Stage returns the stage registered under id.
func (p *Pipeline) Stage(id StageID) (Stage, bool) {
	if !p.Exists(id) {
		return nil, false
	}
	return p.slots[id].stage, true
}

func (p *Pipeline) IsEnabled(id StageID) bool {
	return p.Exists(id) && p.slots[id].enabled
}

// Enable turns id on and returns its previous state; ok is false when id
// is not registered.
func (p *Pipeline) Enable(id StageID) (prev, ok bool) {
	return p.set(id, true)
}

// Disable turns id off and returns its previous state.
func (p *Pipeline) Disable(id StageID) (prev, ok bool) {
	return p.set(id, false)
}

// RestorePreviousState puts back a state returned by Enable or Disable.
func (p *Pipeline) RestorePreviousState(id StageID, prev bool) {
	p.set(id, prev)
}

func (p *Pipeline) set(id StageID, on bool) (prev, ok bool) {
	if !p.Exists(id) {
		return false, false
	}
	e := p.slots[id]
	prev = e.enabled
	e.enabled = on
	return prev, true
}

// Dispatch runs every enabled stage over g in registration order.
func (p *Pipeline) Dispatch(ctx context.Context, g *ast.Group) {
	_, span := trace.Start(ctx, trace.ScopeModule, "dispatch")
	var ran []string
	for _, id := range p.order {
		e := p.slots[id]
		if !e.enabled {
			continue
		}
		e.stage.HandleGroup(g)
		ran = append(ran, id.String())
	}
	p.queue = append(p.queue, g.Clone())
	span.WithExtra("stages", strings.Join(ran, ",")).End("")
}

// FlushTransaction signals the end of a transaction to every enabled stage.
func (p *Pipeline) FlushTransaction() {
	for _, id := range p.order {
		if e := p.slots[id]; e.enabled {
			e.stage.FlushTransaction()
		}
	}
}

// Queue returns the groups dispatched since the last ResetQueue.
func (p *Pipeline) Queue() []ast.Group {
	return p.queue
}

func (p *Pipeline) ResetQueue() {
	p.queue = nil
}

// StageState is one row of States.
type StageState struct {
	ID      StageID
	Enabled bool
}

// States lists the registered stages in dispatch order.
func (p *Pipeline) States() []StageState {
	out := make([]StageState, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, StageState{ID: id, Enabled: p.slots[id].enabled})
	}
	return out
}

// Close removes every stage, closing those that hold resources.
func (p *Pipeline) Close() error {
	var errs []error
	for len(p.order) > 0 {
		_, err := p.Remove(p.order[len(p.order)-1])
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
