// Package session keeps the state that outlives a single compile call:
// fragment numbering, the transaction log and the session flags.
package session

import (
	"errors"
	"fmt"

	"kiln/internal/ast"
)

// FragmentPrefix names interactive buffers: input_line_1, input_line_2, ...
const FragmentPrefix = "input_line_"

// ErrTransactionOpen is returned by Begin while another transaction is open.
var ErrTransactionOpen = errors.New("session: a transaction is already open")

// TxnState is the lifecycle position of a transaction.
type TxnState uint8

const (
	TxnOpen TxnState = iota
	TxnParsed
	TxnCommitted
	TxnFailed
)

func (s TxnState) String() string {
	switch s {
	case TxnOpen:
		return "open"
	case TxnParsed:
		return "parsed"
	case TxnCommitted:
		return "committed"
	case TxnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transaction is one compile call.
type Transaction struct {
	ID int
	// Fragment is the buffer name, empty when the call only drained pending input.
	Fragment string
	First    ast.DeclID
	Last     ast.DeclID
	Decls    []ast.DeclID
	Groups   int
	State    TxnState
	// DeclOnly marks calls that bypassed code generation.
	DeclOnly bool
	// Batches keeps the dispatched groups of a DeclOnly transaction until
	// they are replayed into the code generator.
	Batches []ast.Group
}

// Record notes a dispatched group. Empty groups are ignored.
func (t *Transaction) Record(g *ast.Group) {
	if g == nil || g.IsEmpty() {
		return
	}
	if !t.First.IsValid() {
		t.First = g.First()
	}
	t.Last = g.Last()
	t.Decls = append(t.Decls, g.Decls...)
	t.Groups++
	if t.DeclOnly {
		t.Batches = append(t.Batches, g.Clone())
	}
}

func (t *Transaction) Empty() bool {
	return t.Groups == 0
}

// Done reports whether the transaction reached a final state.
func (t *Transaction) Done() bool {
	return t.State == TxnCommitted || t.State == TxnFailed
}

// State is the persistent context of one session.
type State struct {
	fragments int
	log       []*Transaction
	open      *Transaction

	errors   int
	warnings int

	DynamicLookup    bool
	UsingSnapshot    bool
	BuildingSnapshot bool
}

func New() *State {
	return &State{}
}

// NextFragmentName allocates the next buffer name.
func (s *State) NextFragmentName() string {
	s.fragments++
	return fmt.Sprintf("%s%d", FragmentPrefix, s.fragments)
}

// Fragments reports how many names were handed out.
func (s *State) Fragments() int {
	return s.fragments
}

// Begin opens a transaction and appends it to the log.
func (s *State) Begin(fragment string) (*Transaction, error) {
	if s.open != nil {
		return nil, ErrTransactionOpen
	}
	t := &Transaction{ID: len(s.log) + 1, Fragment: fragment, State: TxnOpen}
	s.log = append(s.log, t)
	s.open = t
	return t, nil
}

// Open returns the open transaction, nil when none.
func (s *State) Open() *Transaction {
	return s.open
}

// MarkParsed ends the input phase of the open transaction: its groups are
// dispatched, code generation has not been flushed yet. The transaction
// stays Pending until Commit or Fail, and a new one may begin meanwhile.
func (s *State) MarkParsed() {
	if s.open != nil {
		s.open.State = TxnParsed
		s.open = nil
	}
}

// Commit closes the current transaction as committed.
func (s *State) Commit() {
	s.close(TxnCommitted)
}

// Fail closes the current transaction as failed.
func (s *State) Fail() {
	s.close(TxnFailed)
}

// close finishes the open transaction, or else the pending one.
func (s *State) close(st TxnState) {
	t := s.open
	if t == nil {
		t = s.Pending()
	}
	if t == nil {
		return
	}
	t.State = st
	s.open = nil
}

// Pending returns the last transaction if it was parsed but never
// committed or failed.
func (s *State) Pending() *Transaction {
	t := s.Last()
	if t == nil || t.State != TxnParsed {
		return nil
	}
	return t
}

// Log returns the transaction log, oldest first.
func (s *State) Log() []*Transaction {
	return s.log
}

func (s *State) Last() *Transaction {
	if len(s.log) == 0 {
		return nil
	}
	return s.log[len(s.log)-1]
}

// SetCounters stores the diagnostic counters of the running call.
func (s *State) SetCounters(errors, warnings int) {
	s.errors, s.warnings = errors, warnings
}

// Counters returns the diagnostic counters of the running call.
func (s *State) Counters() (errors, warnings int) {
	return s.errors, s.warnings
}

// ResetCounters clears the per-call counters; nothing else resets between calls.
func (s *State) ResetCounters() {
	s.errors, s.warnings = 0, 0
}
