package session

import (
	"errors"
	"testing"

	"kiln/internal/ast"
)

func TestFragmentNamesAreMonotonic(t *testing.T) {
	s := New()
	for i, want := range []string{"input_line_1", "input_line_2", "input_line_3"} {
		if got := s.NextFragmentName(); got != want {
			t.Fatalf("name %d: got %q, want %q", i, got, want)
		}
	}
	if s.Fragments() != 3 {
		t.Fatalf("expected 3 fragments, got %d", s.Fragments())
	}
}

func TestOneOpenTransaction(t *testing.T) {
	s := New()
	if _, err := s.Begin("input_line_1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := s.Begin("input_line_2"); !errors.Is(err, ErrTransactionOpen) {
		t.Fatalf("expected ErrTransactionOpen, got %v", err)
	}
	s.Commit()
	if s.Open() != nil {
		t.Fatalf("transaction still open after Commit")
	}
	txn, err := s.Begin("")
	if err != nil {
		t.Fatalf("Begin after commit: %v", err)
	}
	if txn.ID != 2 || len(s.Log()) != 2 {
		t.Fatalf("unexpected log: id=%d len=%d", txn.ID, len(s.Log()))
	}
}

func TestRecordTracksFirstAndLast(t *testing.T) {
	var txn Transaction
	if !txn.Empty() || txn.First.IsValid() || txn.Last.IsValid() {
		t.Fatalf("new transaction must be empty")
	}
	txn.Record(&ast.Group{})
	txn.Record(&ast.Group{Decls: []ast.DeclID{3, 4}})
	txn.Record(&ast.Group{Decls: []ast.DeclID{7}})
	if txn.First != 3 || txn.Last != 7 || txn.Groups != 2 || len(txn.Decls) != 3 {
		t.Fatalf("unexpected transaction %+v", txn)
	}
}

func TestLifecycle(t *testing.T) {
	s := New()
	tests := []struct {
		name  string
		close func()
		want  TxnState
	}{
		{"commit", s.Commit, TxnCommitted},
		{"fail", s.Fail, TxnFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := s.Begin("")
			if err != nil {
				t.Fatalf("Begin: %v", err)
			}
			s.MarkParsed()
			if s.Pending() != txn {
				t.Fatalf("parsed transaction must be pending")
			}
			tt.close()
			if txn.State != tt.want || !txn.Done() || s.Pending() != nil {
				t.Fatalf("state %s, want %s", txn.State, tt.want)
			}
		})
	}
}

func TestOnlyCountersReset(t *testing.T) {
	s := New()
	s.DynamicLookup = true
	s.NextFragmentName()
	s.SetCounters(2, 1)
	if e, w := s.Counters(); e != 2 || w != 1 {
		t.Fatalf("unexpected counters %d/%d", e, w)
	}
	s.ResetCounters()
	if e, w := s.Counters(); e != 0 || w != 0 {
		t.Fatalf("counters not reset")
	}
	if !s.DynamicLookup || s.Fragments() != 1 {
		t.Fatalf("reset touched persistent state")
	}
}
