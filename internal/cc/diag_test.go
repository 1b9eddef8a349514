package cc

import "testing"

func TestAllocTrackerEmptyAfterBalancedTrackUntrack(t *testing.T) {
	tr := NewAllocTracker()
	tr.track("ast-node", 5)
	tr.track("ast-node", 3)
	tr.untrack("ast-node", 8)
	if !tr.Empty() {
		t.Fatalf("expected tracker to be empty, outstanding: %v", tr.Outstanding())
	}
}

func TestAllocTrackerReportsOutstanding(t *testing.T) {
	tr := NewAllocTracker()
	tr.track("ast-node", 5)
	tr.untrack("ast-node", 2)
	out := tr.Outstanding()
	if out["ast-node"] != 3 {
		t.Fatalf("expected 3 outstanding under ast-node, got %d", out["ast-node"])
	}
	if tr.Empty() {
		t.Fatal("expected tracker to be non-empty")
	}
}

func TestAllocTrackerPanicsOnOverFree(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when freeing more than was tracked")
		}
	}()
	tr := NewAllocTracker()
	tr.track("ast-node", 1)
	tr.untrack("ast-node", 2)
}

func TestErrKindString(t *testing.T) {
	cases := map[ErrKind]string{
		ErrLexical:  "lexical",
		ErrSyntax:   "syntax",
		ErrSemantic: "semantic",
		ErrResource: "resource",
		ErrRuntime:  "runtime",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("ErrKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestCompileErrorFormatsWithLine(t *testing.T) {
	err := &CompileError{Kind: ErrSyntax, Line: 42, Message: "unexpected token"}
	if got, want := err.Error(), "42: unexpected token"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
