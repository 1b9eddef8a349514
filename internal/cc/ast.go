package cc

// Node is one AST node. The data model describes the arena as a packed
// integer array growing downward; per the "Tagged variants instead of
// union+enough" design note this is instead a discriminated struct — one
// node shape reused across all kinds, with the meaning of each field
// documented per Kind below, and the arena itself (Arena) supplies the
// "grows downward, bounded, released in one shot after codegen" behavior
// the data model requires.
type Node struct {
	Kind Kind

	// Generic children. Meaning by Kind:
	//   binary op (Add, Eq, ...): A = left, B = right
	//   unary/Load/CastF/Inc/Dec: A = operand
	//   Cond (?:):                A = cond, B = then, C = else
	//   Assign:                   A = lvalue, B = rhs
	//   If:                       A = cond, B = then, C = else (nil if none)
	//   While/DoWhile:            A = cond, B = body
	//   For:                      A = init, B = cond, C = post, D = body
	//   Switch:                   A = cond, B = body (Begin of cases)
	//   Case:                     A = value expr (nil for default), B = body
	//   Func/Syscall:             Args = argument list (reverse-threaded), Sym = callee
	//   Begin:                    Stmts = statement list
	A, B, C, D *Node

	Args  *Node // argument list head, threaded through Next, built in reverse order
	Next  *Node // argument/case/label-wait thread link
	Stmts []*Node

	IntVal int // Num literal value; Loc/LEA offset; Enter frame size; Label id
	FVal   int32
	Sym    *Symbol
	Type   Type
	EType  int

	ElemSize  int // pointee/element size, used by Inc/Dec and pointer scaling
	HostIndex int // Syscall: index into the HostDirectory's sorted table

	Line int
}

// Arena owns every Node allocated while compiling one translation unit and
// is released in one shot after code generation, matching the data model's
// "AST grows downward ... deallocated after code generation".
type Arena struct {
	tracker *AllocTracker
	limit   int
	count   int
	tag     string
}

func NewArena(tracker *AllocTracker, limit int) *Arena {
	return &Arena{tracker: tracker, limit: limit, tag: "ast-arena"}
}

// New allocates one node, enforcing invariant (2): the arena never exceeds
// its preallocated bound.
func (a *Arena) New(kind Kind) (*Node, error) {
	if a.count >= a.limit {
		return nil, &CompileError{Kind: ErrResource, Message: "AST arena exhausted"}
	}
	a.count++
	a.tracker.track(a.tag, 1)
	return &Node{Kind: kind}, nil
}

// Release frees the arena's tracked allocation in one shot, per the data
// model's "arena is deallocated after code generation".
func (a *Arena) Release() {
	if a.count > 0 {
		a.tracker.untrack(a.tag, a.count)
		a.count = 0
	}
}

// PushArg threads n onto the front of an argument list built in call-site
// (left to right) order so the code generator can walk it in reverse
// (right to left) to get C's right-to-left argument evaluation order.
func PushArg(head, n *Node) *Node {
	n.Next = head
	return n
}
