package cc

// Symbol is the data model's "Symbol entry": a tagged record carrying the
// token kind the symbol hashes to, its current class/type/value/etype, and
// (for locals/parameters that shadow a global) a saved shadow frame used to
// restore the global's meaning when the function returns. Per the "Tagged
// variants instead of union+enum" design note, the shadow is modeled as an
// explicit stack rather than swapped in place, so Symbol itself only ever
// holds the *current* meaning.
type Symbol struct {
	Name string
	Hash uint64 // hash combined with name length, per the lexer's hashing scheme
	Tk   Kind   // token kind this identifier lexes to (Ident, or a Keyword kind)

	Class Kind // Keyword, Num (enum constant), Func, Glo, Par, Loc, Syscall, Label
	Type  Type
	Val   int
	EType int

	Forward    int  // pending forward-call patch slot index, or -1
	ForwardPC  []int // text-segment offsets awaiting this function's real address
	LabelWait  []int // text-segment offsets awaiting this (forward) label's address
	LabelDefd  bool

	// Function bookkeeping: Body holds the parsed statement list, filled in
	// once a definition (not just a prototype) is seen; Defined distinguishes
	// "declared" from "has a body" without relying on Val (a function's real
	// entry PC, assigned by codegen, can legitimately be 0).
	Body       *Node
	Defined    bool
	ParamCount int
	FrameSize  int // bytes of local-variable stack space codegen's ENT should reserve
}

type shadowFrame struct {
	sym   *Symbol
	class Kind
	typ   Type
	val   int
	etype int
}

// SymTab is the flat, linearly-scanned identifier table the data model
// specifies: lookup is hash+length then byte compare, not a hash map,
// keeping the linear-scan behavior and the shadow/restore order it
// produces.
type SymTab struct {
	syms    []*Symbol
	shadows []shadowFrame // active local/param shadow stack, push on declare
}

func NewSymTab() *SymTab {
	return &SymTab{syms: make([]*Symbol, 0, 256)}
}

// hashName implements the lexer's identifier hash: hash = hash*147 + c,
// then combined with length so that same-prefix, different-length names
// still discriminate.
func hashName(name string) uint64 {
	var h uint64
	for i := 0; i < len(name); i++ {
		h = h*147 + uint64(name[i])
	}
	return h*1000003 + uint64(len(name))
}

// Lookup scans the table for name, comparing hash then bytes, and returns
// the existing Symbol or creates a fresh (class=0) one and appends it.
func (st *SymTab) Lookup(name string) *Symbol {
	h := hashName(name)
	for _, s := range st.syms {
		if s.Hash == h && s.Name == name {
			return s
		}
	}
	s := &Symbol{Name: name, Hash: h, Tk: Ident, Forward: -1}
	st.syms = append(st.syms, s)
	return s
}

// DeclareLocal shadows an existing global meaning of sym (if any) by pushing
// a shadow frame, then overwrites sym's current fields with the local's.
func (st *SymTab) DeclareLocal(sym *Symbol, class Kind, typ Type, val, etype int) {
	st.shadows = append(st.shadows, shadowFrame{sym, sym.Class, sym.Type, sym.Val, sym.EType})
	sym.Class, sym.Type, sym.Val, sym.EType = class, typ, val, etype
}

// shadowMark returns the current shadow-stack depth, to be passed to
// RestoreFrom at function end.
func (st *SymTab) shadowMark() int { return len(st.shadows) }

// RestoreFrom pops every shadow frame pushed since mark, restoring each
// symbol's prior (global) class/type/val/etype. This is invariant (3) from
// the data model: every Local/Param symbol is restored to its pre-function
// meaning.
func (st *SymTab) RestoreFrom(mark int) {
	for i := len(st.shadows) - 1; i >= mark; i-- {
		f := st.shadows[i]
		f.sym.Class, f.sym.Type, f.sym.Val, f.sym.EType = f.class, f.typ, f.val, f.etype
	}
	st.shadows = st.shadows[:mark]
}

// InsertKeywords seeds the table with the fixed keyword sequence so keyword
// token kinds line up exactly with keywordNames' order, then inserts "main"
// with its own dedicated class.
func (st *SymTab) InsertKeywords() (mainSym *Symbol) {
	for _, kw := range keywordNames {
		s := st.Lookup(kw.name)
		s.Tk = kw.kind
		s.Class = Keyword
	}
	mainSym = st.Lookup("main")
	mainSym.Class = Main
	return mainSym
}
