package cc

// CodeGen walks the AST built by Parser and emits a TextSegment. One
// CodeGen compiles one translation unit's function set; globals are
// already fully materialized in the DataSegment by the parser, so this
// stage only has to handle code.
type CodeGen struct {
	text     *TextSegment
	funcs    []*Symbol
	host     *HostDirectory
	labels   map[*Symbol]int   // resolved label word-address, this function only
	labelUse map[*Symbol][]int // pending patch sites for forward-referenced labels, this function only
}

func NewCodeGen(funcs []*Symbol, host *HostDirectory) *CodeGen {
	return &CodeGen{text: NewTextSegment(), funcs: funcs, host: host}
}

// Generate emits every function's body in declaration order, then a tiny
// entry trampoline ("call main, then EXIT with its return value in ACC")
// so the VM always starts from a real call frame instead of jumping
// straight into main's body with no caller to LEV back to. Returns the
// finished text segment and the trampoline's word address (the VM's real
// entry point), or the first error encountered.
func (cg *CodeGen) Generate(mainFn *Symbol) (*TextSegment, int, error) {
	for _, fn := range cg.funcs {
		if err := cg.genFunction(fn); err != nil {
			return nil, 0, err
		}
	}
	for _, fn := range cg.funcs {
		for _, site := range fn.ForwardPC {
			cg.text.PatchImm(site, int32(fn.Val))
		}
	}
	entry := cg.text.Len()
	cg.text.EmitImm(OpJSR, int32(mainFn.Val))
	cg.text.Emit(OpEXIT)
	if cg.text.Overflowed() {
		return nil, 0, &CompileError{Kind: ErrResource, Message: "text segment exhausted"}
	}
	return cg.text, entry, nil
}

func (cg *CodeGen) genFunction(fn *Symbol) error {
	fn.Val = cg.text.Len()
	cg.labels = map[*Symbol]int{}
	cg.labelUse = map[*Symbol][]int{}

	entAt := cg.text.EmitImm(OpENT, int32(fn.FrameSize))
	_ = entAt

	if err := cg.genStmt(fn.Body, nil); err != nil {
		return err
	}
	// Implicit "return 0;" if control falls off the end of the function body.
	cg.text.EmitImm(OpIMM, 0)
	cg.text.Emit(OpLEV)

	for labelSym, sites := range cg.labelUse {
		addr, ok := cg.labels[labelSym]
		if !ok {
			return &CompileError{Kind: ErrSemantic, Message: "undefined label: " + labelSym.Name}
		}
		for _, site := range sites {
			cg.text.PatchImm(site, int32(addr))
		}
	}
	return nil
}

// loopCtx threads the break/continue jump-patch lists through nested
// statement generation; nil means "not inside a loop/switch" for that axis.
type loopCtx struct {
	breakSites    *[]int
	continueSites *[]int
}

func (cg *CodeGen) genStmt(n *Node, lc *loopCtx) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case Begin:
		for _, s := range n.Stmts {
			if err := cg.genStmt(s, lc); err != nil {
				return err
			}
		}
		return nil
	case If:
		return cg.genIf(n, lc)
	case While:
		return cg.genWhile(n, lc)
	case DoWhile:
		return cg.genDoWhile(n, lc)
	case For:
		return cg.genFor(n, lc)
	case Switch:
		return cg.genSwitch(n, lc)
	case Case:
		return cg.genStmt(n.B, lc)
	case Break:
		if lc == nil || lc.breakSites == nil {
			return &CompileError{Kind: ErrSemantic, Line: n.Line, Message: "break outside loop or switch"}
		}
		site := cg.text.EmitImm(OpJMP, 0)
		*lc.breakSites = append(*lc.breakSites, site)
		return nil
	case Continue:
		if lc == nil || lc.continueSites == nil {
			return &CompileError{Kind: ErrSemantic, Line: n.Line, Message: "continue outside loop"}
		}
		site := cg.text.EmitImm(OpJMP, 0)
		*lc.continueSites = append(*lc.continueSites, site)
		return nil
	case Return:
		if n.A != nil {
			if err := cg.genExpr(n.A); err != nil {
				return err
			}
		}
		cg.text.Emit(OpLEV)
		return nil
	case Label:
		cg.labels[n.Sym] = cg.text.Len()
		return nil
	case Goto:
		site := cg.text.EmitImm(OpJMP, 0)
		cg.labelUse[n.Sym] = append(cg.labelUse[n.Sym], site)
		return nil
	default:
		// Expression statement.
		return cg.genExpr(n)
	}
}

func (cg *CodeGen) genIf(n *Node, lc *loopCtx) error {
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	bz := cg.text.EmitImm(OpBZ, 0)
	if err := cg.genStmt(n.B, lc); err != nil {
		return err
	}
	if n.C == nil {
		cg.text.PatchImm(bz, int32(cg.text.Len()))
		return nil
	}
	jmpEnd := cg.text.EmitImm(OpJMP, 0)
	cg.text.PatchImm(bz, int32(cg.text.Len()))
	if err := cg.genStmt(n.C, lc); err != nil {
		return err
	}
	cg.text.PatchImm(jmpEnd, int32(cg.text.Len()))
	return nil
}

func (cg *CodeGen) genWhile(n *Node, lc *loopCtx) error {
	top := cg.text.Len()
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	bz := cg.text.EmitImm(OpBZ, 0)
	var breaks, continues []int
	inner := &loopCtx{breakSites: &breaks, continueSites: &continues}
	if err := cg.genStmt(n.B, inner); err != nil {
		return err
	}
	cg.text.EmitImm(OpJMP, int32(top))
	end := cg.text.Len()
	cg.text.PatchImm(bz, int32(end))
	cg.patchAll(breaks, end)
	cg.patchAll(continues, top)
	return nil
}

func (cg *CodeGen) genDoWhile(n *Node, lc *loopCtx) error {
	top := cg.text.Len()
	var breaks, continues []int
	inner := &loopCtx{breakSites: &breaks, continueSites: &continues}
	if err := cg.genStmt(n.B, inner); err != nil {
		return err
	}
	condAt := cg.text.Len()
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	cg.text.EmitImm(OpBNZ, int32(top))
	end := cg.text.Len()
	cg.patchAll(breaks, end)
	cg.patchAll(continues, condAt)
	return nil
}

func (cg *CodeGen) genFor(n *Node, lc *loopCtx) error {
	if n.A != nil {
		if err := cg.genExpr(n.A); err != nil {
			return err
		}
	}
	top := cg.text.Len()
	var bz int
	hasCond := n.B != nil
	if hasCond {
		if err := cg.genExpr(n.B); err != nil {
			return err
		}
		bz = cg.text.EmitImm(OpBZ, 0)
	}
	var breaks, continues []int
	inner := &loopCtx{breakSites: &breaks, continueSites: &continues}
	if err := cg.genStmt(n.D, inner); err != nil {
		return err
	}
	postAt := cg.text.Len()
	if n.C != nil {
		if err := cg.genExpr(n.C); err != nil {
			return err
		}
	}
	cg.text.EmitImm(OpJMP, int32(top))
	end := cg.text.Len()
	if hasCond {
		cg.text.PatchImm(bz, int32(end))
	}
	cg.patchAll(breaks, end)
	cg.patchAll(continues, postAt)
	return nil
}

// genSwitch emits the condition once, then a chain of compare-and-branch
// tests (one per case, in source order), then the case bodies themselves
// laid out back to back with default last — so falling off the end of a
// case body (no break) falls into the next case's body exactly like C's
// switch fallthrough. A default that appears before the last case in
// source order still runs after every case body in the generated layout;
// only an explicit break (or return) jumps out of the middle of that
// order, matching idiomatic switch statements that always end cases with
// break.
func (cg *CodeGen) genSwitch(n *Node, lc *loopCtx) error {
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	cg.text.Emit(OpPSH)

	var cases []*Node
	var defNode *Node
	collectCases(n.B, &cases, &defNode)

	var caseBodyJumps []int
	for range cases {
		caseBodyJumps = append(caseBodyJumps, 0)
	}
	for i, c := range cases {
		cg.text.Emit(OpDUP) // keep a copy of the switch value for later cases
		if err := cg.genExpr(c.A); err != nil {
			return err
		}
		cg.text.Emit(OpEQ)
		j := cg.text.EmitImm(OpBNZ, 0)
		caseBodyJumps[i] = j
	}
	jmpDefault := cg.text.EmitImm(OpJMP, 0)

	var breaks []int
	inner := &loopCtx{breakSites: &breaks, continueSites: lc.continueSitesOrNil()}
	bodyStarts := make([]int, len(cases))
	for i, c := range cases {
		bodyStarts[i] = cg.text.Len()
		cg.text.PatchImm(caseBodyJumps[i], int32(bodyStarts[i]))
		if err := cg.genStmt(c, inner); err != nil {
			return err
		}
	}
	defaultStart := cg.text.Len()
	cg.text.PatchImm(jmpDefault, int32(defaultStart))
	if defNode != nil {
		if err := cg.genStmt(defNode, inner); err != nil {
			return err
		}
	}
	popAt := cg.text.Emit(OpPOP) // discard the saved switch value
	cg.patchAll(breaks, popAt)
	return nil
}

func (lc *loopCtx) continueSitesOrNil() *[]int {
	if lc == nil {
		return nil
	}
	return lc.continueSites
}

// collectCases walks a switch body in source order. Its direct statements
// are the Case/default nodes the parser built, each holding the first
// statement after its label, and the statements that follow it; each of
// those following statements is appended to the body of the case before it.
func collectCases(body *Node, cases *[]*Node, def **Node) {
	if body == nil {
		return
	}
	stmts := body.Stmts
	if body.Kind != Begin {
		stmts = []*Node{body}
	}
	var last *Node
	for _, cur := range stmts {
		if cur.Kind != Case {
			if last != nil {
				last.B = &Node{Kind: Begin, Stmts: []*Node{last.B, cur}, Line: cur.Line}
			}
			continue
		}
		last = cur
		if cur.A == nil {
			*def = cur
		} else {
			*cases = append(*cases, cur)
		}
	}
}

func (cg *CodeGen) patchAll(sites []int, target int) {
	for _, s := range sites {
		cg.text.PatchImm(s, int32(target))
	}
}
