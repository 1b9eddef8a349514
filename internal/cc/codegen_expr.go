package cc

var binOpTable = map[Kind]Op{
	Or: OpOR, Xor: OpXOR, And: OpAND,
	Eq: OpEQ, Ne: OpNE, Ge: OpGE, Lt: OpLT, Gt: OpGT, Le: OpLE,
	Shl: OpSHL, Shr: OpSHR,
	Add: OpADD, Sub: OpSUB, Mul: OpMUL, Div: OpDIV, Mod: OpMOD,
	AddF: OpADDF, SubF: OpSUBF, MulF: OpMULF, DivF: OpDIVF,
	EqF: OpEQF, NeF: OpNEF, GeF: OpGEF, LtF: OpLTF, GtF: OpGTF, LeF: OpLEF,
}

// genExpr emits code that leaves the expression's value in ACC (or, for a
// float-typed expression, conceptually in ACC using the same register —
// the VM keeps one accumulator and reuses it for both, since float32 and
// int32 are both one word).
func (cg *CodeGen) genExpr(n *Node) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case Num:
		cg.text.EmitImm(OpIMM, int32(n.IntVal))
		return nil
	case NumF:
		cg.text.EmitImm(OpIMMF, n.FVal)
		return nil
	case Str:
		cg.text.EmitImm(OpIMM, int32(n.IntVal))
		return nil
	case Glo:
		cg.text.EmitImm(OpIMM, int32(n.IntVal))
		return nil
	case Loc, Par:
		cg.text.EmitImm(OpLEA, int32(n.IntVal))
		return nil
	case Load:
		if err := cg.genExpr(n.A); err != nil {
			return err
		}
		cg.text.Emit(cg.loadOpFor(n.Type))
		return nil
	case Assign:
		return cg.genAssign(n)
	case Cond:
		return cg.genCond(n)
	case Lor:
		return cg.genLogical(n, true)
	case Lan:
		return cg.genLogical(n, false)
	case BNot:
		if err := cg.genExpr(n.A); err != nil {
			return err
		}
		cg.text.Emit(OpBNOTOP)
		return nil
	case CastF:
		if err := cg.genExpr(n.A); err != nil {
			return err
		}
		if n.IntVal != 0 {
			cg.text.Emit(OpITOF)
		} else {
			cg.text.Emit(OpFTOI)
		}
		return nil
	case Inc, Dec:
		return cg.genIncDec(n)
	case Func, Syscall:
		return cg.genCall(n)
	default:
		if op, ok := binOpTable[n.Kind]; ok {
			return cg.genBinary(n, op)
		}
		return &CompileError{Kind: ErrSemantic, Line: n.Line, Message: "codegen: unhandled node kind " + n.Kind.String()}
	}
}

func (cg *CodeGen) loadOpFor(t Type) Op {
	if t.IsFloat() {
		return OpLF
	}
	if t.IsChar() {
		return OpLC
	}
	return OpLI
}

func (cg *CodeGen) storeOpFor(t Type) Op {
	if t.IsFloat() {
		return OpSF
	}
	if t.IsChar() {
		return OpSC
	}
	return OpSI
}

func (cg *CodeGen) pushOpFor(t Type) Op {
	if t.IsFloat() {
		return OpPSHF
	}
	return OpPSH
}

func (cg *CodeGen) genBinary(n *Node, op Op) error {
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	cg.text.Emit(cg.pushOpFor(n.A.Type))
	if err := cg.genExpr(n.B); err != nil {
		return err
	}
	cg.text.Emit(op)
	return nil
}

func (cg *CodeGen) genAssign(n *Node) error {
	if err := cg.genExpr(n.A); err != nil { // address
		return err
	}
	cg.text.Emit(OpPSH)
	if err := cg.genExpr(n.B); err != nil { // value
		return err
	}
	cg.text.Emit(cg.storeOpFor(n.Type))
	return nil
}

func (cg *CodeGen) genCond(n *Node) error {
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	bz := cg.text.EmitImm(OpBZ, 0)
	if err := cg.genExpr(n.B); err != nil {
		return err
	}
	jmp := cg.text.EmitImm(OpJMP, 0)
	cg.text.PatchImm(bz, int32(cg.text.Len()))
	if err := cg.genExpr(n.C); err != nil {
		return err
	}
	cg.text.PatchImm(jmp, int32(cg.text.Len()))
	return nil
}

// genLogical implements short-circuit && / ||, normalizing the result to a
// strict 0/1 on every path the way C's boolean operators do. isOr selects
// which side short-circuits: || skips b when a is already true, && skips b
// when a is already false.
func (cg *CodeGen) genLogical(n *Node, isOr bool) error {
	if err := cg.genExpr(n.A); err != nil {
		return err
	}
	var shortCircuit int
	if isOr {
		shortCircuit = cg.text.EmitImm(OpBNZ, 0)
	} else {
		shortCircuit = cg.text.EmitImm(OpBZ, 0)
	}
	if err := cg.genExpr(n.B); err != nil {
		return err
	}
	bFalse := cg.text.EmitImm(OpBZ, 0)
	cg.text.EmitImm(OpIMM, 1)
	toEnd := cg.text.EmitImm(OpJMP, 0)
	cg.text.PatchImm(bFalse, int32(cg.text.Len()))
	cg.text.EmitImm(OpIMM, 0)
	afterB := cg.text.EmitImm(OpJMP, 0)
	cg.text.PatchImm(shortCircuit, int32(cg.text.Len()))
	known := int32(0)
	if isOr {
		known = 1
	}
	cg.text.EmitImm(OpIMM, known)
	end := cg.text.Len()
	cg.text.PatchImm(toEnd, int32(end))
	cg.text.PatchImm(afterB, int32(end))
	return nil
}

var incDecOp = map[[3]bool]Op{ // key: {isDec, isChar, isPostfix}
	{false, false, false}: OpINCPREI,
	{false, false, true}:  OpINCPOSTI,
	{false, true, false}:  OpINCPREC,
	{false, true, true}:   OpINCPOSTC,
	{true, false, false}:  OpDECPREI,
	{true, false, true}:   OpDECPOSTI,
	{true, true, false}:   OpDECPREC,
	{true, true, true}:    OpDECPOSTC,
}

func (cg *CodeGen) genIncDec(n *Node) error {
	if err := cg.genExpr(n.A); err != nil { // address into ACC
		return err
	}
	op := incDecOp[[3]bool{n.Kind == Dec, n.Type.IsChar(), n.IntVal != 0}]
	scale := n.ElemSize
	if scale == 0 {
		scale = 1
	}
	cg.text.EmitImm(op, int32(scale))
	return nil
}

// genCall evaluates arguments right-to-left (n.Args is already threaded
// that way by PushArg) and emits JSR/SYSC, then cleans the stack with ADJ.
// Host calls additionally coerce fixed-position arguments to the
// directory's declared float mask, and promote any float passed through a
// variadic tail to double width (two stack words), per the host calling
// convention.
func (cg *CodeGen) genCall(n *Node) error {
	args := make([]*Node, 0, 4)
	for a := n.Args; a != nil; a = a.Next {
		args = append(args, a) // collected N-1 .. 0, i.e. position order reversed
	}
	argc := len(args)

	var fn hostFn
	var floatMask uint32
	var paramCount int
	if n.Kind == Syscall {
		fn = cg.host.ByIndex(n.HostIndex)
		floatMask, _, paramCount = DecodeFuncEType(fn.EType)
	}

	stackBytes := 0
	for i, a := range args {
		pos := argc - 1 - i
		if err := cg.genExpr(a); err != nil {
			return err
		}
		switch {
		case n.Kind != Syscall:
			cg.text.Emit(cg.pushOpFor(a.Type))
			stackBytes += 4
		case fn.Variadic && pos >= paramCount:
			if a.Type.IsFloat() {
				cg.text.Emit(OpPSHD)
				stackBytes += 8
			} else {
				cg.text.Emit(OpPSH)
				stackBytes += 4
			}
		default:
			wantFloat := floatMask&(1<<uint(pos)) != 0
			if wantFloat && !a.Type.IsFloat() {
				cg.text.Emit(OpITOF)
			} else if !wantFloat && a.Type.IsFloat() {
				cg.text.Emit(OpFTOI)
			}
			if wantFloat {
				cg.text.Emit(OpPSHF)
			} else {
				cg.text.Emit(OpPSH)
			}
			stackBytes += 4
		}
	}

	if n.Kind == Syscall {
		imm := int32(n.HostIndex)<<8 | int32(argc&0xff)
		cg.text.EmitImm(OpSYSC, imm)
	} else {
		site := cg.text.EmitImm(OpJSR, 0)
		n.Sym.ForwardPC = append(n.Sym.ForwardPC, site)
	}
	if stackBytes > 0 {
		cg.text.EmitImm(OpADJ, int32(stackBytes))
	}
	return nil
}
