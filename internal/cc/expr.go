package cc

import "math"

// precedence returns the binding power of a binary operator token;
// precedence levels match the enum ordering of operator tokens from
// Assign (lowest modifiable) down to Bracket (highest). Like the c4
// lineage this design descends from, equality and relational operators
// share one level.
func precedence(k Kind) int {
	switch k {
	case Lor:
		return 10
	case Lan:
		return 20
	case Or:
		return 30
	case Xor:
		return 40
	case And:
		return 50
	case Eq, Ne, Ge, Lt, Gt, Le:
		return 60
	case Shl, Shr:
		return 70
	case Add, Sub:
		return 80
	case Mul, Div, Mod:
		return 90
	default:
		return 0
	}
}

var compoundOpFor = map[Kind]Kind{
	OrAssign: Or, XorAssign: Xor, AndAssign: And,
	ShlAssign: Shl, ShrAssign: Shr,
	AddAssign: Add, SubAssign: Sub, MulAssign: Mul, DivAssign: Div, ModAssign: Mod,
}

func isAssignTok(k Kind) bool {
	if k == Assign {
		return true
	}
	_, ok := compoundOpFor[k]
	return ok
}

// ParseExpr parses a full C expression: assignment (right-assoc) at the
// bottom, then the ternary, then precedence-climbed binary operators.
func (p *Parser) ParseExpr() (*Node, error) {
	return p.parseAssign()
}

func (p *Parser) parseAssign() (*Node, error) {
	lhs, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if !isAssignTok(p.lex.Tok) {
		return lhs, nil
	}
	op := p.lex.Tok
	if err := p.next(); err != nil {
		return nil, err
	}
	addr, elemType, err := p.lvalueAddress(lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	// Compound assignment is decomposed here into "addr = *addr OP rhs",
	// the same way the expression is understood in C, rather than carried
	// as a dedicated opcode — one fewer case the code generator and VM
	// need to special-case. The address sub-expression is evaluated twice;
	// this only matters (double side effect) for an addr expression with
	// its own side effects, e.g. "a[i++] += 1", which this subset doesn't
	// guard against.
	if op != Assign {
		loaded, err := p.wrapLoad(addr, elemType)
		if err != nil {
			return nil, err
		}
		rhs, err = p.buildBinary(compoundOpFor[op], loaded, rhs)
		if err != nil {
			return nil, err
		}
	}
	rhs, err = p.coerceAssign(elemType, rhs)
	if err != nil {
		return nil, err
	}
	n, err := p.newNode(Assign)
	if err != nil {
		return nil, err
	}
	n.A, n.B, n.Type = addr, rhs, elemType
	return n, nil
}

// lvalueAddress converts a parsed expression node (as returned by
// parseCond, which yields a Load-wrapped rvalue for plain references)
// back into the address it was loaded from: address-of requires the
// immediate child to be a Load node and strips it.
func (p *Parser) lvalueAddress(n *Node) (*Node, Type, error) {
	if n.Kind != Load {
		return nil, 0, &CompileError{Kind: ErrSemantic, Line: n.Line, Message: "expression is not assignable"}
	}
	return n.A, n.Type, nil
}

func (p *Parser) parseCond() (*Node, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.lex.Tok != Cond {
		return cond, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	then, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if err := p.expect(Colon); err != nil {
		return nil, err
	}
	els, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if isNum(cond) {
		if cond.IntVal != 0 {
			return then, nil
		}
		return els, nil
	}
	n, err := p.newNode(Cond)
	if err != nil {
		return nil, err
	}
	n.A, n.B, n.C = cond, then, els
	n.Type = then.Type
	return n, nil
}

// parseBinary implements precedence climbing starting at minPrec (1 is the
// lowest real binary level, below sizeof/unary).
func (p *Parser) parseBinary(minPrec int) (*Node, error) {
	left, err := p.parseUnaryChain()
	if err != nil {
		return nil, err
	}
	for {
		prec := precedence(p.lex.Tok)
		if prec < minPrec || prec == 0 {
			return left, nil
		}
		op := p.lex.Tok
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left, err = p.buildBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

// parseUnaryChain exists only so parseBinary has a single call site; it is
// the real unary parser.
func (p *Parser) parseUnaryChain() (*Node, error) { return p.parseUnary() }

func isNum(n *Node) bool  { return n != nil && n.Kind == Num }
func isNumF(n *Node) bool { return n != nil && n.Kind == NumF }

func float32bits(f float32) int32 { return int32(math.Float32bits(f)) }
func bitsToFloat32(b int32) float32 { return math.Float32frombits(uint32(b)) }

// buildBinary type-checks, scales pointer arithmetic, and constant-folds a
// binary operator node.
func (p *Parser) buildBinary(op Kind, l, r *Node) (*Node, error) {
	// Short-circuit operators: preserve order, fold only when both sides
	// are literal.
	if op == Lor || op == Lan {
		if isNum(l) && isNum(r) {
			n, err := p.newNode(Num)
			if err != nil {
				return nil, err
			}
			lb, rb := l.IntVal != 0, r.IntVal != 0
			var v bool
			if op == Lor {
				v = lb || rb
			} else {
				v = lb && rb
			}
			n.IntVal = b2i(v)
			n.Type = TyInt
			return n, nil
		}
		n, err := p.newNode(op)
		if err != nil {
			return nil, err
		}
		n.A, n.B, n.Type = l, r, TyInt
		return n, nil
	}

	useFloat := l.Type.IsFloat() || r.Type.IsFloat()
	if useFloat && (l.Type.IsPtr() || r.Type.IsPtr()) {
		return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "pointer/float operand mismatch"}
	}

	// Pointer arithmetic scaling (+ and - only).
	if (op == Add || op == Sub) && (l.Type.IsPtr() || r.Type.IsPtr()) {
		return p.buildPointerArith(op, l, r)
	}

	if err := p.checkComparableOperands(op, l, r); err != nil {
		return nil, err
	}

	floatOp := map[Kind]Kind{Add: AddF, Sub: SubF, Mul: MulF, Div: DivF,
		Eq: EqF, Ne: NeF, Ge: GeF, Lt: LtF, Gt: GtF, Le: LeF}

	if useFloat {
		l = p.toFloat(l)
		r = p.toFloat(r)
		if isNumF(l) && isNumF(r) {
			return p.foldFloat(op, l, r)
		}
		fop, ok := floatOp[op]
		if !ok {
			return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "operator not valid on float"}
		}
		n, err := p.newNode(fop)
		if err != nil {
			return nil, err
		}
		n.A, n.B = l, r
		if fop == AddF || fop == SubF || fop == MulF || fop == DivF {
			n.Type = TyFloat
		} else {
			n.Type = TyInt
		}
		return n, nil
	}

	if isNum(l) && isNum(r) {
		return p.foldInt(op, l, r)
	}
	n, err := p.newNode(op)
	if err != nil {
		return nil, err
	}
	n.A, n.B = l, r
	switch op {
	case Eq, Ne, Ge, Lt, Gt, Le:
		n.Type = TyInt
	default:
		n.Type = TyInt
		if l.Type.IsPtr() {
			n.Type = l.Type
		}
	}
	return n, nil
}

// checkComparableOperands implements the comparison side of the
// "Comparison/assign type check" bullet: mixed pointer-level/pointer-int/
// struct operand sets are fatal unless a small allow-list applies (e.g.
// ptr == 0). It is called for binary operators only; assignments are not
// checked here.
func (p *Parser) checkComparableOperands(op Kind, l, r *Node) error {
	lp, rp := l.Type.IsPtr(), r.Type.IsPtr()
	if lp && rp {
		if l.Type.PtrLevel() != r.Type.PtrLevel() {
			return &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "pointer level mismatch"}
		}
		return nil
	}
	if lp != rp {
		if op == Eq || op == Ne {
			if (lp && isNum(r) && r.IntVal == 0) || (rp && isNum(l) && l.IntVal == 0) {
				return nil
			}
		}
		return &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "pointer/integer operand mismatch"}
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// buildPointerArith implements "ptr + int"/"int + ptr" scaling by
// sizeof(*ptr), "ptr - ptr" dividing by element size (via shift when the
// size is a power of two), and "ptr - int" scaling the same way.
func (p *Parser) buildPointerArith(op Kind, l, r *Node) (*Node, error) {
	if l.Type.IsPtr() && r.Type.IsPtr() {
		if op != Sub {
			return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "cannot add two pointers"}
		}
		elemSize := p.elemSizeOf(l.Type)
		n, err := p.newNode(Sub)
		if err != nil {
			return nil, err
		}
		n.A, n.B, n.Type = l, r, TyInt
		if isPow2(elemSize) && elemSize > 1 {
			shiftN, _ := p.newNode(Num)
			shiftN.IntVal = trailingZeros(elemSize)
			shiftN.Type = TyInt
			sh, err := p.newNode(Shr)
			if err != nil {
				return nil, err
			}
			sh.A, sh.B, sh.Type = n, shiftN, TyInt
			return sh, nil
		}
		divN, _ := p.newNode(Num)
		divN.IntVal = elemSize
		divN.Type = TyInt
		dn, err := p.newNode(Div)
		if err != nil {
			return nil, err
		}
		dn.A, dn.B, dn.Type = n, divN, TyInt
		return dn, nil
	}
	ptr, other := l, r
	ptrIsLeft := true
	if r.Type.IsPtr() {
		ptr, other = r, l
		ptrIsLeft = false
	}
	elemSize := p.elemSizeOf(ptr.Type)
	scaled, err := p.scaleByConst(other, elemSize)
	if err != nil {
		return nil, err
	}
	var nl, nr *Node
	if ptrIsLeft {
		nl, nr = ptr, scaled
	} else {
		nl, nr = scaled, ptr
	}
	if isNum(nl) && isNum(nr) && op == Add {
		n, _ := p.newNode(Num)
		n.IntVal = nl.IntVal + nr.IntVal
		n.Type = ptr.Type
		return n, nil
	}
	n, err := p.newNode(op)
	if err != nil {
		return nil, err
	}
	n.A, n.B, n.Type = nl, nr, ptr.Type
	return n, nil
}

func (p *Parser) scaleByConst(n *Node, scale int) (*Node, error) {
	if scale == 1 {
		return n, nil
	}
	if isNum(n) {
		nn, _ := p.newNode(Num)
		nn.IntVal = n.IntVal * scale
		nn.Type = n.Type
		return nn, nil
	}
	mulN, _ := p.newNode(Num)
	mulN.IntVal = scale
	mulN.Type = TyInt
	m, err := p.newNode(Mul)
	if err != nil {
		return nil, err
	}
	m.A, m.B, m.Type = n, mulN, TyInt
	return m, nil
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }
func trailingZeros(n int) int {
	c := 0
	for n > 1 {
		n >>= 1
		c++
	}
	return c
}

// elemSizeOf returns sizeof(*ptr) — 4 when the pointee is itself a pointer,
// otherwise the base type's table size.
func (p *Parser) elemSizeOf(t Type) int {
	pointee := t.Deref()
	if pointee.IsPtr() {
		return 4
	}
	return p.types.SizeOf(pointee)
}

func (p *Parser) toFloat(n *Node) *Node {
	if n.Type.IsFloat() {
		return n
	}
	if isNum(n) {
		nn, _ := p.newNode(NumF)
		nn.FVal = float32bits(float32(n.IntVal))
		nn.Type = TyFloat
		return nn
	}
	nn, _ := p.newNode(CastF)
	nn.A = n
	nn.IntVal = 1 // marker: ITOF (0 = FTOI)
	nn.Type = TyFloat
	return nn
}

func (p *Parser) foldInt(op Kind, l, r *Node) (*Node, error) {
	n, err := p.newNode(Num)
	if err != nil {
		return nil, err
	}
	a, b := l.IntVal, r.IntVal
	switch op {
	case Or:
		n.IntVal = a | b
	case Xor:
		n.IntVal = a ^ b
	case And:
		n.IntVal = a & b
	case Eq:
		n.IntVal = b2i(a == b)
	case Ne:
		n.IntVal = b2i(a != b)
	case Ge:
		n.IntVal = b2i(a >= b)
	case Lt:
		n.IntVal = b2i(a < b)
	case Gt:
		n.IntVal = b2i(a > b)
	case Le:
		n.IntVal = b2i(a <= b)
	case Shl:
		n.IntVal = a << uint(b)
	case Shr:
		n.IntVal = a >> uint(b)
	case Add:
		n.IntVal = a + b
	case Sub:
		n.IntVal = a - b
	case Mul:
		n.IntVal = a * b
	case Div:
		if b == 0 {
			return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "division by zero in constant expression"}
		}
		n.IntVal = a / b
	case Mod:
		if b == 0 {
			return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "modulo by zero in constant expression"}
		}
		n.IntVal = a % b
	default:
		return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "invalid constant operator"}
	}
	n.Type = TyInt
	return n, nil
}

// foldFloat operates on the IEEE-754 bit pattern reinterpreted as float32.
func (p *Parser) foldFloat(op Kind, l, r *Node) (*Node, error) {
	a, b := bitsToFloat32(l.FVal), bitsToFloat32(r.FVal)
	if op == Eq || op == Ne || op == Ge || op == Lt || op == Gt || op == Le {
		n, err := p.newNode(Num)
		if err != nil {
			return nil, err
		}
		switch op {
		case Eq:
			n.IntVal = b2i(a == b)
		case Ne:
			n.IntVal = b2i(a != b)
		case Ge:
			n.IntVal = b2i(a >= b)
		case Lt:
			n.IntVal = b2i(a < b)
		case Gt:
			n.IntVal = b2i(a > b)
		case Le:
			n.IntVal = b2i(a <= b)
		}
		n.Type = TyInt
		return n, nil
	}
	n, err := p.newNode(NumF)
	if err != nil {
		return nil, err
	}
	var v float32
	switch op {
	case Add:
		v = a + b
	case Sub:
		v = a - b
	case Mul:
		v = a * b
	case Div:
		v = a / b
	default:
		return nil, &CompileError{Kind: ErrSemantic, Line: l.Line, Message: "invalid constant float operator"}
	}
	n.FVal = float32bits(v)
	n.Type = TyFloat
	return n, nil
}

func (p *Parser) coerceAssign(target Type, rhs *Node) (*Node, error) {
	if target.IsFloat() && !rhs.Type.IsFloat() {
		return p.toFloat(rhs), nil
	}
	if !target.IsFloat() && rhs.Type.IsFloat() {
		if isNumF(rhs) {
			n, _ := p.newNode(Num)
			n.IntVal = int(bitsToFloat32(rhs.FVal))
			n.Type = TyInt
			return n, nil
		}
		n, _ := p.newNode(CastF)
		n.A = rhs
		n.IntVal = 0 // marker: FTOI
		n.Type = TyInt
		return n, nil
	}
	return rhs, nil
}
