package cc

// parseUnary parses prefix operators, casts, sizeof, and the primary/postfix
// chain beneath them.
func (p *Parser) parseUnary() (*Node, error) {
	switch p.lex.Tok {
	case Sizeof:
		return p.parseSizeof()
	case Sub:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.buildNegate(operand)
	case Add:
		if err := p.next(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	case Not:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if isNum(operand) {
			n, _ := p.newNode(Num)
			n.IntVal = b2i(operand.IntVal == 0)
			n.Type = TyInt
			return n, nil
		}
		n, err := p.newNode(Eq)
		if err != nil {
			return nil, err
		}
		zero, _ := p.newNode(Num)
		zero.Type = TyInt
		n.A, n.B, n.Type = operand, zero, TyInt
		return n, nil
	case BNot:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if isNum(operand) {
			operand.IntVal = ^operand.IntVal
			return operand, nil
		}
		n, err := p.newNode(BNot)
		if err != nil {
			return nil, err
		}
		n.A, n.Type = operand, TyInt
		return n, nil
	case And:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		addr, elemType, err := p.lvalueAddress(operand)
		if err != nil {
			return nil, err
		}
		addr.Type = elemType.Addr()
		return addr, nil
	case Mul:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !operand.Type.IsPtr() {
			return nil, &CompileError{Kind: ErrSemantic, Line: operand.Line, Message: "indirection requires pointer operand"}
		}
		return p.wrapLoad(operand, operand.Type.Deref())
	case Inc, Dec:
		op := p.lex.Tok
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.buildIncDec(op, operand, true)
	case LParen:
		if t, ok, err := p.tryParseCast(); ok || err != nil {
			return t, err
		}
		fallthrough
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) buildNegate(n *Node) (*Node, error) {
	if isNum(n) {
		n.IntVal = -n.IntVal
		return n, nil
	}
	if isNumF(n) {
		n.FVal ^= -1 << 31 // flip the IEEE-754 sign bit
		return n, nil
	}
	if n.Type.IsFloat() {
		mask, _ := p.newNode(Num)
		mask.IntVal, mask.Type = -1<<31, TyInt
		nn, err := p.newNode(Xor)
		if err != nil {
			return nil, err
		}
		nn.A, nn.B, nn.Type = n, mask, TyFloat
		return nn, nil
	}
	zero, _ := p.newNode(Num)
	zero.Type = TyInt
	nn, err := p.newNode(Sub)
	if err != nil {
		return nil, err
	}
	nn.A, nn.B, nn.Type = zero, n, TyInt
	return nn, nil
}

// tryParseCast speculatively parses "(" type-name ")" unary; if the
// parenthesized content is not a type keyword it returns ok=false having
// consumed nothing visible to the caller beyond what a plain parenthesized
// expression would (since the lexer has no backtracking, casts are
// recognized only by the token immediately following '(').
func (p *Parser) tryParseCast() (*Node, bool, error) {
	if p.lex.Tok != LParen {
		return nil, false, nil
	}
	src, i := p.lex.src, p.lex.pos
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\n') {
		i++
	}
	j := i
	for j < len(src) && (src[j] == '_' || src[j] >= 'a' && src[j] <= 'z' || src[j] >= 'A' && src[j] <= 'Z' || src[j] >= '0' && src[j] <= '9') {
		j++
	}
	switch string(src[i:j]) {
	case "char", "int", "float", "struct", "union":
	default:
		return nil, false, nil
	}
	if err := p.next(); err != nil {
		return nil, false, err
	}
	t, err := p.parseTypeName()
	if err != nil {
		return nil, false, err
	}
	if err := p.expect(RParen); err != nil {
		return nil, false, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, false, err
	}
	n, err := p.castTo(t, operand)
	return n, true, err
}

// parseTypeName parses a base type keyword (optionally "struct"/"union"
// Ident for an aggregate tag) followed by zero or more '*' pointer levels.
// The current token must be Char, Int, Float, Struct, or Union on entry.
func (p *Parser) parseTypeName() (Type, error) {
	base := TyInt
	switch p.lex.Tok {
	case Char:
		base = TyChar
		if err := p.next(); err != nil {
			return 0, err
		}
	case Float:
		base = TyFloat
		if err := p.next(); err != nil {
			return 0, err
		}
	case Int:
		base = TyInt
		if err := p.next(); err != nil {
			return 0, err
		}
	case Struct, Union:
		if err := p.next(); err != nil {
			return 0, err
		}
		if p.lex.Tok != Ident {
			return 0, p.errf("expected struct/union tag name")
		}
		tagSym := p.lex.IdSym
		if err := p.next(); err != nil {
			return 0, err
		}
		if tagSym.Class != Struct && tagSym.Class != Union {
			return 0, &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "undefined struct/union tag: " + tagSym.Name}
		}
		base = tagSym.Type
	default:
		return 0, p.errf("expected type name")
	}
	for p.lex.Tok == Mul {
		base = base.Addr()
		if err := p.next(); err != nil {
			return 0, err
		}
	}
	return base, nil
}

func (p *Parser) castTo(t Type, operand *Node) (*Node, error) {
	if t.IsFloat() && !operand.Type.IsFloat() {
		return p.toFloat(operand), nil
	}
	if !t.IsFloat() && operand.Type.IsFloat() {
		if isNumF(operand) {
			n, _ := p.newNode(Num)
			n.IntVal = int(bitsToFloat32(operand.FVal))
			n.Type = t
			return n, nil
		}
		n, err := p.newNode(CastF)
		if err != nil {
			return nil, err
		}
		n.A, n.Type = operand, t
		return n, nil
	}
	operand.Type = t
	return operand, nil
}

func (p *Parser) parseSizeof() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(LParen); err != nil {
		return nil, err
	}
	var sz int
	switch p.lex.Tok {
	case Char, Int, Float, Struct, Union:
		t, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		sz = p.sizeOfType(t)
	default:
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		sz = p.sizeOfType(e.Type)
		if e.Type.Rank() > 0 && e.Sym != nil {
			sz = p.globalSizeOf(e.Type, e.Sym.EType)
		}
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	n, err := p.newNode(Num)
	if err != nil {
		return nil, err
	}
	n.IntVal, n.Type = sz, TyInt
	return n, nil
}

func (p *Parser) sizeOfType(t Type) int {
	if t.IsPtr() {
		return 4
	}
	return p.types.SizeOf(t)
}

func (p *Parser) wrapLoad(addr *Node, t Type) (*Node, error) {
	n, err := p.newNode(Load)
	if err != nil {
		return nil, err
	}
	n.A, n.Type = addr, t
	return n, nil
}

// parsePostfix parses a primary expression followed by any chain of call,
// subscript, member-access, and postfix inc/dec operators.
func (p *Parser) parsePostfix() (*Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.lex.Tok {
		case LBrack:
			n, err = p.parseSubscript(n)
		case Dot:
			n, err = p.parseMember(n, false)
		case Arrow:
			n, err = p.parseMember(n, true)
		case Inc, Dec:
			op := p.lex.Tok
			if e := p.next(); e != nil {
				return nil, e
			}
			n, err = p.buildIncDec(op, n, false)
		default:
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) buildIncDec(op Kind, operand *Node, prefix bool) (*Node, error) {
	addr, elemType, err := p.lvalueAddress(operand)
	if err != nil {
		return nil, err
	}
	n, err := p.newNode(op)
	if err != nil {
		return nil, err
	}
	n.A, n.Type = addr, elemType
	n.ElemSize = 1
	if elemType.IsPtr() {
		n.ElemSize = p.elemSizeOf(elemType)
	}
	if !prefix {
		n.IntVal = 1 // postfix marker: codegen yields the pre-update value
	}
	return n, nil
}

func (p *Parser) parseSubscript(base *Node) (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	idx, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(RBrack); err != nil {
		return nil, err
	}
	baseAddr, elemType, err := p.decayToPointer(base)
	if err != nil {
		return nil, err
	}
	addExpr, err := p.buildPointerArith(Add, baseAddr, idx)
	if err != nil {
		return nil, err
	}
	return p.wrapLoad(addExpr, elemType)
}

// decayToPointer turns a one-dimensional array reference or a pointer
// rvalue into a pointer-typed address expression usable as the base of
// '[]'. Arrays of rank 2 or 3 are not handled here and are reported with
// the same error as a non-pointer operand.
func (p *Parser) decayToPointer(n *Node) (*Node, Type, error) {
	if n.Type.IsPtr() {
		return n, n.Type.Deref(), nil
	}
	if n.Kind == Load {
		return n.A, n.A.Type.Deref(), nil
	}
	if n.Type.Rank() == 1 && (n.Kind == Glo || n.Kind == Loc) {
		elem := n.Type.withRank(0)
		n.Type = elem.Addr()
		return n, elem, nil
	}
	return nil, 0, &CompileError{Kind: ErrSemantic, Line: n.Line, Message: "subscript requires pointer or array"}
}

func (p *Parser) parseMember(base *Node, arrow bool) (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.lex.Tok != Ident {
		return nil, p.errf("expected member name")
	}
	memberName := p.lex.IdSym.Name
	if err := p.next(); err != nil {
		return nil, err
	}
	var structAddr *Node
	var structType Type
	if arrow {
		if !base.Type.IsPtr() {
			return nil, &CompileError{Kind: ErrSemantic, Line: base.Line, Message: "-> requires pointer operand"}
		}
		structAddr, structType = base, base.Type.Deref()
	} else {
		addr, t, err := p.lvalueAddress(base)
		if err != nil {
			return nil, err
		}
		structAddr, structType = addr, t
	}
	m := p.members.Lookup(structType, memberName)
	if m == nil {
		return nil, &CompileError{Kind: ErrSemantic, Line: base.Line, Message: "no member named " + memberName}
	}
	offN, _ := p.newNode(Num)
	offN.IntVal, offN.Type = m.Offset, TyInt
	addN, err := p.newNode(Add)
	if err != nil {
		return nil, err
	}
	addN.A, addN.B, addN.Type = structAddr, offN, m.Type.Addr()
	if m.Type.Rank() > 0 {
		return addN, nil
	}
	return p.wrapLoad(addN, m.Type)
}

func (p *Parser) parsePrimary() (*Node, error) {
	switch p.lex.Tok {
	case Num:
		n, err := p.newNode(Num)
		if err != nil {
			return nil, err
		}
		n.IntVal, n.Type = p.lex.IVal, TyInt
		return n, p.next()
	case NumF:
		n, err := p.newNode(NumF)
		if err != nil {
			return nil, err
		}
		n.FVal, n.Type = float32bits(p.lex.FVal), TyFloat
		return n, p.next()
	case Str:
		n, err := p.newNode(Str)
		if err != nil {
			return nil, err
		}
		n.IntVal, n.Type = p.lex.IVal, TyChar.Addr()
		return n, p.next()
	case LParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		return e, p.expect(RParen)
	case Ident:
		return p.parseIdentPrimary()
	default:
		return nil, p.errf("unexpected token %s in expression", p.lex.Tok)
	}
}

func (p *Parser) parseIdentPrimary() (*Node, error) {
	sym := p.lex.IdSym
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.lex.Tok == LParen {
		return p.parseCall(sym)
	}
	switch sym.Class {
	case Num:
		n, err := p.newNode(Num)
		if err != nil {
			return nil, err
		}
		n.IntVal, n.Type = sym.Val, TyInt
		return n, nil
	case Glo, Loc, Par:
		n, err := p.newNode(sym.Class)
		if err != nil {
			return nil, err
		}
		n.IntVal, n.Type, n.Sym = sym.Val, sym.Type, sym
		if sym.Type.Rank() > 0 {
			return n, nil
		}
		return p.wrapLoad(n, sym.Type)
	default:
		return nil, &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "undeclared identifier: " + sym.Name}
	}
}

func (p *Parser) parseCall(sym *Symbol) (*Node, error) {
	if sym.Class != Func && sym.Class != Syscall {
		return nil, &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "not callable: " + sym.Name}
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	var head *Node
	argc := 0
	for p.lex.Tok != RParen {
		if argc > 0 {
			if err := p.expect(Comma); err != nil {
				return nil, err
			}
		}
		arg, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		head = PushArg(head, arg)
		argc++
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	kind := Func
	if sym.Class == Syscall {
		kind = Syscall
	}
	n, err := p.newNode(kind)
	if err != nil {
		return nil, err
	}
	n.Args, n.Sym = head, sym
	if sym.Class == Syscall {
		fn, idx, ok := p.host.LookupIndexed(sym.Name)
		if !ok {
			return nil, &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "unknown host function: " + sym.Name}
		}
		n.HostIndex = idx
		n.Type = TyInt
		if fn.RetFloat {
			n.Type = TyFloat
		}
	} else {
		n.Type = sym.Type
	}
	n.IntVal = argc
	return n, nil
}
