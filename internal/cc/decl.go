package cc

// parseGlobalDecl parses one top-level declaration: an enum, a struct/union
// tag (optionally with a body), or a based-type declarator list that ends
// either in a function definition/prototype or a list of global variables.
func (p *Parser) parseGlobalDecl() error {
	if p.lex.Tok == Enum {
		return p.parseEnumDecl()
	}

	base, declaredTagOnly, err := p.parseDeclBaseType()
	if err != nil {
		return err
	}
	if declaredTagOnly {
		return p.expect(Semi)
	}

	for {
		t := base
		for p.lex.Tok == Mul {
			t = t.Addr()
			if err := p.next(); err != nil {
				return err
			}
		}
		if p.lex.Tok != Ident {
			return p.errf("expected declarator name")
		}
		nameSym := p.lex.IdSym
		if err := p.next(); err != nil {
			return err
		}

		if p.lex.Tok == LParen {
			return p.parseFunctionDecl(t, nameSym)
		}

		t, etype, err := p.parseArrayDims(t, 0)
		if err != nil {
			return err
		}

		size := p.globalSizeOf(t, etype)
		off, err := p.data.Alloc(size)
		if err != nil {
			return err
		}
		nameSym.Class, nameSym.Type, nameSym.Val, nameSym.EType = Glo, t, off, etype
		p.globals = append(p.globals, nameSym)

		if p.lex.Tok == Assign {
			if err := p.next(); err != nil {
				return err
			}
			if err := p.parseGlobalInitializer(off, t, etype); err != nil {
				return err
			}
		}

		if p.lex.Tok == Comma {
			if err := p.next(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return p.expect(Semi)
}

// globalSizeOf computes the byte footprint of a global of type t, folding
// in array extents from etype for ranked types.
func (p *Parser) globalSizeOf(t Type, etype int) int {
	elemSize := p.types.SizeOf(t.withRank(0))
	if t.IsPtr() {
		elemSize = 4
	}
	switch t.Rank() {
	case 1:
		return elemSize * (etype + 1)
	case 2:
		e0, e1 := DecodeEType2(etype)
		return elemSize * e0 * e1
	case 3:
		e0, e1, e2 := DecodeEType3(etype)
		return elemSize * e0 * e1 * e2
	default:
		return elemSize
	}
}

// parseDeclBaseType consumes the leading type keyword of a declaration: a
// scalar keyword, or "struct"/"union" tag with an optional brace-delimited
// member list. declaredTagOnly is true when the declaration was just
// "struct Tag;" / "union Tag;" with no declarator following — the caller
// should consume the terminating semicolon and stop.
func (p *Parser) parseDeclBaseType() (Type, bool, error) {
	switch p.lex.Tok {
	case Char:
		return TyChar, false, p.next()
	case Int:
		return TyInt, false, p.next()
	case Float:
		return TyFloat, false, p.next()
	case Struct, Union:
		return p.parseStructOrUnionSpec()
	default:
		return 0, false, p.errf("expected a type, got %s", p.lex.Tok)
	}
}

func (p *Parser) parseStructOrUnionSpec() (Type, bool, error) {
	kind := p.lex.Tok // Struct or Union
	if err := p.next(); err != nil {
		return 0, false, err
	}
	if p.lex.Tok != Ident {
		return 0, false, p.errf("expected struct/union tag name")
	}
	tagSym := p.lex.IdSym
	if err := p.next(); err != nil {
		return 0, false, err
	}

	if p.lex.Tok != LBrace {
		if tagSym.Class != Struct && tagSym.Class != Union {
			return 0, false, &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "undefined struct/union tag: " + tagSym.Name}
		}
		return tagSym.Type, p.lex.Tok == Semi, nil
	}

	if tagSym.Class == Struct || tagSym.Class == Union {
		return 0, false, &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "redefinition of tag: " + tagSym.Name}
	}
	aggType := p.types.NewAggregate(0)
	tagSym.Class, tagSym.Type = kind, aggType
	if err := p.next(); err != nil {
		return 0, false, err
	}

	offset, maxSize := 0, 0
	for p.lex.Tok != RBrace {
		memberBase, _, err := p.parseDeclBaseType()
		if err != nil {
			return 0, false, err
		}
		for {
			mt := memberBase
			for p.lex.Tok == Mul {
				mt = mt.Addr()
				if err := p.next(); err != nil {
					return 0, false, err
				}
			}
			if p.lex.Tok != Ident {
				return 0, false, p.errf("expected member name")
			}
			memberName := p.lex.IdSym.Name
			if err := p.next(); err != nil {
				return 0, false, err
			}
			mt, etype, err := p.parseArrayDims(mt, 0)
			if err != nil {
				return 0, false, err
			}
			size := p.globalSizeOf(mt, etype)
			memOff := offset
			if kind == Union {
				memOff = 0
				if size > maxSize {
					maxSize = size
				}
			} else {
				offset += size
			}
			p.members.Add(aggType, &Member{Name: memberName, Type: mt, EType: etype, Offset: memOff})
			if p.lex.Tok != Comma {
				break
			}
			if err := p.next(); err != nil {
				return 0, false, err
			}
		}
		if err := p.expect(Semi); err != nil {
			return 0, false, err
		}
	}
	if err := p.next(); err != nil { // consume '}'
		return 0, false, err
	}
	total := offset
	if kind == Union {
		total = maxSize
	}
	p.types.SetSize(aggType, total)
	return aggType, p.lex.Tok == Semi, nil
}

// parseArrayDims consumes up to three "[const-expr]" suffixes after a
// declarator name, building the 1-3 dimensional etype encoding. depth is
// 0 on the outermost call.
func (p *Parser) parseArrayDims(base Type, depth int) (Type, int, error) {
	if p.lex.Tok != LBrack {
		return base, 0, nil
	}
	var dims []int
	for p.lex.Tok == LBrack {
		if len(dims) >= 3 {
			return 0, 0, p.errf("array has more than 3 dimensions")
		}
		if err := p.next(); err != nil {
			return 0, 0, err
		}
		n, err := p.evalConstIntExpr()
		if err != nil {
			return 0, 0, err
		}
		if n <= 0 {
			return 0, 0, p.errf("array bound must be a positive constant")
		}
		dims = append(dims, n)
		if err := p.expect(RBrack); err != nil {
			return 0, 0, err
		}
	}
	rankedType := base.withRank(len(dims))
	switch len(dims) {
	case 1:
		return rankedType, EncodeEType1(dims[0]), nil
	case 2:
		et, ok := EncodeEType2(dims[0], dims[1])
		if !ok {
			return 0, 0, p.errf("array bounds exceed [%d][%d]", EType2DMax0, EType2DMax1)
		}
		return rankedType, et, nil
	case 3:
		et, ok := EncodeEType3(dims[0], dims[1], dims[2])
		if !ok {
			return 0, 0, p.errf("array bounds exceed [%d][%d][%d]", EType3DMax0, EType3DMax1, EType3DMax2)
		}
		return rankedType, et, nil
	}
	return base, 0, nil
}

// evalConstIntExpr parses a constant expression (array bound, enum value)
// and requires it to fold to an integer literal.
func (p *Parser) evalConstIntExpr() (int, error) {
	e, err := p.ParseExpr()
	if err != nil {
		return 0, err
	}
	if !isNum(e) {
		return 0, &CompileError{Kind: ErrSemantic, Line: e.Line, Message: "expected a constant expression"}
	}
	return e.IntVal, nil
}

func (p *Parser) parseEnumDecl() error {
	if err := p.next(); err != nil {
		return err
	}
	if p.lex.Tok == Ident { // optional tag name, unused beyond scoping
		if err := p.next(); err != nil {
			return err
		}
	}
	if err := p.expect(LBrace); err != nil {
		return err
	}
	next := 0
	for p.lex.Tok != RBrace {
		if p.lex.Tok != Ident {
			return p.errf("expected enumerator name")
		}
		sym := p.lex.IdSym
		if err := p.next(); err != nil {
			return err
		}
		if p.lex.Tok == Assign {
			if err := p.next(); err != nil {
				return err
			}
			v, err := p.evalConstIntExpr()
			if err != nil {
				return err
			}
			next = v
		}
		sym.Class, sym.Type, sym.Val = Num, TyInt, next
		next++
		if p.lex.Tok == Comma {
			if err := p.next(); err != nil {
				return err
			}
			continue
		}
		break
	}
	if err := p.expect(RBrace); err != nil {
		return err
	}
	return p.expect(Semi)
}

// parseGlobalInitializer parses the right-hand side of "= ..." for a global
// declaration: a scalar constant, or a (possibly nested) brace initializer
// list for arrays, writing values straight into the data segment since
// globals are never runtime-computed.
func (p *Parser) parseGlobalInitializer(off int, t Type, etype int) error {
	if t.Rank() == 0 {
		v, err := p.ParseExpr()
		if err != nil {
			return err
		}
		return p.storeConst(off, t, v)
	}
	if p.lex.Tok == Str && t.Rank() == 1 && t.withRank(0).IsChar() {
		strOff := p.lex.IVal
		limit := etype + 1
		length := 0
		for p.data.ReadByte(strOff+length) != 0 {
			length++
		}
		if length+1 > limit {
			*p.warnings = append(*p.warnings, Warning{Line: p.lex.TokLine, Message: "string initializer truncated to fit array bound"})
			length = limit - 1
		}
		p.data.WriteAt(off, p.data.Bytes()[strOff:strOff+length])
		p.data.WriteAt(off+length, []byte{0})
		return p.next()
	}
	return p.parseBraceInitializer(off, t, etype)
}

func (p *Parser) parseBraceInitializer(off int, t Type, etype int) error {
	if err := p.expect(LBrace); err != nil {
		return err
	}
	elemType := t.withRank(t.Rank() - 1)
	var elemCount, innerEType int
	switch t.Rank() {
	case 1:
		elemCount = etype + 1
	case 2:
		e0, e1 := DecodeEType2(etype)
		elemCount = e0
		innerEType = EncodeEType1(e1)
	case 3:
		e0, e1, e2 := DecodeEType3(etype)
		elemCount = e0
		et, _ := EncodeEType2(e1, e2)
		innerEType = et
	}
	elemSize := p.globalSizeOf(elemType, innerEType)
	i := 0
	for p.lex.Tok != RBrace {
		if i >= elemCount {
			return p.errf("too many initializers")
		}
		elemOff := off + i*elemSize
		var err error
		if elemType.Rank() > 0 {
			err = p.parseGlobalInitializer(elemOff, elemType, innerEType)
		} else {
			err = p.parseGlobalInitializer(elemOff, elemType, 0)
		}
		if err != nil {
			return err
		}
		i++
		if p.lex.Tok == Comma {
			if err := p.next(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return p.expect(RBrace)
}

func (p *Parser) storeConst(off int, t Type, v *Node) error {
	if t.IsFloat() {
		v = p.toFloat(v)
		if !isNumF(v) {
			return &CompileError{Kind: ErrSemantic, Line: v.Line, Message: "global initializer must be constant"}
		}
		p.data.PutInt32(off, v.FVal)
		return nil
	}
	if !isNum(v) {
		return &CompileError{Kind: ErrSemantic, Line: v.Line, Message: "global initializer must be constant"}
	}
	if t.IsPtr() || p.types.SizeOf(t) == 4 {
		p.data.PutInt32(off, int32(v.IntVal))
	} else {
		p.data.WriteAt(off, []byte{byte(v.IntVal)})
	}
	return nil
}
