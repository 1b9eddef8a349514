package cc

// parseBlock parses a compound statement: '{' local-declarations* statement* '}'.
// It parses function bodies and, through parseStatement's LBrace case,
// nested blocks as well. Local declarations are only recognized at the start
// of a block, before its first statement; a declaration placed after a
// statement is not parsed as one.
func (p *Parser) parseBlock() (*Node, error) {
	if err := p.expect(LBrace); err != nil {
		return nil, err
	}
	begin, err := p.newNode(Begin)
	if err != nil {
		return nil, err
	}
	for p.isDeclStart() {
		initStmts, err := p.parseLocalDecl()
		if err != nil {
			return nil, err
		}
		begin.Stmts = append(begin.Stmts, initStmts...)
	}
	for p.lex.Tok != RBrace {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		begin.Stmts = append(begin.Stmts, s)
	}
	return begin, p.next()
}

func (p *Parser) isDeclStart() bool {
	switch p.lex.Tok {
	case Char, Int, Float:
		return true
	case Struct, Union:
		return true
	default:
		return false
	}
}

// parseLocalDecl parses one "type declarator (',' declarator)* ';'" local
// declaration, allocating downward-growing frame offsets and returning any
// initializer assignments as statement nodes to run in declaration order.
func (p *Parser) parseLocalDecl() ([]*Node, error) {
	base, _, err := p.parseDeclBaseType()
	if err != nil {
		return nil, err
	}
	var stmts []*Node
	for {
		t := base
		for p.lex.Tok == Mul {
			t = t.Addr()
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		if p.lex.Tok != Ident {
			return nil, p.errf("expected local variable name")
		}
		sym := p.lex.IdSym
		if err := p.next(); err != nil {
			return nil, err
		}
		t, etype, err := p.parseArrayDims(t, 0)
		if err != nil {
			return nil, err
		}
		size := p.globalSizeOf(t, etype)
		size = align4(size)
		p.localDepth += size
		offset := -p.localDepth
		p.syms.DeclareLocal(sym, Loc, t, offset, etype)

		if p.lex.Tok == Assign {
			if err := p.next(); err != nil {
				return nil, err
			}
			rhs, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			rhs, err = p.coerceAssign(t, rhs)
			if err != nil {
				return nil, err
			}
			addrN, err := p.newNode(Loc)
			if err != nil {
				return nil, err
			}
			addrN.IntVal, addrN.Type, addrN.Sym = offset, t, sym
			assignN, err := p.newNode(Assign)
			if err != nil {
				return nil, err
			}
			assignN.A, assignN.B, assignN.Type = addrN, rhs, t
			stmts = append(stmts, assignN)
		}

		if p.lex.Tok == Comma {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return stmts, p.expect(Semi)
}

func align4(n int) int { return (n + 3) &^ 3 }

// parseStatement parses one statement.
func (p *Parser) parseStatement() (*Node, error) {
	switch p.lex.Tok {
	case LBrace:
		return p.parseBlock()
	case If:
		return p.parseIf()
	case While:
		return p.parseWhile()
	case DoWhile:
		return p.parseDoWhile()
	case For:
		return p.parseFor()
	case Switch:
		return p.parseSwitch()
	case Case:
		return p.parseCase()
	case Default:
		return p.parseDefault()
	case Break:
		return p.parseBreak()
	case Continue:
		return p.parseContinue()
	case Return:
		return p.parseReturn()
	case Goto:
		return p.parseGoto()
	case Semi:
		n, err := p.newNode(Begin)
		if err != nil {
			return nil, err
		}
		return n, p.next()
	case Ident:
		if p.isLabelDecl() {
			return p.parseLabel()
		}
		fallthrough
	default:
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		return e, p.expect(Semi)
	}
}

// isLabelDecl peeks whether the current identifier is "name:" — a label
// definition — without consuming tokens on a false result by restricting
// the lookahead to the lexer's token stream (a colon can only follow a
// bare identifier used as a label or the '?:' operator's middle, and ':'
// never legally starts a fresh statement otherwise).
func (p *Parser) isLabelDecl() bool {
	return p.lex.Tok == Ident && p.lex.peekIsColon()
}

func (p *Parser) parseLabel() (*Node, error) {
	sym := p.lex.IdSym
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(Colon); err != nil {
		return nil, err
	}
	n, err := p.newNode(Label)
	if err != nil {
		return nil, err
	}
	n.Sym = sym
	if sym.LabelDefd {
		return nil, &CompileError{Kind: ErrSemantic, Line: n.Line, Message: "duplicate label: " + sym.Name}
	}
	sym.LabelDefd = true
	return n, nil
}

func (p *Parser) parseGoto() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.lex.Tok != Ident {
		return nil, p.errf("expected label name after goto")
	}
	sym := p.lex.IdSym
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.newNode(Goto)
	if err != nil {
		return nil, err
	}
	n.Sym = sym
	return n, p.expect(Semi)
}

func (p *Parser) parseIf() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	n, err := p.newNode(If)
	if err != nil {
		return nil, err
	}
	n.A, n.B = cond, then
	if p.lex.Tok == Else {
		if err := p.next(); err != nil {
			return nil, err
		}
		els, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		n.C = els
	}
	return n, nil
}

func (p *Parser) parseWhile() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	n, err := p.newNode(While)
	if err != nil {
		return nil, err
	}
	p.breakTargets = append(p.breakTargets, &patchList{})
	p.continueTargets = append(p.continueTargets, &patchList{})
	body, err := p.parseStatement()
	p.breakTargets = p.breakTargets[:len(p.breakTargets)-1]
	p.continueTargets = p.continueTargets[:len(p.continueTargets)-1]
	if err != nil {
		return nil, err
	}
	n.A, n.B = cond, body
	return n, nil
}

func (p *Parser) parseDoWhile() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	p.breakTargets = append(p.breakTargets, &patchList{})
	p.continueTargets = append(p.continueTargets, &patchList{})
	body, err := p.parseStatement()
	p.breakTargets = p.breakTargets[:len(p.breakTargets)-1]
	p.continueTargets = p.continueTargets[:len(p.continueTargets)-1]
	if err != nil {
		return nil, err
	}
	if err := p.expect(While); err != nil {
		return nil, err
	}
	if err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	n, err := p.newNode(DoWhile)
	if err != nil {
		return nil, err
	}
	n.A, n.B = cond, body
	return n, p.expect(Semi)
}

func (p *Parser) parseFor() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(LParen); err != nil {
		return nil, err
	}
	n, err := p.newNode(For)
	if err != nil {
		return nil, err
	}
	if p.lex.Tok != Semi {
		n.A, err = p.ParseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(Semi); err != nil {
		return nil, err
	}
	if p.lex.Tok != Semi {
		n.B, err = p.ParseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(Semi); err != nil {
		return nil, err
	}
	if p.lex.Tok != RParen {
		n.C, err = p.ParseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	p.breakTargets = append(p.breakTargets, &patchList{})
	p.continueTargets = append(p.continueTargets, &patchList{})
	n.D, err = p.parseStatement()
	p.breakTargets = p.breakTargets[:len(p.breakTargets)-1]
	p.continueTargets = p.continueTargets[:len(p.continueTargets)-1]
	return n, err
}

func (p *Parser) parseSwitch() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	n, err := p.newNode(Switch)
	if err != nil {
		return nil, err
	}
	p.breakTargets = append(p.breakTargets, &patchList{})
	p.switchStack = append(p.switchStack, &switchCtx{})
	body, err := p.parseStatement()
	p.breakTargets = p.breakTargets[:len(p.breakTargets)-1]
	p.switchStack = p.switchStack[:len(p.switchStack)-1]
	if err != nil {
		return nil, err
	}
	n.A, n.B = cond, body
	return n, nil
}

func (p *Parser) parseCase() (*Node, error) {
	if len(p.switchStack) == 0 {
		return nil, p.errf("case outside switch")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	v, err := p.evalConstIntExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(Colon); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	n, err := p.newNode(Case)
	if err != nil {
		return nil, err
	}
	valN, _ := p.newNode(Num)
	valN.IntVal, valN.Type = v, TyInt
	n.A, n.B = valN, body
	ctx := p.switchStack[len(p.switchStack)-1]
	ctx.cases = append(ctx.cases, n)
	return n, nil
}

func (p *Parser) parseDefault() (*Node, error) {
	if len(p.switchStack) == 0 {
		return nil, p.errf("default outside switch")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(Colon); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	n, err := p.newNode(Case)
	if err != nil {
		return nil, err
	}
	n.B = body
	ctx := p.switchStack[len(p.switchStack)-1]
	if ctx.defNode != nil {
		return nil, p.errf("multiple default labels in switch")
	}
	ctx.defNode = n
	return n, nil
}

func (p *Parser) parseBreak() (*Node, error) {
	if len(p.breakTargets) == 0 {
		return nil, p.errf("break outside loop or switch")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.newNode(Break)
	if err != nil {
		return nil, err
	}
	return n, p.expect(Semi)
}

func (p *Parser) parseContinue() (*Node, error) {
	if len(p.continueTargets) == 0 {
		return nil, p.errf("continue outside loop")
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.newNode(Continue)
	if err != nil {
		return nil, err
	}
	return n, p.expect(Semi)
}

func (p *Parser) parseReturn() (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.newNode(Return)
	if err != nil {
		return nil, err
	}
	if p.lex.Tok != Semi {
		v, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		v, err = p.coerceAssign(p.curRetType, v)
		if err != nil {
			return nil, err
		}
		n.A = v
	}
	return n, p.expect(Semi)
}
