package cc

// parseFunctionDecl parses a function's parameter list and then either a
// ';' (prototype only) or a '{' ... '}' body (definition). The current
// token on entry is '('.
func (p *Parser) parseFunctionDecl(retType Type, nameSym *Symbol) error {
	if err := p.next(); err != nil {
		return err
	}

	mark := p.syms.shadowMark()
	var params []*Symbol
	var floatMask uint32
	p.paramDepth = 8 // skip the saved bp (bp+0) and return PC (bp+4) ENT/JSR push
	for p.lex.Tok != RParen {
		if len(params) > 0 {
			if err := p.expect(Comma); err != nil {
				return err
			}
		}
		pt, _, err := p.parseDeclBaseType()
		if err != nil {
			return err
		}
		for p.lex.Tok == Mul {
			pt = pt.Addr()
			if err := p.next(); err != nil {
				return err
			}
		}
		if p.lex.Tok != Ident {
			return p.errf("expected parameter name")
		}
		psym := p.lex.IdSym
		if err := p.next(); err != nil {
			return err
		}
		if len(params) >= ParamCountMax {
			return &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "too many parameters"}
		}
		if pt.IsFloat() {
			floatMask |= 1 << uint(len(params))
		}
		p.syms.DeclareLocal(psym, Par, pt, p.paramDepth, 0)
		p.paramDepth += 4
		params = append(params, psym)
	}
	if err := p.next(); err != nil { // consume ')'
		return err
	}

	floatCount := 0
	for i := 0; i < len(params); i++ {
		if floatMask&(1<<uint(i)) != 0 {
			floatCount++
		}
	}
	etype := EncodeFuncEType(floatMask, floatCount, len(params))

	switch nameSym.Class {
	case EOF, Ident, Main:
		nameSym.Class, nameSym.Type, nameSym.EType, nameSym.Forward = Func, retType, etype, -1
		p.funcs = append(p.funcs, nameSym)
	case Func:
		if nameSym.ParamCount != len(params) || nameSym.Type != retType {
			return &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "conflicting declaration of function: " + nameSym.Name}
		}
	default:
		return &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "redeclared as different kind of symbol: " + nameSym.Name}
	}
	nameSym.ParamCount = len(params)

	if p.lex.Tok == Semi {
		p.syms.RestoreFrom(mark)
		return p.next()
	}

	if nameSym.Defined {
		return &CompileError{Kind: ErrSemantic, Line: p.lex.TokLine, Message: "redefinition of function: " + nameSym.Name}
	}

	p.curRetType = retType
	p.localDepth = 0
	body, err := p.parseBlock()
	if err != nil {
		return err
	}
	nameSym.Body = body
	nameSym.Defined = true
	nameSym.FrameSize = p.localDepth
	p.syms.RestoreFrom(mark)
	return nil
}
