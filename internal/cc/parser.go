package cc

import "fmt"

// Parser drives a single-pass statement/expression parse: it consumes
// tokens from the Lexer, builds AST nodes into the Arena, performs
// constant folding and type checking inline, and
// leaves behind a fully resolved set of Symbols (globals, functions) ready
// for the code generator. One Parser instance compiles one translation
// unit; its Context (cc.go) owns its lifetime.
type Parser struct {
	lex     *Lexer
	syms    *SymTab
	types   *TypeTable
	members *MemberTable
	arena   *Arena
	data    *DataSegment
	host    *HostDirectory
	tracker *AllocTracker
	warnings *[]Warning

	// current function context
	curRetType Type
	curIsVoid  bool
	localDepth int // negative bp-relative offset counter, grows downward
	paramDepth int // positive bp-relative offset counter, grows upward
	shadowMark int

	// per-function control-flow bookkeeping
	breakTargets    []*patchList
	continueTargets []*patchList
	switchStack     []*switchCtx

	// cross-function forward-declaration bookkeeping lives on the Symbol
	// itself (ForwardPC) so it survives across top-level declarations.
	unresolvedLabels map[string]*Symbol // labels referenced-but-undefined within the current function

	funcs   []*Symbol // function symbols in declaration order, for codegen
	globals []*Symbol

	MaxLocalBytes int
}

// patchList marks one level of loop/switch nesting on the parser's
// breakTargets/continueTargets stacks; its nodes list is not filled in.
// The data model's "Patch lists" live in codegen.go instead, which collects
// the jump sites of break/continue (loopCtx) and goto itself and rewrites
// their target words once the destination address is known.
type patchList struct {
	nodes []*Node
}

type switchCtx struct {
	cases   []*Node // Case nodes, in source order
	defNode *Node
}

func NewParser(src []byte, syms *SymTab, types *TypeTable, members *MemberTable,
	arena *Arena, data *DataSegment, host *HostDirectory, tracker *AllocTracker, warnings *[]Warning) *Parser {
	p := &Parser{
		syms: syms, types: types, members: members, arena: arena,
		data: data, host: host, tracker: tracker, warnings: warnings,
	}
	p.lex = NewLexer(src, syms, data, warnings)
	for _, fn := range host.All() {
		sym := syms.Lookup(fn.Name)
		sym.Class = Syscall
		sym.Type = TyInt
		if fn.RetFloat {
			sym.Type = TyFloat
		}
	}
	return p
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return &CompileError{
		Kind:       ErrSyntax,
		Line:       p.lex.TokLine,
		SourceLine: p.lex.CurrentSourceLine(),
		Message:    fmt.Sprintf(format, args...),
	}
}

func (p *Parser) next() error { return p.lex.Next() }

func (p *Parser) expect(k Kind) error {
	if p.lex.Tok != k {
		return p.errf("expected %s, got %s", k, p.lex.Tok)
	}
	return p.next()
}

func (p *Parser) newNode(kind Kind) (*Node, error) {
	n, err := p.arena.New(kind)
	if err != nil {
		return nil, err
	}
	n.Line = p.lex.TokLine
	return n, nil
}

// Parse runs the whole translation unit: keyword/symbol-table bootstrap
// (done by the caller via syms.InsertKeywords before NewParser), then the
// top-level declaration loop, then the unresolved-forward-function check
// (data model invariant (4)).
func (p *Parser) Parse() error {
	if err := p.next(); err != nil {
		return err
	}
	for p.lex.Tok != EOF {
		if err := p.parseGlobalDecl(); err != nil {
			return err
		}
	}
	for _, fn := range p.funcs {
		if !fn.Defined {
			return &CompileError{Kind: ErrSemantic, Message: "undefined function: " + fn.Name}
		}
	}
	return nil
}
