package cc

// Kind is the single discriminant used for lexical tokens, symbol classes,
// and AST node tags alike. The original compiler this package is modeled on
// reuses one C enum for all three roles — an operator token produced by the
// lexer is the very same value stored as an AST node's tag and, for a
// syscall-bound identifier, as a symbol's class. Keeping that in one Go type
// instead of three keeps the "reusing token values for operators" invariant
// from the data model honest instead of re-deriving it at every boundary.
type Kind int

const (
	EOF Kind = iota
	Ident
	Num   // integer literal token, and the AST leaf node tag for one
	NumF  // float literal token (IEEE-754 bit pattern in FVal), and its node tag
	Str   // string literal token (already interned into the data segment)

	LParen
	RParen
	LBrace
	RBrace
	LBrack
	RBrack
	Comma
	Semi
	BNot // '~'
	Not  // '!' (only reachable here; "!=" lexes directly to Ne)
	Colon

	// From here on the values are >=128 in the original compiler so they
	// never collide with single-character ASCII tokens; that collision
	// concern doesn't apply to a Go iota, but the grouping is kept for
	// fidelity: these are the identifiers the data model names explicitly.
	Func
	Syscall
	Main
	Glo
	Par
	Loc
	Keyword
	Id
	Load
	Enter
	Begin // block of statements; not in the original enum, added for the AST

	Enum
	Char
	Int
	Float
	Struct
	Union
	Sizeof
	Return
	Goto
	Break
	Continue
	If
	DoWhile // the "do" keyword, and the do-while AST node tag
	While   // the "while" keyword, and the while/do-while AST node tag
	For
	Switch
	Case
	Default
	Else
	Label

	Assign
	OrAssign
	XorAssign
	AndAssign
	ShlAssign
	ShrAssign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	Cond
	Lor
	Lan
	Or
	Xor
	And
	Eq
	Ne
	Ge
	Lt
	Gt
	Le
	Shl
	Shr
	Add
	Sub
	Mul
	Div
	Mod
	AddF
	SubF
	MulF
	DivF
	EqF
	NeF
	GeF
	LtF
	GtF
	LeF
	CastF
	Inc
	Dec
	Dot
	Arrow
	Bracket
)

var kindNames = map[Kind]string{
	EOF: "EOF", Ident: "ident", Num: "num", NumF: "numf", Str: "str",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBrack: "[", RBrack: "]",
	Comma: ",", Semi: ";", BNot: "~", Not: "!", Colon: ":",
	Func: "func", Syscall: "syscall", Main: "main", Glo: "glo", Par: "par",
	Loc: "loc", Keyword: "keyword", Id: "id", Load: "load", Enter: "enter", Begin: "begin",
	Enum: "enum", Char: "char", Int: "int", Float: "float", Struct: "struct",
	Union: "union", Sizeof: "sizeof", Return: "return", Goto: "goto",
	Break: "break", Continue: "continue", If: "if", DoWhile: "do", While: "while",
	For: "for", Switch: "switch", Case: "case", Default: "default", Else: "else",
	Label: "label",
	Assign: "=", OrAssign: "|=", XorAssign: "^=", AndAssign: "&=",
	ShlAssign: "<<=", ShrAssign: ">>=", AddAssign: "+=", SubAssign: "-=",
	MulAssign: "*=", DivAssign: "/=", ModAssign: "%=", Cond: "?",
	Lor: "||", Lan: "&&", Or: "|", Xor: "^", And: "&",
	Eq: "==", Ne: "!=", Ge: ">=", Lt: "<", Gt: ">", Le: "<=",
	Shl: "<<", Shr: ">>", Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%",
	AddF: "+.", SubF: "-.", MulF: "*.", DivF: "/.",
	EqF: "==.", NeF: "!=.", GeF: ">=.", LtF: "<.", GtF: ">.", LeF: "<=.",
	CastF: "(cast)", Inc: "++", Dec: "--", Dot: ".", Arrow: "->", Bracket: "[]",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

// keywordNames is the fixed insertion order the symbol table seeds keyword
// entries in: "enum char int float struct union sizeof return goto break
// continue if do while for switch case default else void main". void is
// folded onto the same Char token as the char type (both are one byte wide),
// and main gets its own dedicated class instead of a Keyword class.
var keywordNames = []struct {
	name string
	kind Kind
}{
	{"enum", Enum}, {"char", Char}, {"int", Int}, {"float", Float},
	{"struct", Struct}, {"union", Union}, {"sizeof", Sizeof},
	{"return", Return}, {"goto", Goto}, {"break", Break}, {"continue", Continue},
	{"if", If}, {"do", DoWhile}, {"while", While}, {"for", For},
	{"switch", Switch}, {"case", Case}, {"default", Default}, {"else", Else},
	{"void", Char},
}
