package cc

// peekIsColon reports whether the next non-whitespace byte after the
// current lexer position is ':'. Used only to disambiguate a label
// definition ("name:") from an expression-statement at the start of a
// statement, where a bare colon can't otherwise appear.
func (l *Lexer) peekIsColon() bool {
	i := l.pos
	for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t' || l.src[i] == '\r') {
		i++
	}
	return i < len(l.src) && l.src[i] == ':'
}
