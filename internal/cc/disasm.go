package cc

import (
	"fmt"
	"io"
)

// Disassemble implements the "-s" CLI mode: print every instruction in
// the text segment as "<word-addr>: <MNEMONIC> [imm]", one per line,
// each kept under 80 characters.
func Disassemble(w io.Writer, text *TextSegment) {
	words := text.Words()
	pc := 0
	for pc < len(words) {
		op := Op(words[pc])
		if hasImmediate(op) {
			imm := text.ReadImm(pc)
			fmt.Fprintf(w, "%6d: %-8s %d\n", pc, op.String(), imm)
			pc += 3
		} else {
			fmt.Fprintf(w, "%6d: %s\n", pc, op.String())
			pc++
		}
	}
}
