package cc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"j5.nz/rtg/internal/hostapi"
)

const (
	dataSegmentBound = 1 << 20
	astArenaLimit    = 1 << 16
	textSegmentBound = 1 << 18
)

// Context owns every phase-scoped allocation for one compile: the AST
// arena, data segment, symbol/type/member tables, and the tracked
// allocator the allocator-closure check verifies against.
// One Context compiles (and optionally runs) one translation unit; Close
// releases everything, matching the "single owned context value passed
// into each phase" design note.
type Context struct {
	Syms    *SymTab
	Types   *TypeTable
	Members *MemberTable
	Data    *DataSegment
	Arena   *Arena
	Host    *HostDirectory
	Tracker *AllocTracker

	Warnings []Warning
}

func NewContext(extraHostFns []hostFn) *Context {
	tracker := NewAllocTracker()
	return &Context{
		Syms:    NewSymTab(),
		Types:   NewTypeTable(),
		Members: NewMemberTable(),
		Data:    NewDataSegment(dataSegmentBound),
		Arena:   NewArena(tracker, astArenaLimit),
		Host:    NewHostDirectory(extraHostFns),
		Tracker: tracker,
	}
}

// Close releases the AST arena, the single cleanup point every exit path
// (success or fatal error) runs through.
func (c *Context) Close() {
	c.Arena.Release()
}

// installHostDefines seeds the symbol table with every hostapi.Groups
// constant as a Num symbol, exactly like install_gbls walking cc.c's
// define_grp tables before parsing begins.
func (c *Context) installHostDefines() {
	for _, g := range hostapi.Groups {
		for _, d := range g.Defines {
			s := c.Syms.Lookup(d.Name)
			if s.Class == Keyword || s.Class == Main {
				continue
			}
			s.Class, s.Type, s.Val = Num, TyInt, d.Val
		}
	}
}

// Compile runs the lexer/parser/codegen pipeline over src and returns the
// generated text segment plus the VM's entry word-address (the trampoline
// that calls main and then EXITs).
func (c *Context) Compile(src []byte) (*TextSegment, int, error) {
	mainSym := c.Syms.InsertKeywords()
	c.installHostDefines()
	p := NewParser(src, c.Syms, c.Types, c.Members, c.Arena, c.Data, c.Host, c.Tracker, &c.Warnings)
	if err := p.Parse(); err != nil {
		return nil, 0, err
	}
	mainFunc := c.Syms.Lookup("main")
	if mainFunc.Class != Func || !mainFunc.Defined {
		return nil, 0, &CompileError{Kind: ErrSemantic, Message: "main() is not defined"}
	}
	_ = mainSym

	cg := NewCodeGen(p.funcs, c.Host)
	text, entry, err := cg.Generate(mainFunc)
	// The AST is not needed once code has been generated.
	c.Arena.Release()
	if err != nil {
		return nil, 0, err
	}
	return text, entry, nil
}

// CompileAndRun implements the CLI's compile_and_run(argc, argv): parses
// the flags enumerated there, reads and compiles the named source file
// (appending ".c" if no extension is present), then either disassembles
// (-s) or runs the compiled program to completion on a fresh VM. Returns
// the process exit code (0 on success, non-zero on fatal error).
func CompileAndRun(args []string, env *HostEnv) int {
	var disasmOnly, traceInstr, traceStep bool
	var defines []hostFn
	var defineConsts []struct {
		name string
		val  int
	}
	var sourcePath string

	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-s":
			disasmOnly = true
			i++
		case args[i] == "-t":
			traceInstr = true
			i++
		case args[i] == "-ti":
			traceStep = true
			i++
		case args[i] == "-h":
			printHelp(env, args, i)
			return 0
		case args[i] == "-D" && i+1 < len(args):
			name, val := parseDefine(args[i+1])
			defineConsts = append(defineConsts, struct {
				name string
				val  int
			}{name, val})
			i += 2
		case strings.HasPrefix(args[i], "-"):
			fmt.Fprintf(env.Stderr(), "unrecognized option: %s\n", args[i])
			return 1
		default:
			sourcePath = args[i]
			i++
		}
	}

	if sourcePath == "" {
		fmt.Fprintf(env.Stderr(), "usage: pshell [-s] [-t] [-ti] [-D name[=value]] [-h [lib]] <file.c>\n")
		return 1
	}
	if filepath.Ext(sourcePath) == "" {
		sourcePath += ".c"
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(env.Stderr(), "Error: cannot open %s: %v\n", sourcePath, err)
		return 1
	}
	src = append(src, 0)

	ctx := NewContext(defines)
	defer ctx.Close()
	for _, d := range defineConsts {
		s := ctx.Syms.Lookup(d.name)
		s.Class = Num
		s.Type = TyInt
		s.Val = d.val
	}

	text, entry, err := ctx.Compile(src)
	if err != nil {
		printError(env, err)
		return 1
	}
	for _, w := range ctx.Warnings {
		fmt.Fprintf(env.Stderr(), "%d: warning: %s\n", w.Line, w.Message)
	}

	if !ctx.Tracker.Empty() {
		panic("ICE: allocator not empty at end of compile: " + fmt.Sprint(ctx.Tracker.Outstanding()))
	}

	if disasmOnly {
		Disassemble(env.Stdout, text)
		return 0
	}

	vm := NewVM(text, ctx.Data, ctx.Host, env)
	vm.SetTrace(traceInstr, traceStep)
	code, err := vm.Run(entry)
	if err != nil {
		printError(env, err)
		return 1
	}
	return code
}

func parseDefine(spec string) (string, int) {
	if eq := strings.IndexByte(spec, '='); eq >= 0 {
		v, _ := strconv.Atoi(spec[eq+1:])
		return spec[:eq], v
	}
	return spec, 1
}

func printError(env *HostEnv, err error) {
	switch e := err.(type) {
	case *CompileError:
		fmt.Fprintf(env.Stderr(), "Error: line %d: %s\n", e.Line, e.Message)
		if e.SourceLine != "" {
			fmt.Fprintf(env.Stderr(), "  %s\n", e.SourceLine)
		}
	case *RuntimeError:
		fmt.Fprintf(env.Stderr(), "Error: runtime: %s\n", e.Message)
	default:
		fmt.Fprintf(env.Stderr(), "Error: %s\n", err.Error())
	}
}

func printHelp(env *HostEnv, args []string, idx int) {
	lib := ""
	if idx+1 < len(args) {
		lib = args[idx+1]
	}
	if lib == "" {
		fmt.Fprintln(env.Stdout, "usage: pshell [-s] [-t] [-ti] [-D name[=value]] [-h [lib]] <file.c>")
		return
	}
	fmt.Fprintf(env.Stdout, "library reference: %s\n", lib)
}
