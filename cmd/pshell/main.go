// Command pshell is the CLI entry point: "pshell file.c" compiles and runs
// one C source file and exits; "pshell" with no file argument
// drops into the interactive shell over an in-memory flash filesystem, the
// same two modes original_source/src/main.c exposes.
package main

import (
	"os"

	"j5.nz/rtg/internal/cc"
	"j5.nz/rtg/internal/hostfs"
	"j5.nz/rtg/internal/lineedit"
	"j5.nz/rtg/internal/shell"
	"j5.nz/rtg/internal/term"
)

const (
	flashBlockSize  = 4096
	flashBlockCount = 256 // 1MiB simulated flash
)

func main() {
	env := &cc.HostEnv{
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
		Periph: cc.NewSimPeripherals(),
	}

	hasFileArg := false
	for _, a := range os.Args[1:] {
		if len(a) > 0 && a[0] != '-' {
			hasFileArg = true
			break
		}
	}

	dev := hostfs.NewMemDevice(flashBlockSize, flashBlockCount)
	fs := hostfs.NewBlockFS(dev)
	env.FS = fs

	if hasFileArg {
		os.Exit(cc.CompileAndRun(os.Args[1:], env))
	}

	os.Exit(runInteractive(fs, env))
}

func runInteractive(fs *hostfs.BlockFS, env *cc.HostEnv) int {
	ed, err := lineedit.New(lineedit.Config{
		Prompt: "pshell> ",
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	})
	if err != nil {
		os.Stderr.WriteString("pshell: " + err.Error() + "\n")
		return 1
	}
	defer ed.Close()

	sh := shell.New(fs, env)
	sh.Term = term.New(os.Stdin, os.Stdout)
	for {
		line, err := ed.ReadLine()
		if err != nil {
			break
		}
		if err := sh.Dispatch(line); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
		}
	}
	return 0
}
