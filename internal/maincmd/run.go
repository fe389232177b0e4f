package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/quelang/que/lang/compiler"
	"github.com/quelang/que/lang/machine"
	"github.com/quelang/que/lang/stdlib/io"
)

// errLoadFailure wraps a failure to read or compile the source file, which
// Main maps to exit code 75 (spec §6: "75 I/O/load failure").
var errLoadFailure = errors.New("load failure")

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFile(ctx, stdio, args[0])
}

// RunFile reads, compiles and executes the Que program at path, writing
// compile diagnostics prefixed "<filename>:<line>:<col>: " and runtime
// diagnostics prefixed "[!] " to stdio.Stderr (spec §6).
func RunFile(ctx context.Context, stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return fmt.Errorf("%w: %v", errLoadFailure, err)
	}

	fn, err := compiler.Compile(src, path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return fmt.Errorf("%w: %v", errLoadFailure, err)
	}

	th := machine.NewThread()
	th.StdoutWriter = stdio.Stdout
	th.StderrWriter = stdio.Stderr
	th.StdinReader = stdio.Stdin
	th.Globals.InsertString("io", io.Open())

	return th.Run(ctx, fn)
}
