// Package maincmd implements the que command-line driver: argument parsing
// and command dispatch, grounded on mna/nenuphar's internal/maincmd (same
// mna/mainer-based reflective command dispatch, same Help/Version flag
// handling), adapted to spec §6's single embeddable-interpreter surface
// instead of a multi-phase AST pipeline.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "que"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter for the %[1]s programming language.

The <command> can be one of:
       run                       Compile and execute a %[1]s source file.
       tokenize                  Run the lexer phase only and print the
                                 resulting tokens.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd holds the parsed command-line flags and dispatches to the matching
// command method, exactly like nenuphar's Cmd (see buildCmds).
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)            { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool)   { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	if (cmdName == "run" || cmdName == "tokenize") && len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: a source file must be provided", cmdName)
	}
	return nil
}

// Exit codes per spec §6: 0 success, 75 I/O/load failure, -10 usage/init
// failure, negative otherwise propagated from the VM.
const (
	exitSuccess       mainer.ExitCode = 0
	exitLoadFailure   mainer.ExitCode = 75
	exitUsageFailure  mainer.ExitCode = -10
	exitRuntimeFailure mainer.ExitCode = -1
)

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsageFailure
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitSuccess
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	err := c.cmdFn(ctx, stdio, c.args[1:])
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errLoadFailure):
		return exitLoadFailure
	default:
		return exitRuntimeFailure
	}
}

// valid commands are those that take a mainer.Stdio and a slice of strings
// as input, and return an error as output (identical dispatch convention to
// nenuphar's buildCmds).
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
