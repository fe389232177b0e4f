// Package machine implements the stack-based bytecode virtual machine that
// executes a compiled Function: the operand/frame stacks, the opcode
// dispatch loop, and the Thread type that owns both plus the global table
// and the host's I/O streams. Its Thread type and initialisation pattern are
// adapted from mna/nenuphar's lang/machine.Thread (MaxSteps/cancellation,
// Stdout/Stderr/Stdin defaulting, one-shot init), trimmed of the closure
// cell/iterator/defer machinery Que does not have.
package machine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/quelang/que/lang/value"
)

const (
	// stackCapacity is the fixed size of the operand stack (spec §3: "stack
	// capacity 65536 values").
	stackCapacity = 1 << 16
	// frameCapacity is the fixed depth of the call-frame stack (spec §3:
	// "frame capacity 256").
	frameCapacity = 256
)

// Thread owns one bytecode execution: its operand and frame stacks, its
// globals table, and its I/O streams. A Thread executes at most one program;
// construct a new Thread per Run.
type Thread struct {
	// Name optionally identifies the thread for diagnostics.
	Name string

	// StdoutWriter, StderrWriter and StdinReader back the io standard-library
	// print/input builtins (spec §12). If nil, os.Stdout/os.Stderr/os.Stdin
	// are used. Named distinctly from the Stdout()/Stdin() Host methods
	// below, since Go does not allow a field and a method to share a name.
	StdoutWriter io.Writer
	StderrWriter io.Writer
	StdinReader  io.Reader

	// MaxSteps bounds the number of opcode dispatches before the thread is
	// cancelled, mirroring nenuphar's Thread.MaxSteps. A value <= 0 means no
	// limit.
	MaxSteps int

	// Globals is the table backing DEFINE_GLOBAL/GET_GLOBAL/SET_GLOBAL. It is
	// created empty by NewThread; callers embedding the language install
	// standard-library tables into it before Run.
	Globals *value.Table

	ctx       context.Context
	ctxCancel func()
	cancelled atomic.Bool

	steps, maxSteps uint64

	stack  [stackCapacity]value.Value
	sp     int
	frames [frameCapacity]frame
	nf     int

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// NewThread returns a Thread with an empty Globals table, ready for Run.
func NewThread() *Thread {
	return &Thread{Globals: value.NewTable()}
}

func (th *Thread) init(ctx context.Context) {
	if th.MaxSteps <= 0 {
		th.maxSteps-- // wraps to math.MaxUint64
	} else {
		th.maxSteps = uint64(th.MaxSteps)
	}
	if th.StdoutWriter != nil {
		th.stdout = th.StdoutWriter
	} else {
		th.stdout = os.Stdout
	}
	if th.StderrWriter != nil {
		th.stderr = th.StderrWriter
	} else {
		th.stderr = os.Stderr
	}
	if th.StdinReader != nil {
		th.stdin = th.StdinReader
	} else {
		th.stdin = os.Stdin
	}
	if th.Globals == nil {
		th.Globals = value.NewTable()
	}

	th.ctx, th.ctxCancel = context.WithCancel(ctx)
	go func() {
		<-th.ctx.Done()
		th.cancelled.Store(true)
	}()
}

func (th *Thread) reportf(format string, args ...interface{}) {
	fmt.Fprintf(th.stderr, "[!] "+format+"\n", args...)
}

// Push implements value.Host, used by CFUNCTION callbacks to return values.
func (th *Thread) Push(v value.Value) {
	if th.sp >= stackCapacity {
		panic("machine: value stack overflow")
	}
	th.stack[th.sp] = v
	th.sp++
}

// Pop implements value.Host.
func (th *Thread) Pop() value.Value {
	th.sp--
	v := th.stack[th.sp]
	th.stack[th.sp] = nil
	return v
}

// Peek implements value.Host: offset 0 is the top of the stack, 1 the value
// below it, and so on. Offsets are non-negative; a negative offset is not
// accepted and reads past the top of the stack.
func (th *Thread) Peek(offset int) value.Value {
	return th.stack[th.sp-1-offset]
}

// Stdout implements value.Host.
func (th *Thread) Stdout() io.Writer { return th.stdout }

// Stdin implements value.Host.
func (th *Thread) Stdin() io.Reader { return th.stdin }

// Run executes fn as the program's top-level function to completion. Run
// halts at the top-level RETURN the compiler always appends (spec §4.2), or
// at the first runtime error, whichever comes first.
func (th *Thread) Run(ctx context.Context, fn *value.Function) error {
	if th.ctx != nil {
		return fmt.Errorf("thread %s has already run a program", th.Name)
	}
	th.init(ctx)
	defer th.ctxCancel()

	th.stack[0] = fn
	th.sp = 1
	th.frames[0] = frame{fn: fn, ip: 0, base: 0}
	th.nf = 1

	return th.execute()
}
