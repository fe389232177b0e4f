// Package embed is the host-facing embedding surface for Que: a State type
// that compiles and runs source text, plus the push/pop/peek-by-offset,
// type-query and global-table accessors that mirror the C API of
// original_source/include/que/state.h (Que_NewState, Que_ExecuteString,
// Que_Push*, Que_Is*, Que_As*, Que_Set/GetGlobal, Que_LoadTable).
package embed

import (
	"context"

	"github.com/quelang/que/lang/compiler"
	"github.com/quelang/que/lang/machine"
	"github.com/quelang/que/lang/value"
)

// defaultMaxRecursion mirrors the reference's default max_recursion used by
// Que_NewState (as opposed to Que_NewStateEx, which lets the host tune it).
const defaultMaxRecursion = 256

// State is one embeddable Que interpreter instance. Unlike the reference's
// Que_State, which is reused across multiple Que_ExecuteString calls, a
// State here is good for exactly one ExecuteString call, since lang/machine
// .Thread enforces single-use (see Thread.Run); New/NewWithLimits return a
// State ready for its one run.
type State struct {
	thread *machine.Thread
}

// New returns a State with default stack and recursion limits.
func New() *State {
	return NewWithLimits(0, defaultMaxRecursion)
}

// NewWithLimits returns a State with an explicit MaxSteps bound (0 means
// unbounded) and maximum call-stack depth, corresponding to
// Que_NewStateEx(stack_size, max_recursion). maxRecursion is accepted for API
// symmetry with the reference and is ignored: lang/machine.Thread enforces
// its fixed frame capacity (frameCapacity, 256) rather than a configurable one.
func NewWithLimits(maxSteps, maxRecursion int) *State {
	th := machine.NewThread()
	th.MaxSteps = maxSteps
	return &State{thread: th}
}

// ExecuteString compiles and runs src as a Que program, returning any
// compile or runtime error. It corresponds to Que_ExecuteString.
func (s *State) ExecuteString(src, filename string) error {
	fn, err := compiler.Compile([]byte(src), filename)
	if err != nil {
		return err
	}
	return s.thread.Run(context.Background(), fn)
}

// GetType returns the dynamic type of the value at offset, where offset 0 is
// the top of the stack and 1 the value below it. Offsets are non-negative:
// the reference's -1 is 0 here, and negative offsets are not accepted.
func (s *State) GetType(offset int) value.Type {
	return s.thread.Peek(offset).Type()
}

func (s *State) IsNil(offset int) bool       { return s.GetType(offset) == value.NIL }
func (s *State) IsChar(offset int) bool      { return s.GetType(offset) == value.CHAR }
func (s *State) IsBool(offset int) bool      { return s.GetType(offset) == value.BOOL }
func (s *State) IsInt(offset int) bool       { return s.GetType(offset) == value.INT }
func (s *State) IsFloat(offset int) bool     { return s.GetType(offset) == value.FLOAT }
func (s *State) IsString(offset int) bool    { return s.GetType(offset) == value.STRING }
func (s *State) IsTable(offset int) bool     { return s.GetType(offset) == value.TABLE }
func (s *State) IsFunction(offset int) bool  { return s.GetType(offset) == value.FUNCTION }
func (s *State) IsCFunction(offset int) bool { return s.GetType(offset) == value.CFUNCTION }

// AsChar reads the value at offset as a Char, reporting success.
func (s *State) AsChar(offset int) (byte, bool) {
	c, ok := s.thread.Peek(offset).(value.Char)
	return byte(c), ok
}

// AsInt reads the value at offset as an Int, reporting success.
func (s *State) AsInt(offset int) (int64, bool) {
	i, ok := s.thread.Peek(offset).(value.Int)
	return int64(i), ok
}

// AsFloat reads the value at offset as a Float, reporting success.
func (s *State) AsFloat(offset int) (float64, bool) {
	f, ok := s.thread.Peek(offset).(value.Float)
	return float64(f), ok
}

// AsString reads the value at offset as a String, reporting success.
func (s *State) AsString(offset int) (string, bool) {
	str, ok := s.thread.Peek(offset).(*value.String)
	if !ok {
		return "", false
	}
	return str.Go(), true
}

func (s *State) PushNil()               { s.thread.Push(value.Nil{}) }
func (s *State) PushChar(c byte)        { s.thread.Push(value.Char(c)) }
func (s *State) PushBool(b bool)        { s.thread.Push(value.Bool(b)) }
func (s *State) PushInt(i int64)        { s.thread.Push(value.Int(i)) }
func (s *State) PushFloat(f float64)    { s.thread.Push(value.Float(f)) }
func (s *State) PushString(str string)  { s.thread.Push(value.NewString(str)) }

// PushCFunction pushes a host-implemented callable, corresponding to
// Que_PushCFunction.
func (s *State) PushCFunction(name string, fn value.HostFunc) {
	s.thread.Push(&value.CFunction{Name: name, Fn: fn})
}

// Pop removes and discards the top of the stack, corresponding to
// Que_PopValue (the reference returns the popped value by pointer; Go's
// value-typed model makes that unnecessary for most callers, who use
// As*/Is*/GetType to inspect the top before popping it).
func (s *State) Pop() {
	s.thread.Pop()
}

// SetGlobal binds the value at offset to name in the globals table,
// corresponding to Que_SetGlobal.
func (s *State) SetGlobal(offset int, name string) {
	s.thread.Globals.InsertString(name, s.thread.Peek(offset))
}

// GetGlobal pushes the value bound to name, reporting whether it exists.
// Corresponds to Que_GetGlobal, which returns a boolean-ish int instead of a
// Value; GetGlobal mirrors that by reporting success via the bool return and
// leaving the stack untouched on failure.
func (s *State) GetGlobal(name string) bool {
	v, ok := s.thread.Globals.GetString(name)
	if !ok {
		return false
	}
	s.thread.Push(v)
	return true
}

// LoadTable installs table as a global named name, corresponding to
// Que_LoadTable. Standard-library packages (lang/stdlib/io) use this to
// register themselves on a State.
func (s *State) LoadTable(table *value.Table, name string) {
	s.thread.Globals.InsertString(name, table)
}

// OpenLibrary is a convenience wrapper calling a library's Open function and
// installing the resulting table, so that host code can write
// embed.New().OpenLibrary("io", io.Open) instead of constructing the table
// itself.
func (s *State) OpenLibrary(name string, open func() *value.Table) {
	s.LoadTable(open(), name)
}

// Host exposes the underlying Thread's stack so a registered CFunction can
// read its arguments and push a result, implementing value.Host.
func (s *State) Host() value.Host { return s.thread }
