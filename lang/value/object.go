package value

import (
	"fmt"
	"io"
)

// object is the common header every heap-allocated value carries: a type
// tag, a "next" link reserved for a future sweep, and a mark byte reserved
// for a future trace. Neither field is read by this port today; they exist
// so that a future mark-sweep collector can be added without changing the
// shape of the heap objects (spec §3 Heap objects, §9 redesign notes).
type object struct {
	next   Value
	marked bool
}

// String is the heap string object. It owns its bytes; length is
// authoritative (spec: "buffer is NUL-terminated by convention but length is
// authoritative"), though in Go the byte slice is already length-prefixed and
// no terminator is stored.
type String struct {
	object
	Bytes []byte
}

// NewString allocates a new heap String copying s.
func NewString(s string) *String {
	return &String{Bytes: []byte(s)}
}

func (*String) Type() Type       { return STRING }
func (s *String) String() string { return string(s.Bytes) }

// Go returns the string as a native Go string.
func (s *String) Go() string { return string(s.Bytes) }

// Function is the heap function object: a name, an arity, and a Chunk.
// Funcode-level details (locals, scope) live in the compiler; by the time a
// Function is constructed for the machine only the compiled artifact
// remains.
type Function struct {
	object
	Name  string
	Arity int
	Chunk *Chunk
}

func (*Function) Type() Type { return FUNCTION }
func (f *Function) String() string {
	return fmt.Sprintf("function(%s)", f.Name)
}

// HostFunc is the Go signature a CFUNCTION implements. It receives the
// calling host/VM context via the opaque Host interface (implemented by
// lang/machine.Thread; lang/embed.State exposes it through State.Host) and
// the argument count pushed by CALL. On success it pushes its result: the VM
// takes the top of the stack as the result and collapses the stack back to
// the callee's slot holding it. On failure it returns a non-nil error and
// the VM aborts without inspecting the stack.
type HostFunc func(host Host, argc int) error

// Host is the minimal stack-manipulation surface a CFUNCTION needs. It is
// implemented by the machine's Thread so that lang/value does not depend on
// lang/machine.
type Host interface {
	Push(Value)
	Pop() Value
	Peek(offset int) Value

	// Stdout and Stdin back the io standard-library table's print/input
	// (original_source/src/stdlib/io.c's io_print/io_input), so that a
	// CFUNCTION never reaches for os.Stdout/os.Stdin directly and instead
	// respects whatever streams the embedding host configured on its Thread.
	Stdout() io.Writer
	Stdin() io.Reader
}

// CFunction is a host-provided native callable registered with the state and
// invoked by CALL like a scripted function (spec §9: "CFUNCTION stored in
// the object pointer slot is an abuse... reimplement with a dedicated
// payload variant").
type CFunction struct {
	object
	Name string
	Fn   HostFunc
}

func (*CFunction) Type() Type       { return CFUNCTION }
func (c *CFunction) String() string { return fmt.Sprintf("cfunction(%s)", c.Name) }
