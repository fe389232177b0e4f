package machine

import "github.com/quelang/que/lang/value"

// frame is one activation record on the call stack. Unlike the reference's
// Que_Frame, which stores a raw pointer into the shared value stack, frame
// stores base, the index of its slot 0 within Thread.stack, since Go slices
// of an array that may be reallocated are less safe to alias long-term than
// a plain index.
//
// slot 0 of every frame holds the callee itself (the Function or CFunction
// value being invoked), exactly as OP_CALL leaves it in
// original_source/src/vm.c ("frame_current->slots = stack_top - args - 1");
// parameters occupy slots 1..argc. The top-level frame's slot 0 is unused.
type frame struct {
	fn   *value.Function
	ip   int
	base int
}
