package machine

import (
	"context"
	"fmt"
	"math"

	"github.com/quelang/que/lang/compiler"
	"github.com/quelang/que/lang/value"
)

func (th *Thread) curFrame() *frame { return &th.frames[th.nf-1] }

func (th *Thread) push(v value.Value) { th.Push(v) }
func (th *Thread) pop() value.Value   { return th.Pop() }

// execute runs the opcode dispatch loop until a top-level RETURN or a
// runtime error. It is the Go counterpart of original_source/src/vm.c's
// vm_execute, corrected in three places the reference gets wrong (documented
// at each site below) and extended with the JMP/JUMP_IF_FALSE/comparison
// opcodes the reference never implements (its parser never emits them,
// having stubbed out if/while/return; see compiler.go).
func (th *Thread) execute() error {
	for {
		if th.cancelled.Load() {
			return fmt.Errorf("thread cancelled: %s", context.Cause(th.ctx))
		}
		th.steps++
		if th.steps >= th.maxSteps {
			th.ctxCancel()
			return fmt.Errorf("thread cancelled: step limit exceeded")
		}

		fr := th.curFrame()
		code := fr.fn.Chunk.Code
		op := compiler.Op(code[fr.ip])
		fr.ip++

		switch op {
		case compiler.PUSH:
			addr := value.ReadU16(code, fr.ip)
			fr.ip += 2
			th.push(fr.fn.Chunk.Constants[addr])

		case compiler.PUSH_TRUE:
			th.push(value.Bool(true))
		case compiler.PUSH_FALSE:
			th.push(value.Bool(false))
		case compiler.PUSH_NIL:
			th.push(value.Nil{})
		case compiler.POP:
			th.pop()

		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV, compiler.POW:
			if err := th.arith(op); err != nil {
				return err
			}

		case compiler.NEGATE:
			v := th.pop()
			switch x := v.(type) {
			case value.Int:
				th.push(-x)
			case value.Float:
				th.push(-x)
			default:
				th.reportf("invalid operand '%s' for unary '-'", v.Type())
				return fmt.Errorf("invalid operand for unary '-'")
			}

		case compiler.BAND, compiler.BOR, compiler.BXOR, compiler.LSHIFT, compiler.RSHIFT:
			if err := th.bitwise(op); err != nil {
				return err
			}

		case compiler.BNOT:
			v := th.pop()
			i, ok := v.(value.Int)
			if !ok {
				th.reportf("invalid operand '%s' for unary '~'", v.Type())
				return fmt.Errorf("invalid operand for unary '~'")
			}
			th.push(^i)

		case compiler.AND:
			rhs, lhs := th.pop(), th.pop()
			th.push(value.Bool(value.Truth(lhs) && value.Truth(rhs)))
		case compiler.OR:
			rhs, lhs := th.pop(), th.pop()
			th.push(value.Bool(value.Truth(lhs) || value.Truth(rhs)))
		case compiler.NOT:
			v := th.pop()
			th.push(value.Bool(!value.Truth(v)))

		case compiler.EQ:
			rhs, lhs := th.pop(), th.pop()
			th.push(value.Bool(valuesEqual(lhs, rhs)))

		case compiler.GR, compiler.GREQ, compiler.LE, compiler.LEQ:
			if err := th.compare(op); err != nil {
				return err
			}

		case compiler.DEFINE_GLOBAL:
			addr := value.ReadU16(code, fr.ip)
			fr.ip += 2
			key := fr.fn.Chunk.Constants[addr]
			th.Globals.Insert(key, th.pop())

		case compiler.GET_GLOBAL:
			addr := value.ReadU16(code, fr.ip)
			fr.ip += 2
			key := fr.fn.Chunk.Constants[addr]
			v, ok := th.Globals.Get(key)
			if !ok {
				th.reportf("global variable '%s' does not exist", key)
				return fmt.Errorf("undefined global %s", key)
			}
			th.push(v)

		case compiler.SET_GLOBAL:
			addr := value.ReadU16(code, fr.ip)
			fr.ip += 2
			key := fr.fn.Chunk.Constants[addr]
			v := th.pop()
			if !th.Globals.Set(key, v) {
				th.reportf("assignment to undefined global '%s'", key)
				return fmt.Errorf("assignment to undefined global %s", key)
			}

		case compiler.GET_LOCAL:
			slot := value.ReadU16(code, fr.ip)
			fr.ip += 2
			th.push(th.stack[fr.base+int(slot)])

		case compiler.SET_LOCAL:
			slot := value.ReadU16(code, fr.ip)
			fr.ip += 2
			th.stack[fr.base+int(slot)] = th.pop()

		case compiler.TABLE_GET:
			key := th.pop()
			tbl := th.pop()
			ks, ok := key.(*value.String)
			if !ok {
				th.reportf("table must be indexed with a string, not '%s'", key.Type())
				return fmt.Errorf("invalid table index type %s", key.Type())
			}
			t, ok := tbl.(*value.Table)
			if !ok {
				th.reportf("cannot index non-table value '%s'", tbl.Type())
				return fmt.Errorf("cannot index non-table value %s", tbl.Type())
			}
			if v, ok := t.Get(ks); ok {
				th.push(v)
			} else {
				th.push(value.Nil{})
			}

		case compiler.JMP:
			target := value.ReadU16(code, fr.ip)
			fr.ip = int(target)

		case compiler.JUMP_IF_FALSE:
			target := value.ReadU16(code, fr.ip)
			fr.ip += 2
			if !value.Truth(th.pop()) {
				fr.ip = int(target)
			}

		case compiler.CALL:
			argc := int(value.ReadU16(code, fr.ip))
			fr.ip += 2
			if err := th.call(argc); err != nil {
				return err
			}

		case compiler.RETURN:
			if th.nf == 1 {
				// Top-level RETURN: the script has no caller to return a value
				// to (spec §4.2: Compile always appends a bare RETURN here).
				return nil
			}
			retval := th.pop()
			callee := th.curFrame().base
			th.sp = callee
			th.push(retval)
			th.nf--

		case compiler.HALT:
			return nil

		default:
			th.reportf("unknown opcode %d", op)
			return fmt.Errorf("unknown opcode %d", op)
		}
	}
}

// call dispatches OP_CALL for both FUNCTION and CFUNCTION callees. argc is
// the number of arguments already pushed above the callee on the stack,
// exactly as in original_source/src/vm.c's OP_CALL, corrected to pop the
// actual return value on RETURN rather than reading one element past the
// top of the stack (see RETURN above).
func (th *Thread) call(argc int) error {
	calleeIdx := th.sp - argc - 1
	callee := th.stack[calleeIdx]

	switch c := callee.(type) {
	case *value.Function:
		if th.nf >= frameCapacity {
			th.reportf("call stack overflow")
			return fmt.Errorf("call stack overflow")
		}
		th.frames[th.nf] = frame{fn: c, ip: 0, base: calleeIdx}
		th.nf++
		return nil

	case *value.CFunction:
		if err := c.Fn(th, argc); err != nil {
			th.reportf("%s", err.Error())
			return err
		}
		result := th.stack[th.sp-1]
		th.sp = calleeIdx
		th.push(result)
		return nil

	default:
		th.reportf("value of type '%s' is not callable", callee.Type())
		return fmt.Errorf("value of type %s is not callable", callee.Type())
	}
}

func asArithmetic(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Int:
		return float64(x), true
	case value.Float:
		return float64(x), true
	default:
		return 0, false
	}
}

// arith implements ADD/SUB/MUL/DIV/POW with the reference's INT/INT->INT,
// else FLOAT promotion rule (IS_ARITHMETIC/AS_ARITHMETIC in vm.c), but reads
// both operands instead of reusing lhs twice, which is a bug present in
// every arithmetic case of original_source/src/vm.c (e.g. OP_ADD's `r =
// lhs.value.i;`) that this port deliberately does not reproduce.
func (th *Thread) arith(op compiler.Op) error {
	rhs, lhs := th.pop(), th.pop()

	li, liok := lhs.(value.Int)
	ri, riok := rhs.(value.Int)
	if liok && riok {
		switch op {
		case compiler.ADD:
			th.push(li + ri)
		case compiler.SUB:
			th.push(li - ri)
		case compiler.MUL:
			th.push(li * ri)
		case compiler.DIV:
			if ri == 0 {
				th.reportf("integer division by zero")
				return fmt.Errorf("integer division by zero")
			}
			th.push(li / ri)
		case compiler.POW:
			th.push(value.Int(intPow(int64(li), int64(ri))))
		}
		return nil
	}

	lf, lok := asArithmetic(lhs)
	rf, rok := asArithmetic(rhs)
	if !lok || !rok {
		th.reportf("invalid operands '%s' and '%s' for operator '%s'", lhs.Type(), rhs.Type(), arithSymbol(op))
		return fmt.Errorf("invalid operands for operator %s", arithSymbol(op))
	}
	switch op {
	case compiler.ADD:
		th.push(value.Float(lf + rf))
	case compiler.SUB:
		th.push(value.Float(lf - rf))
	case compiler.MUL:
		th.push(value.Float(lf * rf))
	case compiler.DIV:
		th.push(value.Float(lf / rf))
	case compiler.POW:
		th.push(value.Float(math.Pow(lf, rf)))
	}
	return nil
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func arithSymbol(op compiler.Op) string {
	switch op {
	case compiler.ADD:
		return "+"
	case compiler.SUB:
		return "-"
	case compiler.MUL:
		return "*"
	case compiler.DIV:
		return "/"
	case compiler.POW:
		return "**"
	default:
		return "?"
	}
}

// bitwise implements BAND/BOR/BXOR/LSHIFT/RSHIFT, integer-only (spec §4.3).
// RSHIFT is corrected: original_source/src/vm.c's OP_RSHIFT computes `l & r`
// instead of `l >> r`, which this port does not reproduce.
func (th *Thread) bitwise(op compiler.Op) error {
	rhs, lhs := th.pop(), th.pop()
	li, liok := lhs.(value.Int)
	ri, riok := rhs.(value.Int)
	if !liok || !riok {
		sym := map[compiler.Op]string{
			compiler.BAND: "&", compiler.BOR: "|", compiler.BXOR: "^",
			compiler.LSHIFT: "<<", compiler.RSHIFT: ">>",
		}[op]
		th.reportf("invalid operands '%s' and '%s' for operator '%s'", lhs.Type(), rhs.Type(), sym)
		return fmt.Errorf("invalid operands for bitwise operator")
	}
	switch op {
	case compiler.BAND:
		th.push(li & ri)
	case compiler.BOR:
		th.push(li | ri)
	case compiler.BXOR:
		th.push(li ^ ri)
	case compiler.LSHIFT:
		th.push(li << uint64(ri))
	case compiler.RSHIFT:
		th.push(li >> uint64(ri))
	}
	return nil
}

// compare implements GR/GREQ/LE/LEQ, arithmetic-only per spec §4.3 (the
// reference never implements these at all; original_source/src/vm.c's
// switch has no OP_GR/OP_LE cases).
func (th *Thread) compare(op compiler.Op) error {
	rhs, lhs := th.pop(), th.pop()
	lf, lok := asArithmetic(lhs)
	rf, rok := asArithmetic(rhs)
	if !lok || !rok {
		th.reportf("invalid operands '%s' and '%s' for comparison", lhs.Type(), rhs.Type())
		return fmt.Errorf("invalid operands for comparison")
	}
	switch op {
	case compiler.GR:
		th.push(value.Bool(lf > rf))
	case compiler.GREQ:
		th.push(value.Bool(lf >= rf))
	case compiler.LE:
		th.push(value.Bool(lf < rf))
	case compiler.LEQ:
		th.push(value.Bool(lf <= rf))
	}
	return nil
}

// valuesEqual implements OP_EQ: value types compare by value, strings by
// content, everything else (tables, functions, cfunctions) by identity.
func valuesEqual(a, b value.Value) bool {
	switch av := a.(type) {
	case value.Nil:
		_, ok := b.(value.Nil)
		return ok
	case value.Bool:
		bv, ok := b.(value.Bool)
		return ok && av == bv
	case value.Char:
		bv, ok := b.(value.Char)
		return ok && av == bv
	case value.Int:
		switch bv := b.(type) {
		case value.Int:
			return av == bv
		case value.Float:
			return value.Float(av) == bv
		}
		return false
	case value.Float:
		switch bv := b.(type) {
		case value.Int:
			return av == value.Float(bv)
		case value.Float:
			return av == bv
		}
		return false
	case *value.String:
		bv, ok := b.(*value.String)
		return ok && string(av.Bytes) == string(bv.Bytes)
	default:
		return a == b
	}
}
