package machine

import (
	"context"
	"errors"
	"testing"

	"github.com/quelang/que/lang/compiler"
	"github.com/quelang/que/lang/value"
	"github.com/stretchr/testify/require"
)

func runSrc(t *testing.T, src string) *Thread {
	t.Helper()
	fn, err := compiler.Compile([]byte(src), "test")
	require.NoError(t, err)
	th := NewThread()
	require.NoError(t, th.Run(context.Background(), fn))
	return th
}

func globalOf(t *testing.T, th *Thread, name string) value.Value {
	t.Helper()
	v, ok := th.Globals.GetString(name)
	require.True(t, ok, "global %s not defined", name)
	return v
}

func TestArithmeticIntPromotion(t *testing.T) {
	th := runSrc(t, "let x = 1 + 2\n")
	require.Equal(t, value.Int(3), globalOf(t, th, "x"))
}

func TestArithmeticFloatPromotion(t *testing.T) {
	th := runSrc(t, "let x = 1 + 2.5\n")
	require.Equal(t, value.Float(3.5), globalOf(t, th, "x"))
}

// TestBinaryReadsBothOperands pins the fix for a bug present in every
// arithmetic case of original_source/src/vm.c, where the right operand is
// read as `lhs.value.i` a second time instead of `rhs.value.i` (e.g.
// OP_SUBTRACT's `r = lhs.value.i;`). With distinct operands, that bug would
// make "5 - 2" compute 5-5=0 instead of 3.
func TestBinaryReadsBothOperands(t *testing.T) {
	th := runSrc(t, "let x = 5 - 2\n")
	require.Equal(t, value.Int(3), globalOf(t, th, "x"))

	th = runSrc(t, "let y = 10 / 4\n")
	require.Equal(t, value.Int(2), globalOf(t, th, "y"))
}

// TestRightShiftIsNotLeftAsAnd pins the fix for original_source/src/vm.c's
// OP_RSHIFT, which computes `l & r` instead of `l >> r`.
func TestRightShiftIsNotLeftAsAnd(t *testing.T) {
	th := runSrc(t, "let x = 8 >> 2\n")
	require.Equal(t, value.Int(2), globalOf(t, th, "x"))
}

func TestComparisonOperators(t *testing.T) {
	th := runSrc(t, "let a = 1 < 2\nlet b = 2 <= 2\nlet c = 3 > 4\n")
	require.Equal(t, value.Bool(true), globalOf(t, th, "a"))
	require.Equal(t, value.Bool(true), globalOf(t, th, "b"))
	require.Equal(t, value.Bool(false), globalOf(t, th, "c"))
}

func TestEqualityAcrossIntAndFloat(t *testing.T) {
	th := runSrc(t, "let x = 2 == 2.0\n")
	require.Equal(t, value.Bool(true), globalOf(t, th, "x"))
}

func TestWhileLoopAccumulates(t *testing.T) {
	th := runSrc(t, "let i = 0\nlet total = 0\nwhile i < 5:\n        total = total + i\n        i = i + 1\n")
	require.Equal(t, value.Int(10), globalOf(t, th, "total"))
}

func TestBreakExitsLoopEarly(t *testing.T) {
	th := runSrc(t, "let i = 0\nwhile i < 100:\n        if i == 3:\n                break\n        i = i + 1\n")
	require.Equal(t, value.Int(3), globalOf(t, th, "i"))
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	th := runSrc(t, "let i = 0\nlet evens = 0\nwhile i < 6:\n        i = i + 1\n        if i - (i / 2) * 2 == 1:\n                continue\n        evens = evens + 1\n")
	require.Equal(t, value.Int(3), globalOf(t, th, "evens"))
}

func TestIfElseSelectsBranch(t *testing.T) {
	th := runSrc(t, "let x = 0\nif 1 == 2:\n        x = 1\nelse:\n        x = 2\n")
	require.Equal(t, value.Int(2), globalOf(t, th, "x"))
}

func TestFunctionCallAndReturn(t *testing.T) {
	th := runSrc(t, "function add(a, b):\n        return a + b\nlet x = add(2, 3)\n")
	require.Equal(t, value.Int(5), globalOf(t, th, "x"))
}

func TestFunctionWithoutExplicitReturnYieldsNil(t *testing.T) {
	th := runSrc(t, "function noop():\n        let a = 1\nlet x = noop()\n")
	require.Equal(t, value.Nil{}, globalOf(t, th, "x"))
}

func TestRecursiveFunctionCall(t *testing.T) {
	th := runSrc(t, "function fact(n):\n        if n <= 1:\n                return 1\n        return n * fact(n - 1)\nlet x = fact(5)\n")
	require.Equal(t, value.Int(120), globalOf(t, th, "x"))
}

func TestTableFieldAccess(t *testing.T) {
	th := NewThread()
	t1 := value.NewTable()
	t1.InsertString("field", value.Int(42))
	th.Globals.InsertString("t", t1)
	fn, err := compiler.Compile([]byte("let x = t.field\n"), "test")
	require.NoError(t, err)
	require.NoError(t, th.Run(context.Background(), fn))
	require.Equal(t, value.Int(42), globalOf(t, th, "x"))
}

func TestTableFieldAccessMissingIsNil(t *testing.T) {
	th := NewThread()
	th.Globals.InsertString("t", value.NewTable())
	fn, err := compiler.Compile([]byte("let x = t.missing\n"), "test")
	require.NoError(t, err)
	require.NoError(t, th.Run(context.Background(), fn))
	require.Equal(t, value.Nil{}, globalOf(t, th, "x"))
}

func TestCFunctionCallRoundTrip(t *testing.T) {
	th := NewThread()
	th.Globals.InsertString("double", &value.CFunction{
		Name: "double",
		Fn: func(host value.Host, argc int) error {
			n := host.Pop().(value.Int)
			host.Push(n * 2)
			return nil
		},
	})
	fn, err := compiler.Compile([]byte("let x = double(21)\n"), "test")
	require.NoError(t, err)
	require.NoError(t, th.Run(context.Background(), fn))
	require.Equal(t, value.Int(42), globalOf(t, th, "x"))
}

func TestCFunctionErrorAbortsExecution(t *testing.T) {
	th := NewThread()
	th.Globals.InsertString("fail", &value.CFunction{
		Name: "fail",
		Fn: func(host value.Host, argc int) error {
			return errors.New("fail always errors")
		},
	})
	fn, err := compiler.Compile([]byte("fail()\n"), "test")
	require.NoError(t, err)
	require.Error(t, th.Run(context.Background(), fn))
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	fn, err := compiler.Compile([]byte("let x = y\n"), "test")
	require.NoError(t, err)
	th := NewThread()
	require.Error(t, th.Run(context.Background(), fn))
}
