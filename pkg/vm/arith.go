package vm

import (
	"math"

	"github.com/kristofer/smog/pkg/value"
)

// The arith* functions implement Add/Sub/Mul/Div/IntDiv/Mod/Exp for
// Int/Float operands, promoting Int to Float whenever either operand is
// a Float (except IntDiv, which always yields an Int by flooring, and
// Div, which always yields a Float). String concatenation for Add is
// handled in arithAdd before numericOp is reached.

func arithAdd(a, b value.Value) (value.Value, *RuntimeError) {
	if as, ok := a.(value.String); ok {
		if bs, ok := b.(value.String); ok {
			return value.String{Value: as.Value + bs.Value}, nil
		}
	}
	return numericOp(a, b, "add", func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
}

func arithSub(a, b value.Value) (value.Value, *RuntimeError) {
	return numericOp(a, b, "subtract", func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
}

func arithMul(a, b value.Value) (value.Value, *RuntimeError) {
	return numericOp(a, b, "multiply", func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
}

// arithDiv is true division: it always produces a Float, even for two
// Ints - floor division is IntDiv's job.
func arithDiv(a, b value.Value) (value.Value, *RuntimeError) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError(KindInvalidOperation, "cannot divide these operand types", nil)
	}
	if bf == 0 {
		return nil, newRuntimeError(KindInvalidOperation, "division by zero", nil)
	}
	return value.Float{Value: af / bf}, nil
}

// arithIntDiv is floor integer division: 7 // 2 = 3, -7 // 2 = -4.
func arithIntDiv(a, b value.Value) (value.Value, *RuntimeError) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		if bi.Value == 0 {
			return nil, newRuntimeError(KindInvalidOperation, "division by zero", nil)
		}
		q := ai.Value / bi.Value
		if (ai.Value%bi.Value != 0) && ((ai.Value < 0) != (bi.Value < 0)) {
			q--
		}
		return value.Int{Value: q}, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError(KindInvalidOperation, "cannot divide these operand types", nil)
	}
	if bf == 0 {
		return nil, newRuntimeError(KindInvalidOperation, "division by zero", nil)
	}
	return value.Int{Value: int64(math.Floor(af / bf))}, nil
}

func arithMod(a, b value.Value) (value.Value, *RuntimeError) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		if bi.Value == 0 {
			return nil, newRuntimeError(KindInvalidOperation, "division by zero", nil)
		}
		return value.Int{Value: ai.Value % bi.Value}, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError(KindInvalidOperation, "cannot apply modulo to these operand types", nil)
	}
	if bf == 0 {
		return nil, newRuntimeError(KindInvalidOperation, "division by zero", nil)
	}
	return value.Float{Value: math.Mod(af, bf)}, nil
}

// arithExp implements exponentiation. A negative integer exponent
// promotes the result to Float, since Int can't represent a fraction.
func arithExp(a, b value.Value) (value.Value, *RuntimeError) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		if bi.Value >= 0 {
			return value.Int{Value: intPow(ai.Value, bi.Value)}, nil
		}
		return value.Float{Value: math.Pow(float64(ai.Value), float64(bi.Value))}, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError(KindInvalidOperation, "cannot exponentiate these operand types", nil)
	}
	return value.Float{Value: math.Pow(af, bf)}, nil
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func numericOp(a, b value.Value, verb string, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (value.Value, *RuntimeError) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		return value.Int{Value: intOp(ai.Value, bi.Value)}, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, newRuntimeError(KindInvalidOperation, "cannot "+verb+" these operand types", nil)
	}
	return value.Float{Value: floatOp(af, bf)}, nil
}

func asFloat(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Int:
		return float64(x.Value), true
	case value.Float:
		return x.Value, true
	default:
		return 0, false
	}
}

func arithNegate(v value.Value) (value.Value, *RuntimeError) {
	switch x := v.(type) {
	case value.Int:
		return value.Int{Value: -x.Value}, nil
	case value.Float:
		return value.Float{Value: -x.Value}, nil
	default:
		return nil, newRuntimeError(KindInvalidOperation, "cannot negate a non-numeric value", nil)
	}
}
