package interpreter

import (
	"math"

	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/moremath"
)

func f32Unop(op ir.Subop, v float32) float32 {
	switch op {
	case ir.SubAbs:
		return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
	case ir.SubNeg:
		return -v
	case ir.SubSqrt:
		return float32(math.Sqrt(float64(v)))
	case ir.SubCeil:
		return float32(math.Ceil(float64(v)))
	case ir.SubFloor:
		return float32(math.Floor(float64(v)))
	case ir.SubTrunc:
		return float32(math.Trunc(float64(v)))
	case ir.SubNearest:
		return float32(math.RoundToEven(float64(v)))
	}
	panic("interpreter: unknown f32 unop")
}

func f64Unop(op ir.Subop, v float64) float64 {
	switch op {
	case ir.SubAbs:
		return math.Abs(v)
	case ir.SubNeg:
		return -v
	case ir.SubSqrt:
		return math.Sqrt(v)
	case ir.SubCeil:
		return math.Ceil(v)
	case ir.SubFloor:
		return math.Floor(v)
	case ir.SubTrunc:
		return math.Trunc(v)
	case ir.SubNearest:
		return math.RoundToEven(v)
	}
	panic("interpreter: unknown f64 unop")
}

func f32Binop(op ir.Subop, a, b float32) float32 {
	switch op {
	case ir.SubAdd:
		return a + b
	case ir.SubSub:
		return a - b
	case ir.SubMul:
		return a * b
	case ir.SubDiv:
		return a / b
	case ir.SubMin:
		return moremath.WasmCompatMin32(a, b)
	case ir.SubMax:
		return moremath.WasmCompatMax32(a, b)
	case ir.SubCopysign:
		return math.Float32frombits(math.Float32bits(a)&^(1<<31) | math.Float32bits(b)&(1<<31))
	}
	panic("interpreter: unknown f32 binop")
}

func f64Binop(op ir.Subop, a, b float64) float64 {
	switch op {
	case ir.SubAdd:
		return a + b
	case ir.SubSub:
		return a - b
	case ir.SubMul:
		return a * b
	case ir.SubDiv:
		return a / b
	case ir.SubMin:
		return moremath.WasmCompatMin(a, b)
	case ir.SubMax:
		return moremath.WasmCompatMax(a, b)
	case ir.SubCopysign:
		return math.Copysign(a, b)
	}
	panic("interpreter: unknown f64 binop")
}
