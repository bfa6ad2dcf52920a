package interpreter

import (
	"math"

	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasmruntime"
)

func (e *Engine) execConversion(ce *callEngine, op ir.ConversionOp) {
	switch op {
	case ir.ConvI32WrapI64:
		ce.push(wordFromI32(int32(i64FromWord(ce.pop()))))
	case ir.ConvI64ExtendI32S:
		ce.push(wordFromI64(int64(i32FromWord(ce.pop()))))
	case ir.ConvI64ExtendI32U:
		ce.push(wordFromI64(int64(u32FromWord(ce.pop()))))

	case ir.ConvI32TruncF32S:
		ce.push(wordFromI32(truncToInt32(float64(f32FromWord(ce.pop())), -2147483648, 2147483648)))
	case ir.ConvI32TruncF32U:
		ce.push(wordFromU32(truncToUint32(float64(f32FromWord(ce.pop())), 4294967296)))
	case ir.ConvI32TruncF64S:
		ce.push(wordFromI32(truncToInt32(f64FromWord(ce.pop()), -2147483648, 2147483648)))
	case ir.ConvI32TruncF64U:
		ce.push(wordFromU32(truncToUint32(f64FromWord(ce.pop()), 4294967296)))
	case ir.ConvI64TruncF32S:
		ce.push(wordFromI64(truncToInt64(float64(f32FromWord(ce.pop())))))
	case ir.ConvI64TruncF32U:
		ce.push(wordFromU64(truncToUint64(float64(f32FromWord(ce.pop())))))
	case ir.ConvI64TruncF64S:
		ce.push(wordFromI64(truncToInt64(f64FromWord(ce.pop()))))
	case ir.ConvI64TruncF64U:
		ce.push(wordFromU64(truncToUint64(f64FromWord(ce.pop()))))

	case ir.ConvF32ConvertI32S:
		ce.push(wordFromF32(float32(i32FromWord(ce.pop()))))
	case ir.ConvF32ConvertI32U:
		ce.push(wordFromF32(float32(u32FromWord(ce.pop()))))
	case ir.ConvF32ConvertI64S:
		ce.push(wordFromF32(float32(i64FromWord(ce.pop()))))
	case ir.ConvF32ConvertI64U:
		ce.push(wordFromF32(float32(u64FromWord(ce.pop()))))
	case ir.ConvF64ConvertI32S:
		ce.push(wordFromF64(float64(i32FromWord(ce.pop()))))
	case ir.ConvF64ConvertI32U:
		ce.push(wordFromF64(float64(u32FromWord(ce.pop()))))
	case ir.ConvF64ConvertI64S:
		ce.push(wordFromF64(float64(i64FromWord(ce.pop()))))
	case ir.ConvF64ConvertI64U:
		ce.push(wordFromF64(float64(u64FromWord(ce.pop()))))

	case ir.ConvF32DemoteF64:
		ce.push(wordFromF32(float32(f64FromWord(ce.pop()))))
	case ir.ConvF64PromoteF32:
		ce.push(wordFromF64(float64(f32FromWord(ce.pop()))))

	case ir.ConvI32ReinterpretF32, ir.ConvI64ReinterpretF64, ir.ConvF32ReinterpretI32, ir.ConvF64ReinterpretI64:
		// The raw word already carries the correct bit pattern; no-op.

	case ir.ConvI32TruncSatF32S:
		ce.push(wordFromI32(satToInt32(float64(f32FromWord(ce.pop())))))
	case ir.ConvI32TruncSatF32U:
		ce.push(wordFromU32(satToUint32(float64(f32FromWord(ce.pop())))))
	case ir.ConvI32TruncSatF64S:
		ce.push(wordFromI32(satToInt32(f64FromWord(ce.pop()))))
	case ir.ConvI32TruncSatF64U:
		ce.push(wordFromU32(satToUint32(f64FromWord(ce.pop()))))
	case ir.ConvI64TruncSatF32S:
		ce.push(wordFromI64(satToInt64(float64(f32FromWord(ce.pop())))))
	case ir.ConvI64TruncSatF32U:
		ce.push(wordFromU64(satToUint64(float64(f32FromWord(ce.pop())))))
	case ir.ConvI64TruncSatF64S:
		ce.push(wordFromI64(satToInt64(f64FromWord(ce.pop()))))
	case ir.ConvI64TruncSatF64U:
		ce.push(wordFromU64(satToUint64(f64FromWord(ce.pop()))))

	default:
		panic("interpreter: unknown conversion")
	}
}

func truncToInt32(v float64, min, maxExclusive float64) int32 {
	checkTruncable(v, min, maxExclusive)
	return int32(math.Trunc(v))
}

func truncToUint32(v float64, maxExclusive float64) uint32 {
	checkTruncable(v, 0, maxExclusive)
	return uint32(math.Trunc(v))
}

func truncToInt64(v float64) int64 {
	checkTruncable(v, -9223372036854775808, 9223372036854775808)
	return int64(math.Trunc(v))
}

func truncToUint64(v float64) uint64 {
	checkTruncable(v, 0, 18446744073709551616)
	return uint64(math.Trunc(v))
}

func checkTruncable(v, min, maxExclusive float64) {
	if math.IsNaN(v) {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeInvalidConversionToInteger))
	}
	if v < min || v >= maxExclusive {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeInvalidConversionToInteger))
	}
}

func satToInt32(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	if v <= -2147483648 {
		return math.MinInt32
	}
	if v >= 2147483648 {
		return math.MaxInt32
	}
	return int32(math.Trunc(v))
}

func satToUint32(v float64) uint32 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 4294967296 {
		return math.MaxUint32
	}
	return uint32(math.Trunc(v))
}

func satToInt64(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v <= -9223372036854775808 {
		return math.MinInt64
	}
	if v >= 9223372036854775808 {
		return math.MaxInt64
	}
	return int64(math.Trunc(v))
}

func satToUint64(v float64) uint64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 18446744073709551616 {
		return math.MaxUint64
	}
	return uint64(math.Trunc(v))
}
