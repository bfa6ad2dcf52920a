package interpreter

import (
	"math/bits"

	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/moremath"
	"github.com/tinywasm-go/tinywasm/internal/wasmruntime"
)

func (e *Engine) execI32Unop(ce *callEngine, op ir.Subop) {
	v := i32FromWord(ce.pop())
	var r int32
	switch op {
	case ir.SubClz:
		r = int32(bits.LeadingZeros32(uint32(v)))
	case ir.SubCtz:
		r = int32(bits.TrailingZeros32(uint32(v)))
	case ir.SubPopcnt:
		r = int32(bits.OnesCount32(uint32(v)))
	case ir.SubExtend8S:
		r = int32(int8(v))
	case ir.SubExtend16S:
		r = int32(int16(v))
	default:
		panic("interpreter: unknown i32 unop")
	}
	ce.push(wordFromI32(r))
}

func (e *Engine) execI32Binop(ce *callEngine, op ir.Subop) {
	b := u32FromWord(ce.pop())
	a := u32FromWord(ce.pop())
	var r uint32
	switch op {
	case ir.SubAdd:
		r = a + b
	case ir.SubSub:
		r = a - b
	case ir.SubMul:
		r = a * b
	case ir.SubDivS:
		sa, sb := int32(a), int32(b)
		if sb == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		if sa == -2147483648 && sb == -1 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerOverflow))
		}
		r = uint32(sa / sb)
	case ir.SubDivU:
		if b == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		r = a / b
	case ir.SubRemS:
		sa, sb := int32(a), int32(b)
		if sb == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		if sa == -2147483648 && sb == -1 {
			r = 0
		} else {
			r = uint32(sa % sb)
		}
	case ir.SubRemU:
		if b == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		r = a % b
	case ir.SubAnd:
		r = a & b
	case ir.SubOr:
		r = a | b
	case ir.SubXor:
		r = a ^ b
	case ir.SubShl:
		r = a << (b % 32)
	case ir.SubShrS:
		r = uint32(int32(a) >> (b % 32))
	case ir.SubShrU:
		r = a >> (b % 32)
	case ir.SubRotl:
		r = bits.RotateLeft32(a, int(b%32))
	case ir.SubRotr:
		r = bits.RotateLeft32(a, -int(b%32))
	default:
		panic("interpreter: unknown i32 binop")
	}
	ce.push(wordFromU32(r))
}

func (e *Engine) execI32Compare(ce *callEngine, op ir.Subop) {
	b := u32FromWord(ce.pop())
	a := u32FromWord(ce.pop())
	ce.push(boolWord(compareU32(op, a, b)))
}

func compareU32(op ir.Subop, a, b uint32) bool {
	sa, sb := int32(a), int32(b)
	switch op {
	case ir.SubEq:
		return a == b
	case ir.SubNe:
		return a != b
	case ir.SubLtS:
		return sa < sb
	case ir.SubLtU:
		return a < b
	case ir.SubGtS:
		return sa > sb
	case ir.SubGtU:
		return a > b
	case ir.SubLeS:
		return sa <= sb
	case ir.SubLeU:
		return a <= b
	case ir.SubGeS:
		return sa >= sb
	case ir.SubGeU:
		return a >= b
	}
	panic("interpreter: unknown i32 compare")
}

func (e *Engine) execI64Unop(ce *callEngine, op ir.Subop) {
	v := i64FromWord(ce.pop())
	var r int64
	switch op {
	case ir.SubClz:
		r = int64(bits.LeadingZeros64(uint64(v)))
	case ir.SubCtz:
		r = int64(bits.TrailingZeros64(uint64(v)))
	case ir.SubPopcnt:
		r = int64(bits.OnesCount64(uint64(v)))
	case ir.SubExtend8S:
		r = int64(int8(v))
	case ir.SubExtend16S:
		r = int64(int16(v))
	case ir.SubExtend32S:
		r = int64(int32(v))
	default:
		panic("interpreter: unknown i64 unop")
	}
	ce.push(wordFromI64(r))
}

func (e *Engine) execI64Binop(ce *callEngine, op ir.Subop) {
	b := u64FromWord(ce.pop())
	a := u64FromWord(ce.pop())
	var r uint64
	switch op {
	case ir.SubAdd:
		r = a + b
	case ir.SubSub:
		r = a - b
	case ir.SubMul:
		r = a * b
	case ir.SubDivS:
		sa, sb := int64(a), int64(b)
		if sb == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		if sa == -9223372036854775808 && sb == -1 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerOverflow))
		}
		r = uint64(sa / sb)
	case ir.SubDivU:
		if b == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		r = a / b
	case ir.SubRemS:
		sa, sb := int64(a), int64(b)
		if sb == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		if sa == -9223372036854775808 && sb == -1 {
			r = 0
		} else {
			r = uint64(sa % sb)
		}
	case ir.SubRemU:
		if b == 0 {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIntegerDivideByZero))
		}
		r = a % b
	case ir.SubAnd:
		r = a & b
	case ir.SubOr:
		r = a | b
	case ir.SubXor:
		r = a ^ b
	case ir.SubShl:
		r = a << (b % 64)
	case ir.SubShrS:
		r = uint64(int64(a) >> (b % 64))
	case ir.SubShrU:
		r = a >> (b % 64)
	case ir.SubRotl:
		r = bits.RotateLeft64(a, int(b%64))
	case ir.SubRotr:
		r = bits.RotateLeft64(a, -int(b%64))
	default:
		panic("interpreter: unknown i64 binop")
	}
	ce.push(wordFromU64(r))
}

func (e *Engine) execI64Compare(ce *callEngine, op ir.Subop) {
	b := u64FromWord(ce.pop())
	a := u64FromWord(ce.pop())
	sa, sb := int64(a), int64(b)
	var r bool
	switch op {
	case ir.SubEq:
		r = a == b
	case ir.SubNe:
		r = a != b
	case ir.SubLtS:
		r = sa < sb
	case ir.SubLtU:
		r = a < b
	case ir.SubGtS:
		r = sa > sb
	case ir.SubGtU:
		r = a > b
	case ir.SubLeS:
		r = sa <= sb
	case ir.SubLeU:
		r = a <= b
	case ir.SubGeS:
		r = sa >= sb
	case ir.SubGeU:
		r = a >= b
	default:
		panic("interpreter: unknown i64 compare")
	}
	ce.push(boolWord(r))
}

// sign-bit-only float ops carry the NaN payload through unchanged rather
// than normalizing it to the canonical NaN.
func isSignBitOnlyUnop(op ir.Subop) bool {
	return op == ir.SubAbs || op == ir.SubNeg
}

func (e *Engine) execF32Unop(ce *callEngine, op ir.Subop) {
	v := f32FromWord(ce.pop())
	r := f32Unop(op, v)
	if !isSignBitOnlyUnop(op) {
		r = moremath.CanonicalizeNaN32(r)
	}
	ce.push(wordFromF32(r))
}

func (e *Engine) execF64Unop(ce *callEngine, op ir.Subop) {
	v := f64FromWord(ce.pop())
	r := f64Unop(op, v)
	if !isSignBitOnlyUnop(op) {
		r = moremath.CanonicalizeNaN64(r)
	}
	ce.push(wordFromF64(r))
}

func (e *Engine) execF32Binop(ce *callEngine, op ir.Subop) {
	b := f32FromWord(ce.pop())
	a := f32FromWord(ce.pop())
	r := f32Binop(op, a, b)
	if op != ir.SubCopysign {
		r = moremath.CanonicalizeNaN32(r)
	}
	ce.push(wordFromF32(r))
}

func (e *Engine) execF64Binop(ce *callEngine, op ir.Subop) {
	b := f64FromWord(ce.pop())
	a := f64FromWord(ce.pop())
	r := f64Binop(op, a, b)
	if op != ir.SubCopysign {
		r = moremath.CanonicalizeNaN64(r)
	}
	ce.push(wordFromF64(r))
}

func (e *Engine) execF32Compare(ce *callEngine, op ir.Subop) {
	b := f32FromWord(ce.pop())
	a := f32FromWord(ce.pop())
	ce.push(boolWord(compareFloat(op, float64(a), float64(b))))
}

func (e *Engine) execF64Compare(ce *callEngine, op ir.Subop) {
	b := f64FromWord(ce.pop())
	a := f64FromWord(ce.pop())
	ce.push(boolWord(compareFloat(op, a, b)))
}

func compareFloat(op ir.Subop, a, b float64) bool {
	switch op {
	case ir.SubEq:
		return a == b
	case ir.SubNe:
		return a != b
	case ir.SubLt:
		return a < b
	case ir.SubGt:
		return a > b
	case ir.SubLe:
		return a <= b
	case ir.SubGe:
		return a >= b
	}
	panic("interpreter: unknown float compare")
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
