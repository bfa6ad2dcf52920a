package moremath

import "math"

// math.Min doen't comply with the Wasm spec, so we borrow from the original
// with a change that either one of NaN results in NaN even if another is -Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// math.Max doen't comply with the Wasm spec, so we borrow from the original
// with a change that either one of NaN results in NaN even if another is Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)

	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatMin32 is the float32 equivalent of WasmCompatMin.
func WasmCompatMin32(x, y float32) float32 {
	return float32(WasmCompatMin(float64(x), float64(y)))
}

// WasmCompatMax32 is the float32 equivalent of WasmCompatMax.
func WasmCompatMax32(x, y float32) float32 {
	return float32(WasmCompatMax(float64(x), float64(y)))
}

// CanonicalNaN32Bits is the bit pattern of the canonical (quiet, zero
// payload, sign 0) 32-bit NaN.
const CanonicalNaN32Bits uint32 = 0x7fc00000

// CanonicalNaN64Bits is the bit pattern of the canonical (quiet, zero
// payload, sign 0) 64-bit NaN.
const CanonicalNaN64Bits uint64 = 0x7ff8000000000000

// CanonicalizeNaN32 rewrites any NaN value to the canonical quiet NaN for
// float32, leaving all other values (including -0) untouched.
func CanonicalizeNaN32(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return math.Float32frombits(CanonicalNaN32Bits)
	}
	return v
}

// CanonicalizeNaN64 rewrites any NaN value to the canonical quiet NaN for
// float64, leaving all other values (including -0) untouched.
func CanonicalizeNaN64(v float64) float64 {
	if math.IsNaN(v) {
		return math.Float64frombits(CanonicalNaN64Bits)
	}
	return v
}
