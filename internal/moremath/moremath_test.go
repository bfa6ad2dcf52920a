package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatMin(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatMin(math.NaN(), 1)))
	require.True(t, math.IsNaN(WasmCompatMin(1, math.NaN())))
	require.Equal(t, math.Inf(-1), WasmCompatMin(math.Inf(-1), 1))
	require.Equal(t, 1.0, WasmCompatMin(1, 2))
}

func TestWasmCompatMax(t *testing.T) {
	require.True(t, math.IsNaN(WasmCompatMax(math.NaN(), 1)))
	require.Equal(t, math.Inf(1), WasmCompatMax(math.Inf(1), 1))
	require.Equal(t, 2.0, WasmCompatMax(1, 2))
}

func TestCanonicalizeNaN64(t *testing.T) {
	require.Equal(t, CanonicalNaN64Bits, math.Float64bits(CanonicalizeNaN64(math.NaN())))
	signalingNaN := math.Float64frombits(0x7ff0000000000001)
	require.Equal(t, CanonicalNaN64Bits, math.Float64bits(CanonicalizeNaN64(signalingNaN)))
	require.Equal(t, 1.5, CanonicalizeNaN64(1.5))
}

func TestCanonicalizeNaN32(t *testing.T) {
	require.Equal(t, CanonicalNaN32Bits, math.Float32bits(CanonicalizeNaN32(float32(math.NaN()))))
	require.Equal(t, float32(1.5), CanonicalizeNaN32(1.5))
}
