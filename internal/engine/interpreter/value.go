// Package interpreter implements the single-loop bytecode interpreter (C8),
// its value and frame stacks (C7 and C1; there is no label stack, see
// frame), and the host-function dispatch boundary (C9) described for the
// engine's execution core.
package interpreter

import "math"

func i32FromWord(w uint64) int32    { return int32(uint32(w)) }
func u32FromWord(w uint64) uint32   { return uint32(w) }
func i64FromWord(w uint64) int64    { return int64(w) }
func u64FromWord(w uint64) uint64   { return w }
func f32FromWord(w uint64) float32  { return math.Float32frombits(uint32(w)) }
func f64FromWord(w uint64) float64  { return math.Float64frombits(w) }

func wordFromI32(v int32) uint64   { return uint64(uint32(v)) }
func wordFromU32(v uint32) uint64  { return uint64(v) }
func wordFromI64(v int64) uint64   { return uint64(v) }
func wordFromU64(v uint64) uint64  { return v }
func wordFromF32(v float32) uint64 { return uint64(math.Float32bits(v)) }
func wordFromF64(v float64) uint64 { return math.Float64bits(v) }
