package wazero

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

// memoryView adapts a *wasm.MemoryInstance to api.Memory for host-facing
// reads/writes; the interpreter itself accesses MemoryInstance.Buffer
// directly rather than through this view.
type memoryView struct{ m *wasm.MemoryInstance }

func (v *memoryView) Size(context.Context) uint32 { return uint32(len(v.m.Buffer)) }

func (v *memoryView) Grow(_ context.Context, delta uint32) (uint32, bool) {
	return v.m.Grow(delta)
}

func (v *memoryView) hasRange(offset, n uint32) bool {
	return uint64(offset)+uint64(n) <= uint64(len(v.m.Buffer))
}

func (v *memoryView) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	if !v.hasRange(offset, 1) {
		return 0, false
	}
	return v.m.Buffer[offset], true
}

func (v *memoryView) ReadUint16Le(_ context.Context, offset uint32) (uint16, bool) {
	if !v.hasRange(offset, 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(v.m.Buffer[offset:]), true
}

func (v *memoryView) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	if !v.hasRange(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(v.m.Buffer[offset:]), true
}

func (v *memoryView) ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool) {
	u, ok := v.ReadUint32Le(ctx, offset)
	return math.Float32frombits(u), ok
}

func (v *memoryView) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	if !v.hasRange(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(v.m.Buffer[offset:]), true
}

func (v *memoryView) ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool) {
	u, ok := v.ReadUint64Le(ctx, offset)
	return math.Float64frombits(u), ok
}

func (v *memoryView) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	if !v.hasRange(offset, byteCount) {
		return nil, false
	}
	return v.m.Buffer[offset : offset+byteCount : offset+byteCount], true
}

func (v *memoryView) WriteByte(_ context.Context, offset uint32, val byte) bool {
	if !v.hasRange(offset, 1) {
		return false
	}
	v.m.Buffer[offset] = val
	return true
}

func (v *memoryView) WriteUint16Le(_ context.Context, offset uint32, val uint16) bool {
	if !v.hasRange(offset, 2) {
		return false
	}
	binary.LittleEndian.PutUint16(v.m.Buffer[offset:], val)
	return true
}

func (v *memoryView) WriteUint32Le(_ context.Context, offset, val uint32) bool {
	if !v.hasRange(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(v.m.Buffer[offset:], val)
	return true
}

func (v *memoryView) WriteFloat32Le(ctx context.Context, offset uint32, val float32) bool {
	return v.WriteUint32Le(ctx, offset, math.Float32bits(val))
}

func (v *memoryView) WriteUint64Le(_ context.Context, offset uint32, val uint64) bool {
	if !v.hasRange(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(v.m.Buffer[offset:], val)
	return true
}

func (v *memoryView) WriteFloat64Le(ctx context.Context, offset uint32, val float64) bool {
	return v.WriteUint64Le(ctx, offset, math.Float64bits(val))
}

func (v *memoryView) Write(_ context.Context, offset uint32, val []byte) bool {
	if !v.hasRange(offset, uint32(len(val))) {
		return false
	}
	copy(v.m.Buffer[offset:], val)
	return true
}
