package interpreter

import (
	"encoding/binary"

	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasmruntime"
)

func effectiveAddr(dynamic uint32, static uint32, size uint32, memLen int) int {
	ea := uint64(dynamic) + uint64(static)
	if ea+uint64(size) > uint64(memLen) {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeMemoryOutOfBounds))
	}
	return int(ea)
}

func (e *Engine) execLoad(ce *callEngine, fr *frame, inst *ir.Instruction) {
	mem := fr.fn.Module.Memories[0].Buffer
	dyn := u32FromWord(ce.pop())
	switch inst.Kind {
	case ir.OpI32Load:
		a := effectiveAddr(dyn, inst.Mem.Offset, 4, len(mem))
		ce.push(wordFromU32(binary.LittleEndian.Uint32(mem[a:])))
	case ir.OpI64Load:
		a := effectiveAddr(dyn, inst.Mem.Offset, 8, len(mem))
		ce.push(binary.LittleEndian.Uint64(mem[a:]))
	case ir.OpF32Load:
		a := effectiveAddr(dyn, inst.Mem.Offset, 4, len(mem))
		ce.push(wordFromU32(binary.LittleEndian.Uint32(mem[a:])))
	case ir.OpF64Load:
		a := effectiveAddr(dyn, inst.Mem.Offset, 8, len(mem))
		ce.push(binary.LittleEndian.Uint64(mem[a:]))
	case ir.OpI32Load8S:
		a := effectiveAddr(dyn, inst.Mem.Offset, 1, len(mem))
		ce.push(wordFromI32(int32(int8(mem[a]))))
	case ir.OpI32Load8U:
		a := effectiveAddr(dyn, inst.Mem.Offset, 1, len(mem))
		ce.push(wordFromU32(uint32(mem[a])))
	case ir.OpI32Load16S:
		a := effectiveAddr(dyn, inst.Mem.Offset, 2, len(mem))
		ce.push(wordFromI32(int32(int16(binary.LittleEndian.Uint16(mem[a:])))))
	case ir.OpI32Load16U:
		a := effectiveAddr(dyn, inst.Mem.Offset, 2, len(mem))
		ce.push(wordFromU32(uint32(binary.LittleEndian.Uint16(mem[a:]))))
	case ir.OpI64Load8S:
		a := effectiveAddr(dyn, inst.Mem.Offset, 1, len(mem))
		ce.push(wordFromI64(int64(int8(mem[a]))))
	case ir.OpI64Load8U:
		a := effectiveAddr(dyn, inst.Mem.Offset, 1, len(mem))
		ce.push(wordFromU64(uint64(mem[a])))
	case ir.OpI64Load16S:
		a := effectiveAddr(dyn, inst.Mem.Offset, 2, len(mem))
		ce.push(wordFromI64(int64(int16(binary.LittleEndian.Uint16(mem[a:])))))
	case ir.OpI64Load16U:
		a := effectiveAddr(dyn, inst.Mem.Offset, 2, len(mem))
		ce.push(wordFromU64(uint64(binary.LittleEndian.Uint16(mem[a:]))))
	case ir.OpI64Load32S:
		a := effectiveAddr(dyn, inst.Mem.Offset, 4, len(mem))
		ce.push(wordFromI64(int64(int32(binary.LittleEndian.Uint32(mem[a:])))))
	case ir.OpI64Load32U:
		a := effectiveAddr(dyn, inst.Mem.Offset, 4, len(mem))
		ce.push(wordFromU64(uint64(binary.LittleEndian.Uint32(mem[a:]))))
	default:
		panic("interpreter: unknown load kind")
	}
}

func (e *Engine) execStore(ce *callEngine, fr *frame, inst *ir.Instruction) {
	mem := fr.fn.Module.Memories[0].Buffer
	val := ce.pop()
	dyn := u32FromWord(ce.pop())
	switch inst.Kind {
	case ir.OpI32Store, ir.OpF32Store:
		a := effectiveAddr(dyn, inst.Mem.Offset, 4, len(mem))
		binary.LittleEndian.PutUint32(mem[a:], uint32(val))
	case ir.OpI64Store, ir.OpF64Store:
		a := effectiveAddr(dyn, inst.Mem.Offset, 8, len(mem))
		binary.LittleEndian.PutUint64(mem[a:], val)
	case ir.OpI32Store8, ir.OpI64Store8:
		a := effectiveAddr(dyn, inst.Mem.Offset, 1, len(mem))
		mem[a] = byte(val)
	case ir.OpI32Store16, ir.OpI64Store16:
		a := effectiveAddr(dyn, inst.Mem.Offset, 2, len(mem))
		binary.LittleEndian.PutUint16(mem[a:], uint16(val))
	case ir.OpI64Store32:
		a := effectiveAddr(dyn, inst.Mem.Offset, 4, len(mem))
		binary.LittleEndian.PutUint32(mem[a:], uint32(val))
	default:
		panic("interpreter: unknown store kind")
	}
}

// execBulkMemory implements memory.copy, memory.fill and memory.init.
// Bounds are checked up front so a trapping bulk op never performs a
// partial write, matching the spec's bulk-memory trapping rule.
func (e *Engine) execBulkMemory(ce *callEngine, fr *frame, inst *ir.Instruction) {
	switch inst.Kind {
	case ir.OpMemoryCopy:
		n := u32FromWord(ce.pop())
		src := u32FromWord(ce.pop())
		dst := u32FromWord(ce.pop())
		mem := fr.fn.Module.Memories[0].Buffer
		if uint64(src)+uint64(n) > uint64(len(mem)) || uint64(dst)+uint64(n) > uint64(len(mem)) {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeMemoryOutOfBounds))
		}
		if n == 0 {
			return
		}
		copy(mem[dst:dst+n], mem[src:src+n])
	case ir.OpMemoryFill:
		n := u32FromWord(ce.pop())
		val := byte(u32FromWord(ce.pop()))
		dst := u32FromWord(ce.pop())
		mem := fr.fn.Module.Memories[0].Buffer
		if uint64(dst)+uint64(n) > uint64(len(mem)) {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeMemoryOutOfBounds))
		}
		if n == 0 {
			return
		}
		for i := uint32(0); i < n; i++ {
			mem[dst+i] = val
		}
	case ir.OpMemoryInit:
		n := u32FromWord(ce.pop())
		src := u32FromWord(ce.pop())
		dst := u32FromWord(ce.pop())
		data := fr.fn.Module.DataInstances[inst.SrcIndex]
		mem := fr.fn.Module.Memories[0].Buffer
		if uint64(src)+uint64(n) > uint64(len(data.Bytes)) || uint64(dst)+uint64(n) > uint64(len(mem)) {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeMemoryOutOfBounds))
		}
		if n == 0 {
			return
		}
		copy(mem[dst:dst+n], data.Bytes[src:src+n])
	}
}
