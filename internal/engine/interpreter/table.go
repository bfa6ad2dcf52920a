package interpreter

import (
	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasmruntime"
)

func (e *Engine) execTableGet(ce *callEngine, fr *frame, inst *ir.Instruction) {
	table := fr.fn.Module.Tables[inst.Index]
	idx := u32FromWord(ce.pop())
	if idx >= uint32(len(table.References)) {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds))
	}
	ce.push(table.References[idx])
}

func (e *Engine) execTableSet(ce *callEngine, fr *frame, inst *ir.Instruction) {
	table := fr.fn.Module.Tables[inst.Index]
	val := ce.pop()
	idx := u32FromWord(ce.pop())
	if idx >= uint32(len(table.References)) {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds))
	}
	table.References[idx] = val
}

func (e *Engine) execTableGrow(ce *callEngine, fr *frame, inst *ir.Instruction) {
	table := fr.fn.Module.Tables[inst.Index]
	delta := u32FromWord(ce.pop())
	fillValue := ce.pop()
	prev, ok := table.Grow(delta, fillValue)
	if !ok {
		ce.push(wordFromI32(-1))
		return
	}
	ce.push(wordFromU32(prev))
}

// execBulkTable implements table.fill, table.copy and table.init, each
// bounds-checked before any write so a trap never leaves a partial effect.
func (e *Engine) execBulkTable(ce *callEngine, fr *frame, inst *ir.Instruction) {
	switch inst.Kind {
	case ir.OpTableFill:
		n := u32FromWord(ce.pop())
		val := ce.pop()
		dst := u32FromWord(ce.pop())
		table := fr.fn.Module.Tables[inst.Index]
		if uint64(dst)+uint64(n) > uint64(len(table.References)) {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds))
		}
		if n == 0 {
			return
		}
		for i := uint32(0); i < n; i++ {
			table.References[dst+i] = val
		}
	case ir.OpTableCopy:
		n := u32FromWord(ce.pop())
		src := u32FromWord(ce.pop())
		dst := u32FromWord(ce.pop())
		srcTable := fr.fn.Module.Tables[inst.SrcIndex]
		dstTable := fr.fn.Module.Tables[inst.DstIndex]
		if uint64(src)+uint64(n) > uint64(len(srcTable.References)) || uint64(dst)+uint64(n) > uint64(len(dstTable.References)) {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds))
		}
		if n == 0 {
			return
		}
		copy(dstTable.References[dst:dst+n], srcTable.References[src:src+n])
	case ir.OpTableInit:
		n := u32FromWord(ce.pop())
		src := u32FromWord(ce.pop())
		dst := u32FromWord(ce.pop())
		elem := fr.fn.Module.ElementInstances[inst.SrcIndex]
		table := fr.fn.Module.Tables[inst.DstIndex]
		if uint64(src)+uint64(n) > uint64(len(elem.References)) || uint64(dst)+uint64(n) > uint64(len(table.References)) {
			panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds))
		}
		if n == 0 {
			return
		}
		copy(table.References[dst:dst+n], elem.References[src:src+n])
	}
}
