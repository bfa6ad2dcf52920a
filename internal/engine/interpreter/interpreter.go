package interpreter

import (
	"context"
	"fmt"

	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
	"github.com/tinywasm-go/tinywasm/internal/wasmruntime"
)

// MaxCallStackDepth bounds the frame stack; exceeding it traps with
// ErrRuntimeStackOverflow rather than overflowing the host stack, since this
// interpreter never recurses into Go for a Wasm-to-Wasm call.
const MaxCallStackDepth = 1 << 16

// Engine is the interpreter's implementation of wasm.Engine: a stateless
// dispatcher that executes a FunctionInstance's preprocessed body against a
// fresh callEngine for every top-level invocation.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

var _ wasm.Engine = (*Engine)(nil)

// Call invokes f with params already converted to raw words, returning
// result words in declared order. Traps surface as *wasmruntime.Trap.
func (e *Engine) Call(ctx context.Context, f *wasm.FunctionInstance, params []uint64) (results []uint64, err error) {
	ce := newCallEngine()
	for _, p := range params {
		ce.push(p)
	}
	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(*wasmruntime.Trap); ok {
				err = t
				return
			}
			panic(r)
		}
	}()
	if f.Kind == wasm.FunctionKindHost {
		e.callHost(ctx, ce, f)
	} else {
		e.pushWasmFrame(ce, f)
		e.run(ctx, ce)
	}
	n := len(f.Type.Results)
	results = make([]uint64, n)
	copy(results, ce.values[len(ce.values)-n:])
	ce.values = ce.values[:len(ce.values)-n]
	return results, nil
}

// pushWasmFrame sets up locals (parameters already on the stack, followed
// by zero-initialized declared locals) and pushes a new frame.
func (e *Engine) pushWasmFrame(ce *callEngine, f *wasm.FunctionInstance) {
	if len(ce.frames) >= MaxCallStackDepth {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeStackOverflow))
	}
	numParams := len(f.Type.Params)
	valueBase := len(ce.values) - numParams
	for range f.LocalTypes {
		ce.push(0)
	}
	ce.frames = append(ce.frames, frame{
		fn:          f,
		valueBase:   valueBase,
		resultArity: len(f.Type.Results),
	})
}

// run is the single dispatch loop: it executes instructions of the current
// top frame until the outermost frame returns.
func (e *Engine) run(ctx context.Context, ce *callEngine) {
	baseDepth := len(ce.frames) - 1
	for len(ce.frames) > baseDepth {
		fr := ce.currentFrame()
		body := fr.fn.Body
		if fr.ip >= len(body) {
			e.doReturn(ce)
			continue
		}
		inst := &body[fr.ip]
		jumped := e.step(ctx, ce, inst)
		if !jumped {
			ce.currentFrame().ip++
		}
	}
}

// doReturn collapses the top resultArity values of the current frame down
// onto its valueBase (discarding locals/params and any leftover operands)
// and pops the frame.
func (e *Engine) doReturn(ce *callEngine) {
	fr := ce.frames[len(ce.frames)-1]
	n := fr.resultArity
	copy(ce.values[fr.valueBase:], ce.values[len(ce.values)-n:])
	ce.values = ce.values[:fr.valueBase+n]
	ce.frames = ce.frames[:len(ce.frames)-1]
}

func (e *Engine) local(ce *callEngine, idx uint32) *uint64 {
	return &ce.values[ce.currentFrame().valueBase+int(idx)]
}

// step executes one instruction against the current top frame, returning
// true if it already updated the frame's ip (a jump/call/return) so run
// should not additionally advance it.
func (e *Engine) step(ctx context.Context, ce *callEngine, inst *ir.Instruction) (jumped bool) {
	fr := ce.currentFrame()
	switch inst.Kind {
	case ir.OpUnreachable:
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeUnreachable))
	case ir.OpNop, ir.OpBlock, ir.OpLoop, ir.OpEndBlock:
		// No runtime state: branch targets are pre-resolved on the branch
		// instructions themselves.
	case ir.OpIf:
		cond := ce.pop()
		if cond == 0 {
			fr.ip += int(inst.EndOffset)
			// EndOffset may land on the matching OpElse: enter the else
			// arm past it, since executing OpElse would skip that arm.
			if fr.ip < len(fr.fn.Body) && fr.fn.Body[fr.ip].Kind == ir.OpElse {
				fr.ip++
			}
			return true
		}
	case ir.OpElse:
		// Reached by falling through the "then" arm: skip the else body.
		fr.ip += int(inst.EndOffset)
		return true
	case ir.OpReturn:
		e.doReturn(ce)
		return true

	case ir.OpBr:
		e.branch(ce, inst.Target)
		fr.ip += int(inst.Target.Delta)
		return true
	case ir.OpBrIf:
		cond := ce.pop()
		if cond != 0 {
			e.branch(ce, inst.Target)
			fr.ip += int(inst.Target.Delta)
			return true
		}
	case ir.OpBrTable:
		idx := u32FromWord(ce.pop())
		n := len(inst.Targets)
		var t ir.BrTarget
		if int(idx) < n-1 {
			t = inst.Targets[idx]
		} else {
			t = inst.Targets[n-1]
		}
		e.branch(ce, t)
		fr.ip += int(t.Delta)
		return true

	case ir.OpCall:
		return e.doCall(ctx, ce, fr, fr.fn.Module.Functions[inst.FuncIndex])
	case ir.OpCallIndirect:
		return e.doCallIndirect(ctx, ce, fr, inst)

	case ir.OpDrop:
		ce.pop()
	case ir.OpSelect:
		cond := ce.pop()
		b := ce.pop()
		a := ce.pop()
		if cond != 0 {
			ce.push(a)
		} else {
			ce.push(b)
		}

	case ir.OpLocalGet:
		ce.push(*e.local(ce, inst.Index))
	case ir.OpLocalSet:
		*e.local(ce, inst.Index) = ce.pop()
	case ir.OpLocalTee:
		*e.local(ce, inst.Index) = ce.peek()
	case ir.OpGlobalGet:
		ce.push(fr.fn.Module.Globals[inst.Index].Val)
	case ir.OpGlobalSet:
		fr.fn.Module.Globals[inst.Index].Val = ce.pop()

	case ir.OpI32Const, ir.OpI64Const, ir.OpF32Const, ir.OpF64Const:
		ce.push(inst.Value)

	case ir.OpI32Unop:
		e.execI32Unop(ce, inst.Subop)
	case ir.OpI32Binop:
		e.execI32Binop(ce, inst.Subop)
	case ir.OpI64Unop:
		e.execI64Unop(ce, inst.Subop)
	case ir.OpI64Binop:
		e.execI64Binop(ce, inst.Subop)
	case ir.OpF32Unop:
		e.execF32Unop(ce, inst.Subop)
	case ir.OpF32Binop:
		e.execF32Binop(ce, inst.Subop)
	case ir.OpF64Unop:
		e.execF64Unop(ce, inst.Subop)
	case ir.OpF64Binop:
		e.execF64Binop(ce, inst.Subop)
	case ir.OpI32Compare:
		e.execI32Compare(ce, inst.Subop)
	case ir.OpI64Compare:
		e.execI64Compare(ce, inst.Subop)
	case ir.OpF32Compare:
		e.execF32Compare(ce, inst.Subop)
	case ir.OpF64Compare:
		e.execF64Compare(ce, inst.Subop)
	case ir.OpConversion:
		e.execConversion(ce, inst.Conversion)

	case ir.OpI32Load, ir.OpI64Load, ir.OpF32Load, ir.OpF64Load,
		ir.OpI32Load8S, ir.OpI32Load8U, ir.OpI32Load16S, ir.OpI32Load16U,
		ir.OpI64Load8S, ir.OpI64Load8U, ir.OpI64Load16S, ir.OpI64Load16U,
		ir.OpI64Load32S, ir.OpI64Load32U:
		e.execLoad(ce, fr, inst)
	case ir.OpI32Store, ir.OpI64Store, ir.OpF32Store, ir.OpF64Store,
		ir.OpI32Store8, ir.OpI32Store16, ir.OpI64Store8, ir.OpI64Store16, ir.OpI64Store32:
		e.execStore(ce, fr, inst)
	case ir.OpMemorySize:
		ce.push(wordFromU32(fr.fn.Module.Memories[0].Pages()))
	case ir.OpMemoryGrow:
		delta := u32FromWord(ce.pop())
		prev, ok := fr.fn.Module.Memories[0].Grow(delta)
		if !ok {
			ce.push(wordFromI32(-1))
		} else {
			ce.push(wordFromU32(prev))
		}
	case ir.OpMemoryCopy, ir.OpMemoryFill, ir.OpMemoryInit:
		e.execBulkMemory(ce, fr, inst)
	case ir.OpDataDrop:
		fr.fn.Module.DataInstances[inst.SrcIndex].Dropped = true
		fr.fn.Module.DataInstances[inst.SrcIndex].Bytes = nil

	case ir.OpTableGet:
		e.execTableGet(ce, fr, inst)
	case ir.OpTableSet:
		e.execTableSet(ce, fr, inst)
	case ir.OpTableSize:
		ce.push(wordFromU32(uint32(len(fr.fn.Module.Tables[inst.Index].References))))
	case ir.OpTableGrow:
		e.execTableGrow(ce, fr, inst)
	case ir.OpTableFill, ir.OpTableCopy, ir.OpTableInit:
		e.execBulkTable(ce, fr, inst)
	case ir.OpElemDrop:
		fr.fn.Module.ElementInstances[inst.SrcIndex].Dropped = true
		fr.fn.Module.ElementInstances[inst.SrcIndex].References = nil

	case ir.OpRefNull:
		ce.push(0)
	case ir.OpRefIsNull:
		if ce.pop() == 0 {
			ce.push(1)
		} else {
			ce.push(0)
		}
	case ir.OpRefFunc:
		// inst.Index is a module-local function index; the pushed
		// reference must carry the store address (see FunctionInstance.Addr)
		// since it may later be compared/dispatched via Store.Functions.
		ce.push(uint64(fr.fn.Module.Functions[inst.Index].Addr) + 1)

	default:
		panic(fmt.Sprintf("interpreter: unhandled instruction kind %d", inst.Kind))
	}
	return false
}

// branch discards operands down to the label's entry height, keeping its
// arity of result values; the preprocessor has already computed both
// numbers onto the branch instruction, so no label-stack lookup is needed.
func (e *Engine) branch(ce *callEngine, t ir.BrTarget) {
	ce.dropKeep(t.ToDrop, t.Arity)
}

// doCall dispatches a direct call. A Wasm callee needs the caller's ip
// advanced past the call *before* a new frame is pushed (appending may
// reallocate the frame slice), so that resuming the caller after the callee
// returns continues at the right instruction; a host callee never touches
// the frame stack, so the caller's ip is left for run() to advance as usual.
func (e *Engine) doCall(ctx context.Context, ce *callEngine, fr *frame, callee *wasm.FunctionInstance) bool {
	if callee.Kind == wasm.FunctionKindHost {
		e.callHost(ctx, ce, callee)
		return false
	}
	fr.ip++
	e.pushWasmFrame(ce, callee)
	return true
}

func (e *Engine) doCallIndirect(ctx context.Context, ce *callEngine, fr *frame, inst *ir.Instruction) bool {
	entryIdx := u32FromWord(ce.pop())
	table := fr.fn.Module.Tables[inst.TableIndex]
	if entryIdx >= uint32(len(table.References)) {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds))
	}
	ref := table.References[entryIdx]
	if ref == 0 {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeUninitializedElement))
	}
	callee := fr.fn.Module.Store.Functions[ref-1]
	wantID := fr.fn.Module.TypeIDs[inst.TypeIndex]
	if callee.TypeID != wantID {
		panic(wasmruntime.NewTrap(wasmruntime.ErrRuntimeIndirectCallTypeMismatch))
	}
	return e.doCall(ctx, ce, fr, callee)
}

func (e *Engine) callHost(ctx context.Context, ce *callEngine, f *wasm.FunctionInstance) {
	n := len(f.Type.Params)
	resN := len(f.Type.Results)
	width := n
	if resN > width {
		width = resN
	}
	base := len(ce.values) - n
	for len(ce.values)-base < width {
		ce.push(0)
	}
	stack := ce.values[base : base+width]
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(*wasmruntime.Trap); ok {
					panic(r)
				}
				panic(wasmruntime.NewTrap(fmt.Errorf("%w: %v", wasmruntime.ErrRuntimeCallHostError, r)))
			}
		}()
		f.GoModFunc.Call(ctx, nil, stack)
	}()
	copy(ce.values[base:], stack[:resN])
	ce.values = ce.values[:base+resN]
}
