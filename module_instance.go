package wazero

import (
	"context"
	"fmt"

	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

// moduleInstance adapts an instantiated *wasm.ModuleInstance to api.Module.
type moduleInstance struct {
	rt   *Runtime
	inst *wasm.ModuleInstance
}

var _ api.Module = (*moduleInstance)(nil)

func (m *moduleInstance) Name() string { return m.inst.Name }

func (m *moduleInstance) String() string { return fmt.Sprintf("module[%s]", m.inst.Name) }

func (m *moduleInstance) Memory() api.Memory {
	if len(m.inst.Memories) == 0 {
		return nil
	}
	return &memoryView{m.inst.Memories[0]}
}

func (m *moduleInstance) ExportedFunction(name string) api.Function {
	ex, ok := m.inst.Exports[name]
	if !ok || ex.Kind != api.ExternTypeFunc {
		return nil
	}
	return &exportedFunction{rt: m.rt, f: ex.Function}
}

func (m *moduleInstance) ExportedMemory(name string) api.Memory {
	ex, ok := m.inst.Exports[name]
	if !ok || ex.Kind != api.ExternTypeMemory {
		return nil
	}
	return &memoryView{ex.Memory}
}

func (m *moduleInstance) ExportedGlobal(name string) api.Global {
	ex, ok := m.inst.Exports[name]
	if !ok || ex.Kind != api.ExternTypeGlobal {
		return nil
	}
	if ex.Global.Type.Mutable {
		return &mutableGlobalView{ex.Global}
	}
	return &globalView{ex.Global}
}

func (m *moduleInstance) CloseWithExitCode(context.Context, uint32) error { return nil }
func (m *moduleInstance) Close(context.Context) error                    { return nil }

// exportedFunction adapts a *wasm.FunctionInstance to api.Function, boxing
// and unboxing raw words around the interpreter's Call.
type exportedFunction struct {
	rt *Runtime
	f  *wasm.FunctionInstance
}

func (f *exportedFunction) Definition() api.FunctionDefinition { return functionDefinition{f.f} }

// functionDefinition adapts a *wasm.FunctionInstance to api.FunctionDefinition.
type functionDefinition struct{ fn *wasm.FunctionInstance }

func (d functionDefinition) DebugName() string         { return d.fn.DebugName }
func (d functionDefinition) ParamTypes() []api.ValueType  { return d.fn.Type.Params }
func (d functionDefinition) ResultTypes() []api.ValueType { return d.fn.Type.Results }

func (f *exportedFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if len(params) != len(f.f.Type.Params) {
		return nil, fmt.Errorf("invocation error: expected %d params, got %d", len(f.f.Type.Params), len(params))
	}
	return f.rt.engine.Call(ctx, f.f, params)
}

type globalView struct{ g *wasm.GlobalInstance }

func (g *globalView) Type() api.ValueType        { return g.g.Type.ValType }
func (g *globalView) Get(context.Context) uint64 { return g.g.Val }
func (g *globalView) String() string             { return fmt.Sprintf("global(%v)", g.g.Val) }

type mutableGlobalView struct{ g *wasm.GlobalInstance }

func (g *mutableGlobalView) Type() api.ValueType        { return g.g.Type.ValType }
func (g *mutableGlobalView) Get(context.Context) uint64 { return g.g.Val }
func (g *mutableGlobalView) Set(_ context.Context, v uint64) { g.g.Val = v }
func (g *mutableGlobalView) String() string             { return fmt.Sprintf("global(%v)", g.g.Val) }
