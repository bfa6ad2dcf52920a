//go:build amd64 && cgo

package bench

import (
	"context"
	"testing"

	"github.com/bytecodealliance/wasmtime-go"
	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-go/wasmer"

	wazero "github.com/tinywasm-go/tinywasm"
	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

func tinywasmAdd(t *testing.T, a, b uint32) uint64 {
	t.Helper()
	m := &wasm.Module{
		Types: []wasm.FunctionType{{
			Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
			Results: []api.ValueType{api.ValueTypeI32},
		}},
		Functions: []wasm.Function{{
			Type: 0,
			Body: []ir.Instruction{
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpLocalGet, Index: 1},
				{Kind: ir.OpI32Binop, Subop: ir.SubAdd},
				{Kind: ir.OpReturn},
			},
		}},
		Exports:   []wasm.Export{{Name: "add", Kind: api.ExternTypeFunc, Index: 0}},
		StartFunc: -1,
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, m)
	require.NoError(t, err)
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("bench-add"))
	require.NoError(t, err)

	res, err := inst.ExportedFunction("add").Call(ctx, uint64(a), uint64(b))
	require.NoError(t, err)
	require.Len(t, res, 1)
	return res[0]
}

func wasmtimeAdd(t *testing.T, a, b int32) int32 {
	t.Helper()
	store := wasmtime.NewStore(wasmtime.NewEngine())
	module, err := wasmtime.NewModule(store.Engine, addWasm)
	require.NoError(t, err)
	instance, err := wasmtime.NewInstance(store, module, nil)
	require.NoError(t, err)
	fn := instance.GetFunc(store, "add")
	require.NotNil(t, fn)
	result, err := fn.Call(store, a, b)
	require.NoError(t, err)
	return result.(int32)
}

func wasmerAdd(t *testing.T, a, b int32) int32 {
	t.Helper()
	store := wasmer.NewStore(wasmer.NewEngine())
	module, err := wasmer.NewModule(store, addWasm)
	require.NoError(t, err)
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	require.NoError(t, err)
	defer instance.Close()
	fn, err := instance.Exports.GetFunction("add")
	require.NoError(t, err)
	result, err := fn(a, b)
	require.NoError(t, err)
	return result.(int32)
}

// TestAddAgreesAcrossEngines cross-checks tinywasm's interpreter against
// wasmtime-go and wasmer-go executing the same module, encoded two ways: a
// preprocessed wasm.Module literal for tinywasm, and the equivalent binary
// encoding for the two reference engines.
func TestAddAgreesAcrossEngines(t *testing.T) {
	cases := []struct{ a, b int32 }{
		{2, 3},
		{0, 0},
		{-1, 1},
		{2147483647, 1}, // wraps, all three must agree on wraparound
	}
	for _, c := range cases {
		want := tinywasmAdd(t, uint32(c.a), uint32(c.b))
		require.Equal(t, int32(want), wasmtimeAdd(t, c.a, c.b), "wasmtime disagreed for add(%d,%d)", c.a, c.b)
		require.Equal(t, int32(want), wasmerAdd(t, c.a, c.b), "wasmer disagreed for add(%d,%d)", c.a, c.b)
	}
}
