// Package conformance exercises the public Runtime/Module facade against a
// set of hand-authored modules covering the core execution paths: direct
// arithmetic, recursive calls, out-of-bounds traps, division traps,
// call_indirect, and mutable globals. Each module is written directly as a
// wasm.Module Go literal since no binary/text parser is in scope here.
package conformance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	wazero "github.com/tinywasm-go/tinywasm"
	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

func i32() []api.ValueType { return []api.ValueType{api.ValueTypeI32} }

// S1: (func (export "add") (param i32 i32) (result i32) local.get 0 local.get 1 i32.add)
func TestS1Add(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: i32()}},
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
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("s1"))
	require.NoError(t, err)

	res, err := inst.ExportedFunction("add").Call(ctx, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, res)
}

// S2: recursive fibonacci, fib(10) == 55.
//
//	fib(n):
//	  if n < 2: return n
//	  return fib(n-1) + fib(n-2)
func TestS2Fibonacci(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FunctionType{{Params: i32(), Results: i32()}},
		Functions: []wasm.Function{{
			Type: 0,
			Body: []ir.Instruction{
				// 0-2: if n < 2
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpI32Const, Value: 2},
				{Kind: ir.OpI32Compare, Subop: ir.SubLtS},
				// 3: if, jumping to index 6 (the else arm) when false
				{Kind: ir.OpIf, EndOffset: 3},
				// 4-5: then: return n
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpReturn},
				// 6-9: fib(n-1)
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpI32Const, Value: 1},
				{Kind: ir.OpI32Binop, Subop: ir.SubSub},
				{Kind: ir.OpCall, FuncIndex: 0},
				// 10-13: fib(n-2)
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpI32Const, Value: 2},
				{Kind: ir.OpI32Binop, Subop: ir.SubSub},
				{Kind: ir.OpCall, FuncIndex: 0},
				// 14-15: add and return
				{Kind: ir.OpI32Binop, Subop: ir.SubAdd},
				{Kind: ir.OpReturn},
			},
		}},
		Exports:   []wasm.Export{{Name: "fib", Kind: api.ExternTypeFunc, Index: 0}},
		StartFunc: -1,
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, m)
	require.NoError(t, err)
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("s2"))
	require.NoError(t, err)

	res, err := inst.ExportedFunction("fib").Call(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{55}, res)
}

// S3: (memory 1)(func (export "oob") (param i32) (result i32) local.get 0 i32.load)
// oob(65533) traps MemoryOutOfBounds: a 4-byte load at offset 65533 runs past
// the single page's 65536 bytes.
func TestS3MemoryOutOfBounds(t *testing.T) {
	m := &wasm.Module{
		Types:     []wasm.FunctionType{{Params: i32(), Results: i32()}},
		Memories:  []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Functions: []wasm.Function{{
			Type: 0,
			Body: []ir.Instruction{
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpI32Load, Mem: ir.MemArg{Offset: 0, Align: 2}},
				{Kind: ir.OpReturn},
			},
		}},
		Exports:   []wasm.Export{{Name: "oob", Kind: api.ExternTypeFunc, Index: 0}},
		StartFunc: -1,
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, m)
	require.NoError(t, err)
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("s3"))
	require.NoError(t, err)

	_, err = inst.ExportedFunction("oob").Call(ctx, 65533)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds")
}

// S4: (func (export "divz") (param i32) (result i32) i32.const 1 local.get 0 i32.div_s)
// divz(0) traps IntegerDivideByZero.
func TestS4DivideByZero(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FunctionType{{Params: i32(), Results: i32()}},
		Functions: []wasm.Function{{
			Type: 0,
			Body: []ir.Instruction{
				{Kind: ir.OpI32Const, Value: 1},
				{Kind: ir.OpLocalGet, Index: 0},
				{Kind: ir.OpI32Binop, Subop: ir.SubDivS},
				{Kind: ir.OpReturn},
			},
		}},
		Exports:   []wasm.Export{{Name: "divz", Kind: api.ExternTypeFunc, Index: 0}},
		StartFunc: -1,
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, m)
	require.NoError(t, err)
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("s4"))
	require.NoError(t, err)

	_, err = inst.ExportedFunction("divz").Call(ctx, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "divide by zero")
}

// S5: (table 1 funcref)(func $f (result i32) i32.const 42)(elem (i32.const 0) $f)
//
//	(func (export "ci") (result i32) i32.const 0 call_indirect (result i32))
//
// ci() == 42.
func TestS5CallIndirect(t *testing.T) {
	m := &wasm.Module{
		Types:  []wasm.FunctionType{{Results: i32()}},
		Tables: []wasm.TableType{{ElemType: api.ValueTypeFuncref, Limits: wasm.Limits{Min: 1}}},
		Functions: []wasm.Function{
			{ // $f, index 0
				Type: 0,
				Body: []ir.Instruction{
					{Kind: ir.OpI32Const, Value: 42},
					{Kind: ir.OpReturn},
				},
			},
			{ // ci, index 1
				Type: 0,
				Body: []ir.Instruction{
					{Kind: ir.OpI32Const, Value: 0},
					{Kind: ir.OpCallIndirect, TableIndex: 0, TypeIndex: 0},
					{Kind: ir.OpReturn},
				},
			},
		},
		Elements: []wasm.ElementSegment{{
			Mode:       wasm.SegmentActive,
			ElemType:   api.ValueTypeFuncref,
			TableIndex: 0,
			Offset:     wasm.ConstantExpression{Kind: wasm.ConstI32, Value: 0},
			Init:       []wasm.ConstantExpression{{Kind: wasm.ConstRefFunc, Value: 0}},
		}},
		Exports:   []wasm.Export{{Name: "ci", Kind: api.ExternTypeFunc, Index: 1}},
		StartFunc: -1,
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, m)
	require.NoError(t, err)
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("s5"))
	require.NoError(t, err)

	res, err := inst.ExportedFunction("ci").Call(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

// S6: (global (mut i32) (i32.const 0))
//
//	(func (export "inc") (result i32) global.get 0 i32.const 1 i32.add global.set 0 global.get 0)
//
// two calls to inc() return 1 then 2.
func TestS6MutableGlobal(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FunctionType{{Results: i32()}},
		Globals: []wasm.GlobalDeclaration{{
			Type: wasm.GlobalType{ValType: api.ValueTypeI32, Mutable: true},
			Init: wasm.ConstantExpression{Kind: wasm.ConstI32, Value: 0},
		}},
		Functions: []wasm.Function{{
			Type: 0,
			Body: []ir.Instruction{
				{Kind: ir.OpGlobalGet, Index: 0},
				{Kind: ir.OpI32Const, Value: 1},
				{Kind: ir.OpI32Binop, Subop: ir.SubAdd},
				{Kind: ir.OpGlobalSet, Index: 0},
				{Kind: ir.OpGlobalGet, Index: 0},
				{Kind: ir.OpReturn},
			},
		}},
		Exports:   []wasm.Export{{Name: "inc", Kind: api.ExternTypeFunc, Index: 0}},
		StartFunc: -1,
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, m)
	require.NoError(t, err)
	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("s6"))
	require.NoError(t, err)

	fn := inst.ExportedFunction("inc")
	res1, err := fn.Call(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res1)

	res2, err := fn.Call(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, res2)
}
