package archive_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/archive"
	"github.com/tinywasm-go/tinywasm/internal/ir"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

// addModule builds the "add" module from the seed scenario: (param i32 i32)
// (result i32), local.get 0, local.get 1, i32.add, end.
func addModule() *wasm.Module {
	return &wasm.Module{
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
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := addModule()

	data, err := archive.Encode(orig)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := archive.Decode(data)
	require.NoError(t, err)
	require.Equal(t, orig, got)
}

func TestDecodeRejectsForeignData(t *testing.T) {
	_, err := archive.Decode([]byte("not an archive"))
	require.Error(t, err)
}

