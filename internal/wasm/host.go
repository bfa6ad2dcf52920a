package wasm

import "github.com/tinywasm-go/tinywasm/api"

// NewHostFunction builds a FunctionInstance wrapping a Go-defined callback
// and registers it in s, the same way a locally defined Wasm function is
// registered during instantiation: it is given a store address (so it can
// be placed in a table and reached via call_indirect or ref.func) and an
// interned TypeID (so call_indirect's type check against it behaves
// identically to a Wasm-defined callee). Both the untyped
// (GoFunction/GoModuleFunction, raw-stack-word signature) and typed
// (api.Function via reflection) calling conventions ultimately resolve to a
// GoModuleFunction value by the time they reach the store; the typed
// convenience wrapper lives in the public builder package and converts
// native scalars to/from raw words before forwarding here.
func NewHostFunction(s *Store, name string, t *FunctionType, fn api.GoModuleFunction) *FunctionInstance {
	fi := &FunctionInstance{
		Kind:      FunctionKindHost,
		Type:      t,
		TypeID:    s.getFunctionTypeID(t),
		GoModFunc: fn,
		DebugName: name,
	}
	fi.Addr = Index(len(s.Functions))
	s.Functions = append(s.Functions, fi)
	return fi
}
