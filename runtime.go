// Package wazero provides the embedding API for TinyWasm: a Runtime owns a
// Store and links/instantiates modules into it, exposing their exports as
// api.Module values.
package wazero

import (
	"context"
	"fmt"

	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/engine/interpreter"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

// Runtime allows embedding of WebAssembly modules. A Runtime and anything
// instantiated from it are bound to a single goroutine: this matches the
// single-threaded store discipline of the execution model, and callers that
// need concurrency must run one Runtime per goroutine or synchronize access
// themselves.
type Runtime struct {
	store  *wasm.Store
	engine *interpreter.Engine
	config RuntimeConfig
}

// NewRuntime creates a Runtime with default configuration, supporting the
// WebAssembly 2.0 core feature set (api.CoreFeaturesV2).
func NewRuntime(ctx context.Context) *Runtime {
	return NewRuntimeWithConfig(ctx, NewRuntimeConfig())
}

// NewRuntimeWithConfig creates a Runtime with explicit configuration.
func NewRuntimeWithConfig(_ context.Context, rc RuntimeConfig) *Runtime {
	return &Runtime{
		store:  wasm.NewStore(rc.enabledFeatures),
		engine: interpreter.NewEngine(),
		config: rc,
	}
}

// CompiledModule is a preprocessed module ready to instantiate, along with
// its name-resolved import declarations.
type CompiledModule struct {
	module *wasm.Module
}

// CompileModule adopts an already-preprocessed module value as input;
// TinyWasm's engine never parses or validates binary modules itself (see
// the archive package for an optional serialized form of this same value).
func (r *Runtime) CompileModule(_ context.Context, m *wasm.Module) (*CompiledModule, error) {
	return &CompiledModule{module: m}, nil
}

// InstantiateModule links compiled against any already-instantiated named
// modules in this Runtime (resolving imports by (module, name)), applies
// cfg's overrides first, then instantiates it, running its start function
// if declared.
func (r *Runtime) InstantiateModule(ctx context.Context, compiled *CompiledModule, cfg *ModuleConfig) (api.Module, error) {
	if cfg == nil {
		cfg = NewModuleConfig()
	}
	m := compiled.module
	imports := wasm.NewImports()
	for _, imp := range m.Imports {
		if ext, ok := cfg.lookupOverride(imp.Module, imp.Name); ok {
			imports.Define(imp.Module, imp.Name, ext)
			continue
		}
		export, err := r.store.GetExport(imp.Module, imp.Name)
		if err != nil {
			return nil, fmt.Errorf("resolving import %s.%s: %w", imp.Module, imp.Name, err)
		}
		imports.Define(imp.Module, imp.Name, externFromExport(export))
	}

	name := cfg.name
	if name == "" {
		name = fmt.Sprintf("module-%d", len(r.store.Functions))
	}
	inst, err := r.store.Instantiate(ctx, r.engine, m, name, imports)
	if err != nil {
		return nil, err
	}
	return &moduleInstance{rt: r, inst: inst}, nil
}

func externFromExport(e *wasm.ExportInstance) wasm.Extern {
	return wasm.Extern{Kind: e.Kind, Function: e.Function, Memory: e.Memory, Table: e.Table, Global: e.Global}
}

// Close releases resources associated with every module this Runtime
// instantiated. TinyWasm holds no off-heap resources, so Close is a no-op
// kept for API symmetry with embedders that do (e.g. a JIT-backed engine).
func (r *Runtime) Close(context.Context) error { return nil }
