package wazero

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

// NewHostModuleBuilder begins building a host module: a named collection of
// Go-defined functions and an optional exported memory, instantiated into
// this Runtime's store so that Wasm-defined modules can import them by
// (moduleName, exportName).
func (r *Runtime) NewHostModuleBuilder(moduleName string) HostModuleBuilder {
	return &hostModuleBuilder{r: r, name: moduleName}
}

// HostModuleBuilder accumulates a host module's exports before Instantiate
// commits them to the Runtime's store.
type HostModuleBuilder interface {
	NewFunctionBuilder() HostFunctionBuilder
	ExportMemory(name string, minPages uint32) HostModuleBuilder
	ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder
	Instantiate(ctx context.Context) (api.Module, error)
}

// HostFunctionBuilder configures one Go-defined function before Export adds
// it to the enclosing HostModuleBuilder.
type HostFunctionBuilder interface {
	// WithGoModuleFunction defines the function using the untyped,
	// raw-stack-word calling convention, with an explicit signature.
	WithGoModuleFunction(fn api.GoModuleFunction, params, results []api.ValueType) HostFunctionBuilder
	// WithGoFunction is WithGoModuleFunction for a function that never
	// needs access to the calling api.Module.
	WithGoFunction(fn api.GoFunction, params, results []api.ValueType) HostFunctionBuilder
	// WithFunc reflects fn's signature into a WithGoModuleFunction
	// adapter. fn must be a Go func; its first two parameters may
	// optionally be context.Context and/or api.Module, and its remaining
	// parameters and results must be among uint32, int32, uint64, int64,
	// float32, float64, or uintptr (externref).
	WithFunc(fn interface{}) HostFunctionBuilder
	Export(name string) HostModuleBuilder
}

type hostModuleBuilder struct {
	r       *Runtime
	name    string
	fns     []namedHostFunction
	memName string
	memMin  uint32
	memMax  uint32
	memHasMax bool
	hasMem  bool
}

type namedHostFunction struct {
	name string
	fn   *wasm.FunctionInstance
}

func (b *hostModuleBuilder) NewFunctionBuilder() HostFunctionBuilder {
	return &hostFunctionBuilder{module: b}
}

func (b *hostModuleBuilder) ExportMemory(name string, minPages uint32) HostModuleBuilder {
	b.hasMem, b.memName, b.memMin, b.memHasMax = true, name, minPages, false
	return b
}

func (b *hostModuleBuilder) ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder {
	b.hasMem, b.memName, b.memMin, b.memMax, b.memHasMax = true, name, minPages, maxPages, true
	return b
}

// Instantiate commits the accumulated exports as a ModuleInstance registered
// under this builder's module name, available to satisfy other modules'
// imports by (moduleName, exportName).
func (b *hostModuleBuilder) Instantiate(_ context.Context) (api.Module, error) {
	inst := &wasm.ModuleInstance{
		Exports: map[string]*wasm.ExportInstance{},
	}
	for _, nf := range b.fns {
		if _, dup := inst.Exports[nf.name]; dup {
			return nil, fmt.Errorf("host module %q: duplicate export %q", b.name, nf.name)
		}
		inst.Functions = append(inst.Functions, nf.fn)
		inst.Exports[nf.name] = &wasm.ExportInstance{Kind: api.ExternTypeFunc, Function: nf.fn}
	}
	if b.hasMem {
		mem := wasm.NewMemoryInstance(wasm.MemoryType{Limits: wasm.Limits{Min: b.memMin, Max: b.memMax, HasMax: b.memHasMax}})
		inst.Memories = []*wasm.MemoryInstance{mem}
		inst.Exports[b.memName] = &wasm.ExportInstance{Kind: api.ExternTypeMemory, Memory: mem}
	}
	b.r.store.RegisterModuleInstance(b.name, inst)
	return &moduleInstance{rt: b.r, inst: inst}, nil
}

type hostFunctionBuilder struct {
	module  *hostModuleBuilder
	fn      api.GoModuleFunction
	params  []api.ValueType
	results []api.ValueType
}

func (fb *hostFunctionBuilder) WithGoModuleFunction(fn api.GoModuleFunction, params, results []api.ValueType) HostFunctionBuilder {
	fb.fn, fb.params, fb.results = fn, params, results
	return fb
}

func (fb *hostFunctionBuilder) WithGoFunction(fn api.GoFunction, params, results []api.ValueType) HostFunctionBuilder {
	fb.fn = api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
		fn.Call(ctx, stack)
	})
	fb.params, fb.results = params, results
	return fb
}

func (fb *hostFunctionBuilder) WithFunc(fn interface{}) HostFunctionBuilder {
	adapted, params, results, err := reflectHostFunc(fn)
	if err != nil {
		panic(fmt.Sprintf("tinywasm: WithFunc: %s", err))
	}
	fb.fn, fb.params, fb.results = adapted, params, results
	return fb
}

func (fb *hostFunctionBuilder) Export(name string) HostModuleBuilder {
	t := &wasm.FunctionType{Params: fb.params, Results: fb.results}
	fi := wasm.NewHostFunction(fb.module.r.store, name, t, fb.fn)
	fb.module.fns = append(fb.module.fns, namedHostFunction{name: name, fn: fi})
	return fb.module
}

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	modType = reflect.TypeOf((*api.Module)(nil)).Elem()
)

// reflectHostFunc builds an api.GoModuleFunction that converts native Go
// scalars to/from the raw uint64 words the engine's call stack uses, so
// host functions can be written with ordinary Go signatures instead of the
// raw stack convention.
func reflectHostFunc(fn interface{}) (api.GoModuleFunction, []api.ValueType, []api.ValueType, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, nil, nil, fmt.Errorf("not a func: %v", t)
	}

	in := 0
	passCtx, passMod := false, false
	if in < t.NumIn() && t.In(in) == ctxType {
		passCtx = true
		in++
	}
	if in < t.NumIn() && t.In(in) == modType {
		passMod = true
		in++
	}

	var params, results []api.ValueType
	for i := in; i < t.NumIn(); i++ {
		vt, err := goTypeToValueType(t.In(i))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("param %d: %w", i, err)
		}
		params = append(params, vt)
	}
	for i := 0; i < t.NumOut(); i++ {
		vt, err := goTypeToValueType(t.Out(i))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, vt)
	}

	goFn := api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
		args := make([]reflect.Value, 0, t.NumIn())
		if passCtx {
			args = append(args, reflect.ValueOf(ctx))
		}
		if passMod {
			args = append(args, reflect.ValueOf(mod))
		}
		for i, vt := range params {
			args = append(args, wordToReflect(vt, stack[i], t.In(in+i)))
		}
		out := v.Call(args)
		for i, r := range out {
			stack[i] = reflectToWord(results[i], r)
		}
	})
	return goFn, params, results, nil
}

func goTypeToValueType(t reflect.Type) (api.ValueType, error) {
	switch t.Kind() {
	case reflect.Uint32, reflect.Int32:
		return api.ValueTypeI32, nil
	case reflect.Uint64, reflect.Int64:
		return api.ValueTypeI64, nil
	case reflect.Float32:
		return api.ValueTypeF32, nil
	case reflect.Float64:
		return api.ValueTypeF64, nil
	case reflect.Uintptr:
		return api.ValueTypeExternref, nil
	default:
		return 0, fmt.Errorf("unsupported host function type %v", t)
	}
}

func wordToReflect(vt api.ValueType, w uint64, target reflect.Type) reflect.Value {
	switch vt {
	case api.ValueTypeI32:
		if target.Kind() == reflect.Int32 {
			return reflect.ValueOf(int32(uint32(w))).Convert(target)
		}
		return reflect.ValueOf(uint32(w)).Convert(target)
	case api.ValueTypeI64:
		if target.Kind() == reflect.Int64 {
			return reflect.ValueOf(int64(w)).Convert(target)
		}
		return reflect.ValueOf(w).Convert(target)
	case api.ValueTypeF32:
		return reflect.ValueOf(api.DecodeF32(w)).Convert(target)
	case api.ValueTypeF64:
		return reflect.ValueOf(api.DecodeF64(w)).Convert(target)
	case api.ValueTypeExternref:
		return reflect.ValueOf(api.DecodeExternref(w)).Convert(target)
	default:
		panic("unreachable")
	}
}

func reflectToWord(vt api.ValueType, r reflect.Value) uint64 {
	switch vt {
	case api.ValueTypeI32:
		if r.Kind() == reflect.Int32 {
			return api.EncodeI32(int32(r.Int()))
		}
		return uint64(uint32(r.Uint()))
	case api.ValueTypeI64:
		if r.Kind() == reflect.Int64 {
			return api.EncodeI64(r.Int())
		}
		return r.Uint()
	case api.ValueTypeF32:
		return api.EncodeF32(float32(r.Float()))
	case api.ValueTypeF64:
		return api.EncodeF64(r.Float())
	case api.ValueTypeExternref:
		return api.EncodeExternref(uintptr(r.Uint()))
	default:
		panic("unreachable")
	}
}
