package wazero

import (
	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/wasm"
)

// RuntimeConfig controls the WebAssembly feature set a Runtime accepts.
// Like the teacher's configuration types, this is an immutable value: every
// With* method returns a modified copy, so configuring a Runtime never
// affects a config value shared with another.
type RuntimeConfig struct {
	enabledFeatures api.CoreFeatures
}

// NewRuntimeConfig returns a RuntimeConfig enabling the full WebAssembly 2.0
// core feature set TinyWasm implements.
func NewRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{enabledFeatures: api.CoreFeaturesV2}
}

// WithCoreFeatures replaces the enabled feature set wholesale. The set is
// recorded on the Runtime's store; modules and instructions are not checked
// against it.
func (c RuntimeConfig) WithCoreFeatures(f api.CoreFeatures) RuntimeConfig {
	c.enabledFeatures = f
	return c
}

// ModuleConfig configures one call to Runtime.InstantiateModule: the
// instance's registered name (used by other modules' imports to find it)
// and any explicit import overrides, which take precedence over
// auto-resolution against already-instantiated named modules.
type ModuleConfig struct {
	name      string
	overrides map[string]map[string]wasm.Extern
}

func NewModuleConfig() *ModuleConfig {
	return &ModuleConfig{overrides: map[string]map[string]wasm.Extern{}}
}

// WithName sets the module's registered name; re-instantiating under the
// same name replaces the prior registration.
func (c *ModuleConfig) WithName(name string) *ModuleConfig {
	clone := *c
	clone.name = name
	return &clone
}

// WithImport overrides a single import, bypassing auto-resolution against
// already-instantiated modules of the same name. ext is built with
// ExternFromModule.
func (c *ModuleConfig) WithImport(module, name string, ext Extern) *ModuleConfig {
	clone := *c
	clone.overrides = cloneOverrides(c.overrides)
	if clone.overrides[module] == nil {
		clone.overrides[module] = map[string]wasm.Extern{}
	}
	clone.overrides[module][name] = ext.ext
	return &clone
}

// Extern is a reference to a single export of an already-instantiated
// module (a function, memory, table, or global), usable as an explicit
// import override via ModuleConfig.WithImport.
type Extern struct {
	ext wasm.Extern
}

// ExternFromModule looks up name among m's exports, returning it as an
// Extern suitable for ModuleConfig.WithImport. The second return is false
// if m has no export by that name.
func ExternFromModule(m api.Module, name string) (Extern, bool) {
	mi, ok := m.(*moduleInstance)
	if !ok {
		return Extern{}, false
	}
	ex, ok := mi.inst.Exports[name]
	if !ok {
		return Extern{}, false
	}
	return Extern{ext: externFromExport(ex)}, true
}

func cloneOverrides(in map[string]map[string]wasm.Extern) map[string]map[string]wasm.Extern {
	out := make(map[string]map[string]wasm.Extern, len(in))
	for k, v := range in {
		inner := make(map[string]wasm.Extern, len(v))
		for ik, iv := range v {
			inner[ik] = iv
		}
		out[k] = inner
	}
	return out
}

func (c *ModuleConfig) lookupOverride(module, name string) (wasm.Extern, bool) {
	m, ok := c.overrides[module]
	if !ok {
		return wasm.Extern{}, false
	}
	e, ok := m[name]
	return e, ok
}
