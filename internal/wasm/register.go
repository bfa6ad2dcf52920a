package wasm

// RegisterModuleInstance makes an already-built ModuleInstance (typically a
// host module, which has no Wasm-defined functions to instantiate through
// Instantiate) available for later lookups by name, e.g. to satisfy another
// module's imports.
func (s *Store) RegisterModuleInstance(name string, inst *ModuleInstance) {
	inst.Name = name
	inst.Store = s
	s.mux.Lock()
	s.modules[name] = inst
	s.mux.Unlock()
}
