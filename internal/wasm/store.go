package wasm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/wasmruntime"
)

// Engine executes a function's preprocessed body. The store depends on this
// interface, rather than the other way around, so that internal/wasm never
// imports internal/engine/interpreter: the interpreter imports internal/wasm
// instead, and is handed to the store at construction time.
type Engine interface {
	Call(ctx context.Context, f *FunctionInstance, params []uint64) ([]uint64, error)
}

// Extern is a host-provided (or re-exported) value that can satisfy a
// module's import declaration.
type Extern struct {
	Kind     api.ExternType
	Function *FunctionInstance
	Memory   *MemoryInstance
	Table    *TableInstance
	Global   *GlobalInstance
}

// Imports maps (module, name) to a host-provided Extern.
type Imports struct {
	entries map[string]map[string]Extern
}

func NewImports() *Imports {
	return &Imports{entries: map[string]map[string]Extern{}}
}

func (im *Imports) Define(module, name string, e Extern) {
	if im.entries[module] == nil {
		im.entries[module] = map[string]Extern{}
	}
	im.entries[module][name] = e
}

func (im *Imports) lookup(module, name string) (Extern, bool) {
	m, ok := im.entries[module]
	if !ok {
		return Extern{}, false
	}
	e, ok := m[name]
	return e, ok
}

func (s *Store) getFunctionTypeID(t *FunctionType) FunctionTypeID {
	key := typeKey(t)
	if id, ok := s.typeIDs[key]; ok {
		return id
	}
	id := FunctionTypeID(len(s.typeIDs))
	s.typeIDs[key] = id
	return id
}

func typeKey(t *FunctionType) string {
	h := sha256.New()
	for _, p := range t.Params {
		_ = binary.Write(h, binary.LittleEndian, p)
	}
	h.Write([]byte{0xff})
	for _, r := range t.Results {
		_ = binary.Write(h, binary.LittleEndian, r)
	}
	return string(h.Sum(nil))
}

// Instantiate allocates every object a Module declares, resolves its
// imports against imports, evaluates constant initializers, applies active
// element/data segments, populates the export table, and invokes the start
// function if one is declared.
func (s *Store) Instantiate(ctx context.Context, engine Engine, m *Module, name string, imports *Imports) (*ModuleInstance, error) {
	inst := &ModuleInstance{
		Name:    name,
		Store:   s,
		Types:   m.Types,
		Exports: map[string]*ExportInstance{},
	}
	inst.TypeIDs = make([]FunctionTypeID, len(m.Types))
	for i := range m.Types {
		inst.TypeIDs[i] = s.getFunctionTypeID(&m.Types[i])
	}

	if err := s.resolveImports(inst, m, imports); err != nil {
		return nil, err
	}
	s.allocateLocalFunctions(inst, m)
	if err := s.allocateTablesAndMemories(inst, m); err != nil {
		return nil, err
	}
	if err := s.allocateGlobals(inst, m); err != nil {
		return nil, err
	}
	if err := s.buildDataAndElementInstances(inst, m); err != nil {
		return nil, err
	}
	buildExports(inst, m)
	if err := s.applyElements(inst, m); err != nil {
		return nil, err
	}
	if err := s.applyData(inst, m); err != nil {
		return nil, err
	}

	if m.StartFunc >= 0 {
		f := inst.Functions[m.StartFunc]
		if _, err := engine.Call(ctx, f, nil); err != nil {
			var trap *wasmruntime.Trap
			if tr, ok := asTrap(err); ok {
				trap = tr
			}
			return nil, &wasmruntime.InstantiationError{Reason: "start function trapped", Trap: trap}
		}
	}

	s.mux.Lock()
	s.modules[name] = inst
	s.mux.Unlock()
	return inst, nil
}

func asTrap(err error) (*wasmruntime.Trap, bool) {
	t, ok := err.(*wasmruntime.Trap)
	return t, ok
}

func (s *Store) resolveImports(inst *ModuleInstance, m *Module, imports *Imports) error {
	for i, imp := range m.Imports {
		ext, ok := imports.lookup(imp.Module, imp.Name)
		if !ok {
			return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "not found in imports"}
		}
		switch imp.Kind {
		case ImportFunc:
			if ext.Kind != api.ExternTypeFunc || ext.Function == nil {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "expected a function"}
			}
			want := &m.Types[imp.DescFunc]
			if !ext.Function.Type.Equal(want) {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name,
					Reason: fmt.Sprintf("signature mismatch: import[%d] wants %v, got %v", i, want, ext.Function.Type)}
			}
			inst.Functions = append(inst.Functions, ext.Function)
		case ImportTable:
			if ext.Kind != api.ExternTypeTable || ext.Table == nil {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "expected a table"}
			}
			if ext.Table.ElemType != imp.DescTable.ElemType {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "table element type mismatch"}
			}
			provided := Limits{Min: uint32(len(ext.Table.References)), Max: ext.Table.Max, HasMax: ext.Table.HasMax}
			if !imp.DescTable.Limits.Matches(provided) {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "table limits mismatch"}
			}
			inst.Tables = append(inst.Tables, ext.Table)
		case ImportMemory:
			if ext.Kind != api.ExternTypeMemory || ext.Memory == nil {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "expected a memory"}
			}
			provided := Limits{Min: ext.Memory.Pages(), Max: ext.Memory.Max, HasMax: ext.Memory.HasMax}
			if !imp.DescMemory.Limits.Matches(provided) {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "memory limits mismatch"}
			}
			inst.Memories = append(inst.Memories, ext.Memory)
		case ImportGlobal:
			if ext.Kind != api.ExternTypeGlobal || ext.Global == nil {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "expected a global"}
			}
			if ext.Global.Type.ValType != imp.DescGlobal.ValType || ext.Global.Type.Mutable != imp.DescGlobal.Mutable {
				return &wasmruntime.LinkingError{Module: imp.Module, Name: imp.Name, Reason: "global type/mutability mismatch"}
			}
			inst.Globals = append(inst.Globals, ext.Global)
		}
	}
	return nil
}

func (s *Store) allocateLocalFunctions(inst *ModuleInstance, m *Module) {
	for i := range m.Functions {
		fn := &m.Functions[i]
		t := &m.Types[fn.Type]
		fi := &FunctionInstance{
			Kind:       FunctionKindWasm,
			Type:       t,
			TypeID:     inst.TypeIDs[fn.Type],
			LocalTypes: fn.LocalTypes,
			Body:       fn.Body,
			Module:     inst,
		}
		fi.Addr = Index(len(s.Functions))
		inst.Functions = append(inst.Functions, fi)
		s.Functions = append(s.Functions, fi)
	}
}

func (s *Store) allocateTablesAndMemories(inst *ModuleInstance, m *Module) error {
	for _, tt := range m.Tables {
		ti := NewTableInstance(tt)
		inst.Tables = append(inst.Tables, ti)
		s.Tables = append(s.Tables, ti)
	}
	for _, mt := range m.Memories {
		mi := NewMemoryInstance(mt)
		inst.Memories = append(inst.Memories, mi)
		s.Memories = append(s.Memories, mi)
	}
	return nil
}

func (s *Store) allocateGlobals(inst *ModuleInstance, m *Module) error {
	for _, g := range m.Globals {
		val, err := evaluateConstExpression(inst, g.Init)
		if err != nil {
			return &wasmruntime.InstantiationError{Reason: "invalid global initializer: " + err.Error()}
		}
		gi := &GlobalInstance{Type: g.Type, Val: val}
		inst.Globals = append(inst.Globals, gi)
		s.Globals = append(s.Globals, gi)
	}
	return nil
}

func (s *Store) buildDataAndElementInstances(inst *ModuleInstance, m *Module) error {
	for _, d := range m.Data {
		di := &DataInstance{Bytes: d.Init}
		inst.DataInstances = append(inst.DataInstances, di)
		s.DataInsts = append(s.DataInsts, di)
	}
	for _, e := range m.Elements {
		refs := make([]uint64, len(e.Init))
		for i, c := range e.Init {
			v, err := evaluateConstExpression(inst, c)
			if err != nil {
				return &wasmruntime.InstantiationError{Reason: "invalid element initializer: " + err.Error()}
			}
			refs[i] = v
		}
		ei := &ElementInstance{ElemType: e.ElemType, References: refs}
		inst.ElementInstances = append(inst.ElementInstances, ei)
		s.Elements = append(s.Elements, ei)
	}
	return nil
}

func buildExports(inst *ModuleInstance, m *Module) {
	for _, e := range m.Exports {
		ei := &ExportInstance{Kind: e.Kind}
		switch e.Kind {
		case api.ExternTypeFunc:
			ei.Function = inst.Functions[e.Index]
		case api.ExternTypeMemory:
			ei.Memory = inst.Memories[e.Index]
		case api.ExternTypeTable:
			ei.Table = inst.Tables[e.Index]
		case api.ExternTypeGlobal:
			ei.Global = inst.Globals[e.Index]
		}
		inst.Exports[e.Name] = ei
	}
}

// applyElements copies active element segments into their target tables.
// Per spec, a zero-length copy never touches the table and is permitted
// even against a segment that has (for data segments analogously) already
// been dropped.
func (s *Store) applyElements(inst *ModuleInstance, m *Module) error {
	for i, e := range m.Elements {
		if e.Mode != SegmentActive {
			continue
		}
		refs := inst.ElementInstances[i].References
		if len(refs) == 0 {
			continue
		}
		offsetVal, err := evaluateConstExpression(inst, e.Offset)
		if err != nil {
			return &wasmruntime.InstantiationError{Reason: "invalid element offset: " + err.Error()}
		}
		table := inst.Tables[e.TableIndex]
		offset := uint32(offsetVal)
		if uint64(offset)+uint64(len(refs)) > uint64(len(table.References)) {
			return &wasmruntime.InstantiationError{Reason: "active element segment out of bounds",
				Trap: wasmruntime.NewTrap(wasmruntime.ErrRuntimeTableOutOfBounds)}
		}
		copy(table.References[offset:], refs)
		inst.ElementInstances[i].Dropped = true
		inst.ElementInstances[i].References = nil
	}
	return nil
}

// applyData copies active data segments into their target memories, with
// the same zero-length/bounds rules as applyElements.
func (s *Store) applyData(inst *ModuleInstance, m *Module) error {
	for i, d := range m.Data {
		if d.Mode != SegmentActive {
			continue
		}
		bytes := inst.DataInstances[i].Bytes
		if len(bytes) == 0 {
			continue
		}
		offsetVal, err := evaluateConstExpression(inst, d.Offset)
		if err != nil {
			return &wasmruntime.InstantiationError{Reason: "invalid data offset: " + err.Error()}
		}
		mem := inst.Memories[d.MemoryIndex]
		offset := uint32(offsetVal)
		if uint64(offset)+uint64(len(bytes)) > uint64(len(mem.Buffer)) {
			return &wasmruntime.InstantiationError{Reason: "active data segment out of bounds",
				Trap: wasmruntime.NewTrap(wasmruntime.ErrRuntimeMemoryOutOfBounds)}
		}
		copy(mem.Buffer[offset:], bytes)
		inst.DataInstances[i].Dropped = true
		inst.DataInstances[i].Bytes = nil
	}
	return nil
}

// GetExport looks up a named export of an instantiated module.
func (s *Store) GetExport(moduleName, exportName string) (*ExportInstance, error) {
	s.mux.Lock()
	inst, ok := s.modules[moduleName]
	s.mux.Unlock()
	if !ok {
		return nil, fmt.Errorf("module %q not instantiated", moduleName)
	}
	ex, ok := inst.Exports[exportName]
	if !ok {
		return nil, fmt.Errorf("module %q has no export %q", moduleName, exportName)
	}
	return ex, nil
}
