package wasm

import (
	"sync"

	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/ir"
)

// Store owns every instantiated object for one execution context. Addresses
// (slice indices into the fields below) are opaque, monotonically assigned,
// and never reused or shared across stores.
type Store struct {
	mux sync.Mutex

	EnabledFeatures api.CoreFeatures

	Functions []*FunctionInstance
	Memories  []*MemoryInstance
	Tables    []*TableInstance
	Globals   []*GlobalInstance
	Elements  []*ElementInstance
	DataInsts []*DataInstance

	// typeIDs interns FunctionType values so call_indirect can compare
	// types by a cheap integer rather than a deep structural comparison.
	typeIDs map[string]FunctionTypeID
	modules map[string]*ModuleInstance
}

// FunctionTypeID is an interned handle for a FunctionType, unique within a
// Store.
type FunctionTypeID uint32

func NewStore(features api.CoreFeatures) *Store {
	return &Store{
		EnabledFeatures: features,
		typeIDs:         map[string]FunctionTypeID{},
		modules:         map[string]*ModuleInstance{},
	}
}

// ModuleInstance is a per-instantiation record: index tables mapping the
// module's local indices to store addresses, plus the export table.
type ModuleInstance struct {
	Name    string
	Store   *Store
	Types   []FunctionType
	TypeIDs []FunctionTypeID

	// Functions/Memories/Tables/Globals hold the instances (shared with the
	// Store's slices) for every index in the module's index space, imported
	// entries first.
	Functions []*FunctionInstance
	Memories  []*MemoryInstance
	Tables    []*TableInstance
	Globals   []*GlobalInstance

	Exports map[string]*ExportInstance

	DataInstances    []*DataInstance
	ElementInstances []*ElementInstance
}

// ExportInstance is one named export; exactly one of the pointer fields is
// non-nil, matching Kind.
type ExportInstance struct {
	Kind     api.ExternType
	Function *FunctionInstance
	Global   *GlobalInstance
	Memory   *MemoryInstance
	Table    *TableInstance
}

// FunctionKind discriminates FunctionInstance's closed union: Wasm-defined
// or host-provided. There is no dynamic dispatch on this in the hot path;
// the interpreter switches on Kind once per call.
type FunctionKind uint8

const (
	FunctionKindWasm FunctionKind = iota
	FunctionKindHost
)

type FunctionInstance struct {
	Kind FunctionKind
	Type *FunctionType
	TypeID FunctionTypeID

	// Wasm-defined fields.
	LocalTypes []api.ValueType
	Module     *ModuleInstance

	// Body holds the preprocessed instruction sequence for a
	// Wasm-defined function.
	Body []ir.Instruction

	// Host-provided fields.
	GoFunc    api.GoFunction
	GoModFunc api.GoModuleFunction

	DebugName string

	// Addr is this function's address within its Store's Functions slice,
	// assigned once when the instance is allocated into the store. Unlike
	// a module-local function index (which differs per importing module),
	// Addr is stable store-wide, so ref.func and table entries encode
	// Addr+1 (0 reserved for null) rather than a local index: a funcref
	// must resolve correctly via Store.Functions regardless of which
	// module instance produced it.
	Addr Index
}

// MemoryInstance is a growable byte buffer with Wasm page-granularity
// limits.
type MemoryInstance struct {
	Buffer   []byte
	Min, Max uint32
	HasMax   bool
}

func NewMemoryInstance(t MemoryType) *MemoryInstance {
	return &MemoryInstance{
		Buffer: make([]byte, uint64(t.Limits.Min)*MemoryPageSize),
		Min:    t.Limits.Min,
		Max:    t.Limits.Max,
		HasMax: t.Limits.HasMax,
	}
}

// Pages returns the current size of the memory in 64KiB pages.
func (m *MemoryInstance) Pages() uint32 {
	return uint32(len(m.Buffer) / MemoryPageSize)
}

// Grow grows the memory by delta pages, returning the previous size in
// pages and true, or false if growth would exceed the declared maximum (the
// memory.grow instruction turns that false into -1).
func (m *MemoryInstance) Grow(delta uint32) (previousPages uint32, ok bool) {
	cur := m.Pages()
	if delta == 0 {
		return cur, true
	}
	newPages := uint64(cur) + uint64(delta)
	const maxPages = (1 << 32) / MemoryPageSize
	if newPages > maxPages {
		return 0, false
	}
	if m.HasMax && newPages > uint64(m.Max) {
		return 0, false
	}
	m.Buffer = append(m.Buffer, make([]byte, uint64(delta)*MemoryPageSize)...)
	return cur, true
}

// TableInstance holds function or extern references.
type TableInstance struct {
	ElemType api.ValueType
	// References stores raw words: a function table address+1 (0 is
	// null), or an opaque externref handle.
	References []uint64
	Max        uint32
	HasMax     bool
}

func NewTableInstance(t TableType) *TableInstance {
	return &TableInstance{
		ElemType:   t.ElemType,
		References: make([]uint64, t.Limits.Min),
		Max:        t.Limits.Max,
		HasMax:     t.Limits.HasMax,
	}
}

func (t *TableInstance) Grow(delta uint32, fillValue uint64) (previous uint32, ok bool) {
	cur := uint32(len(t.References))
	if delta == 0 {
		return cur, true
	}
	newLen := uint64(cur) + uint64(delta)
	if newLen > (1<<32)-1 {
		return 0, false
	}
	if t.HasMax && newLen > uint64(t.Max) {
		return 0, false
	}
	grown := make([]uint64, newLen)
	copy(grown, t.References)
	for i := cur; i < uint32(newLen); i++ {
		grown[i] = fillValue
	}
	t.References = grown
	return cur, true
}

type GlobalInstance struct {
	Type GlobalType
	Val  uint64
}

// DataInstance holds the bytes of a data segment; Bytes is set to nil once
// the segment is dropped, so drop is distinguishable from an
// originally-empty segment only by tracking Dropped explicitly.
type DataInstance struct {
	Bytes   []byte
	Dropped bool
}

// ElementInstance holds the references of a passive/declared element
// segment.
type ElementInstance struct {
	ElemType   api.ValueType
	References []uint64
	Dropped    bool
}
