// Package wasm implements the execution-side data model: the store, module
// instances, and the instantiation/linking process described by the
// preprocessed module input contract. It does not parse or validate binary
// modules; callers construct Module values directly (or via a parser that
// lives outside this module).
package wasm

import (
	"github.com/tinywasm-go/tinywasm/api"
	"github.com/tinywasm-go/tinywasm/internal/ir"
)

// Index is a module-local index into one of a Module's index spaces.
type Index = uint32

// FunctionType is an ordered list of parameter and result value types. Two
// function types are equal iff both lists are pointwise equal.
type FunctionType struct {
	Params, Results []api.ValueType
}

func (t *FunctionType) Equal(o *FunctionType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return equalTypes(t.Params, o.Params) && equalTypes(t.Results, o.Results)
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Limits is the [min, max] pair shared by memory and table declarations.
type Limits struct {
	Min uint32
	Max uint32
	// HasMax is false when the declaration carries no maximum.
	HasMax bool
}

// Matches reports whether this limits pair, as the *imported* side's
// declared limits, is satisfied by a provided limits pair per the Wasm
// limits-matching rule: provided.min >= this.min, and if this declares a
// max, provided must also declare one that is <= this max.
func (l Limits) Matches(provided Limits) bool {
	if provided.Min < l.Min {
		return false
	}
	if !l.HasMax {
		return true
	}
	return provided.HasMax && provided.Max <= l.Max
}

// MemoryType declares a linear memory's page limits. A page is 65,536
// bytes.
type MemoryType struct {
	Limits Limits
}

const MemoryPageSize = 65536

// TableType declares a table's element type and length limits.
type TableType struct {
	ElemType api.ValueType // ValueTypeFuncref or ValueTypeExternref
	Limits   Limits
}

// GlobalType declares a global's value type and mutability.
type GlobalType struct {
	ValType api.ValueType
	Mutable bool
}

// ConstantExpression is one of the instructions permitted to initialize a
// global or a segment offset: *.const, ref.null, ref.func, or global.get of
// an imported immutable global.
type ConstantExpressionKind uint8

const (
	ConstI32 ConstantExpressionKind = iota
	ConstI64
	ConstF32
	ConstF64
	ConstRefNull
	ConstRefFunc
	ConstGlobalGet
)

type ConstantExpression struct {
	Kind  ConstantExpressionKind
	Value uint64 // const payload, ref.func index, or global.get index
	// RefType disambiguates ref.null's value type.
	RefType api.ValueType
}

// ImportKind identifies which index space an Import declares into.
type ImportKind uint8

const (
	ImportFunc ImportKind = iota
	ImportTable
	ImportMemory
	ImportGlobal
)

type Import struct {
	Module, Name string
	Kind         ImportKind
	// DescFunc indexes into Module.Types for ImportFunc.
	DescFunc Index
	DescTable  TableType
	DescMemory MemoryType
	DescGlobal GlobalType
}

// ExportKind mirrors api.ExternType.
type ExportKind = api.ExternType

type Export struct {
	Name  string
	Kind  ExportKind
	Index Index
}

// Function is a locally defined function body (as opposed to an imported
// one): its type, declared local variable types, and preprocessed
// instructions.
type Function struct {
	Type       Index // index into Module.Types
	LocalTypes []api.ValueType
	Body       []ir.Instruction
}

// SegmentMode distinguishes how an element/data segment is applied.
type SegmentMode uint8

const (
	SegmentActive SegmentMode = iota
	SegmentPassive
	SegmentDeclared
)

type ElementSegment struct {
	Mode       SegmentMode
	ElemType   api.ValueType
	TableIndex Index // valid when Mode == SegmentActive
	Offset     ConstantExpression
	// Init is a list of constant expressions, one per element (ref.func or
	// ref.null), evaluated at instantiation time.
	Init []ConstantExpression
}

type DataSegment struct {
	Mode       SegmentMode
	MemoryIndex Index // valid when Mode == SegmentActive
	Offset     ConstantExpression
	Init       []byte
}

// Module is the preprocessed input contract: everything the instantiator
// needs to populate a Store, with no further decoding required.
type Module struct {
	Types   []FunctionType
	Imports []Import
	// Functions lists only locally defined functions (those not covered by
	// Imports); FunctionType for one is Types[Functions[i].Type].
	Functions []Function
	Tables    []TableType
	Memories  []MemoryType
	Globals   []GlobalDeclaration
	Exports   []Export
	Elements  []ElementSegment
	Data      []DataSegment
	// StartFunc is the module-local function index of the start function,
	// or -1 if none.
	StartFunc int64
	// NumImportedFunctions/.../Globals let index-space arithmetic locate
	// the boundary between imported and locally defined entries without
	// recomputing it from Imports on every lookup.
	NumImportedFunctions, NumImportedTables, NumImportedMemories, NumImportedGlobals int
}

type GlobalDeclaration struct {
	Type GlobalType
	Init ConstantExpression
}
