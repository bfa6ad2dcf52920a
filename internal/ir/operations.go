// Package ir defines the preprocessed instruction representation consumed
// directly by the interpreter. A function body is a flat []Instruction with
// branch targets already resolved to instruction-relative deltas: the
// interpreter never searches for a matching end.
//
// This is a data format, not a compiler: the rewrite from raw opcodes into
// this shape is performed by the (out of scope) parser/preprocessor. Tests
// and embedders construct []Instruction slices by hand.
package ir

// Kind identifies the tagged variant of an Instruction.
type Kind uint16

const (
	OpUnreachable Kind = iota
	OpNop

	// Block/Loop/If mark the start of a structured region. BlockType
	// carries its pre-dereferenced {params, results} arity.
	OpBlock
	OpLoop
	OpIf
	// OpElse marks the else continuation of an If; EndOffset carries the
	// instruction-relative delta to the matching End.
	OpElse
	// OpEndBlock closes a Block/Loop/If; OpReturn closes a function.
	OpEndBlock
	OpReturn

	// OpBr, OpBrIf and OpBrTable carry pre-resolved branch targets.
	OpBr
	OpBrIf
	OpBrTable

	OpCall
	OpCallIndirect

	OpDrop
	OpSelect

	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	// Memory.
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow
	OpMemoryCopy
	OpMemoryFill
	OpMemoryInit
	OpDataDrop

	// Table / reference types.
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop
	OpRefNull
	OpRefIsNull
	OpRefFunc

	// Constants.
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	// Numeric ops are identified generically; Subop disambiguates within
	// the class (e.g. add vs sub vs mul) to keep the Kind space small.
	OpI32Unop
	OpI32Binop
	OpI64Unop
	OpI64Binop
	OpF32Unop
	OpF32Binop
	OpF64Unop
	OpF64Binop
	OpI32Compare
	OpI64Compare
	OpF32Compare
	OpF64Compare

	// Conversions, including the non-trapping saturating variants.
	OpConversion
)

// BlockType is the pre-dereferenced arity of a structured block's
// signature: module type-section lookups are resolved ahead of time.
type BlockType struct {
	Params  uint16
	Results uint16
}

// BrTarget is a single pre-resolved branch destination: a delta (in
// instructions, relative to the branch instruction itself) to jump to, the
// number of values to keep across the branch (Arity), and how many values
// sitting below those to discard (StackHeightAtEntry semantics are folded
// in by the preprocessor, so the interpreter only needs ToDrop).
type BrTarget struct {
	Delta  int32
	Arity  uint32
	ToDrop uint32
}

// MemArg is an inlined memory immediate: the static offset added to the
// dynamic address operand. Alignment is accepted by the format for
// compatibility but ignored for correctness, per spec.
type MemArg struct {
	Offset uint32
	Align  uint32
}

// Unop/Binop/Compare subop identifiers, shared across integer/float kinds;
// each enumeration only contains operators valid for the Kind it is paired
// with.
type Subop uint16

const (
	// Binops (by-class namespaces, indices matter only within a Kind).
	SubAdd Subop = iota
	SubSub
	SubMul
	SubDivS
	SubDivU
	SubRemS
	SubRemU
	SubAnd
	SubOr
	SubXor
	SubShl
	SubShrS
	SubShrU
	SubRotl
	SubRotr
	SubDiv
	SubMin
	SubMax
	SubCopysign

	// Unops.
	SubClz
	SubCtz
	SubPopcnt
	SubExtend8S
	SubExtend16S
	SubExtend32S
	SubAbs
	SubNeg
	SubSqrt
	SubCeil
	SubFloor
	SubTrunc
	SubNearest

	// Compares.
	SubEq
	SubNe
	SubLtS
	SubLtU
	SubGtS
	SubGtU
	SubLeS
	SubLeU
	SubGeS
	SubGeU
	SubLt
	SubGt
	SubLe
	SubGe
)

// ConversionOp identifies a numeric conversion, including the
// non-trapping/saturating variants of the proposal named by
// CoreFeatureNonTrapFloatToIntConversion (the flag is not checked here).
type ConversionOp uint16

const (
	ConvI32WrapI64 ConversionOp = iota
	ConvI64ExtendI32S
	ConvI64ExtendI32U
	ConvI32TruncF32S
	ConvI32TruncF32U
	ConvI32TruncF64S
	ConvI32TruncF64U
	ConvI64TruncF32S
	ConvI64TruncF32U
	ConvI64TruncF64S
	ConvI64TruncF64U
	ConvF32ConvertI32S
	ConvF32ConvertI32U
	ConvF32ConvertI64S
	ConvF32ConvertI64U
	ConvF64ConvertI32S
	ConvF64ConvertI32U
	ConvF64ConvertI64S
	ConvF64ConvertI64U
	ConvF32DemoteF64
	ConvF64PromoteF32
	ConvI32ReinterpretF32
	ConvI64ReinterpretF64
	ConvF32ReinterpretI32
	ConvF64ReinterpretI64
	// Saturating (non-trapping) variants.
	ConvI32TruncSatF32S
	ConvI32TruncSatF32U
	ConvI32TruncSatF64S
	ConvI32TruncSatF64U
	ConvI64TruncSatF32S
	ConvI64TruncSatF32U
	ConvI64TruncSatF64S
	ConvI64TruncSatF64U
)

// Instruction is one entry of a preprocessed function body. Only the
// fields relevant to Kind are populated; the rest are zero.
type Instruction struct {
	Kind Kind

	// Block/Loop/If.
	BlockType BlockType
	// EndOffset is the instruction-relative delta from this Block/Loop/If
	// to its matching Else (if present) or End.
	EndOffset int32

	// Br/BrIf: single target. BrTable: Targets holds the jump table plus
	// a trailing default entry.
	Target  BrTarget
	Targets []BrTarget

	// Call.
	FuncIndex uint32
	// CallIndirect.
	TableIndex uint32
	TypeIndex  uint32

	// Local/global index, or const payload reinterpreted as a raw word.
	Index uint32
	Value uint64

	// Select with explicit result type (reference-types proposal) puts the
	// operand value type here; zero means untyped (pre-reftypes) select.
	SelectType uint8

	// Memory instructions.
	Mem MemArg
	// Bulk memory/table: source/destination segment or table indices.
	SrcIndex uint32
	DstIndex uint32

	// Numeric ops.
	Subop      Subop
	Conversion ConversionOp

	// RefNull: ValueType (api.ValueTypeFuncref or ValueTypeExternref).
	RefType uint8
}
