package interpreter

import "github.com/tinywasm-go/tinywasm/internal/wasm"

// frame is one activation record: the function being executed, its
// instruction pointer, and the value-stack height at entry so Return can
// collapse results precisely. Because every branch target is pre-resolved
// to an instruction-relative delta plus an explicit arity/drop count (see
// internal/ir), the interpreter never needs a label stack: Block/Loop/If/End
// carry everything a branch needs on the branch instruction itself.
type frame struct {
	fn          *wasm.FunctionInstance
	ip          int
	valueBase   int
	resultArity int
}

// callEngine holds the mutable execution state for one invocation: the
// uniform value stack and the call-frame stack layered over it.
type callEngine struct {
	values []uint64
	frames []frame
}

func newCallEngine() *callEngine {
	return &callEngine{
		values: make([]uint64, 0, 64),
		frames: make([]frame, 0, 16),
	}
}

func (c *callEngine) push(v uint64) { c.values = append(c.values, v) }

func (c *callEngine) pop() uint64 {
	v := c.values[len(c.values)-1]
	c.values = c.values[:len(c.values)-1]
	return v
}

func (c *callEngine) peek() uint64 { return c.values[len(c.values)-1] }

// dropKeep discards `drop` values sitting just below the top `keep` values.
func (c *callEngine) dropKeep(drop, keep uint32) {
	if drop == 0 {
		return
	}
	top := len(c.values)
	src := top - int(keep)
	dst := src - int(drop)
	copy(c.values[dst:], c.values[src:top])
	c.values = c.values[:dst+int(keep)]
}

func (c *callEngine) currentFrame() *frame { return &c.frames[len(c.frames)-1] }
