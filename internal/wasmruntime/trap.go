package wasmruntime

import "fmt"

// Trap wraps a runtime fault (one of the Err* sentinels in this package)
// with the module-relative instruction offset where it occurred, when
// known. Compare the cause with errors.Is against the Err* sentinels.
type Trap struct {
	Cause  error
	Offset uint64
	// HasOffset is true only for traps built with NewTrapAt; the
	// interpreter raises its traps with NewTrap, so they carry no offset.
	HasOffset bool
}

func NewTrap(cause error) *Trap {
	return &Trap{Cause: cause}
}

func NewTrapAt(cause error, offset uint64) *Trap {
	return &Trap{Cause: cause, Offset: offset, HasOffset: true}
}

func (t *Trap) Error() string {
	if t.HasOffset {
		return fmt.Sprintf("wasm trap: %s (offset %#x)", t.Cause, t.Offset)
	}
	return fmt.Sprintf("wasm trap: %s", t.Cause)
}

func (t *Trap) Unwrap() error { return t.Cause }

// LinkingError describes a failure to resolve or type-check an import
// during instantiation.
type LinkingError struct {
	Module, Name string
	Reason       string
}

func (e *LinkingError) Error() string {
	if e.Module == "" && e.Name == "" {
		return fmt.Sprintf("linking error: %s", e.Reason)
	}
	return fmt.Sprintf("linking error: %s.%s: %s", e.Module, e.Name, e.Reason)
}

// InstantiationError describes a failure during store population that is
// not an import-resolution problem: a bad constant expression, an
// out-of-bounds segment initializer, or a trap raised by the start
// function.
type InstantiationError struct {
	Reason string
	Trap   *Trap
}

func (e *InstantiationError) Error() string {
	if e.Trap != nil {
		return fmt.Sprintf("instantiation error: %s: %v", e.Reason, e.Trap)
	}
	return fmt.Sprintf("instantiation error: %s", e.Reason)
}

func (e *InstantiationError) Unwrap() error {
	if e.Trap != nil {
		return e.Trap
	}
	return nil
}

// InvocationError describes an argument arity or type mismatch detected
// when calling an exported function, before any instruction executes.
type InvocationError struct {
	Reason string
}

func (e *InvocationError) Error() string { return fmt.Sprintf("invocation error: %s", e.Reason) }
