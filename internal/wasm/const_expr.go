package wasm

import "fmt"

// evaluateConstExpression evaluates a constant initializer against the
// already-populated prefix of a module instance's global index space
// (global.get is only valid against an imported, immutable global, which
// is always initialized before any locally defined global).
func evaluateConstExpression(m *ModuleInstance, expr ConstantExpression) (uint64, error) {
	switch expr.Kind {
	case ConstI32, ConstI64, ConstF32, ConstF64:
		return expr.Value, nil
	case ConstRefNull:
		return 0, nil // null is the zero word for both funcref and externref
	case ConstRefFunc:
		idx := int(expr.Value)
		if idx < 0 || idx >= len(m.Functions) {
			return 0, fmt.Errorf("ref.func index %d out of range", idx)
		}
		// Function references are encoded as store-address+1 (0 remains
		// null), not module-local index+1: the module-local index space
		// differs per importing module, but the store address is stable,
		// which matters as soon as the referenced function is imported or
		// the ref crosses into another module's table.
		return uint64(m.Functions[idx].Addr) + 1, nil
	case ConstGlobalGet:
		idx := int(expr.Value)
		if idx < 0 || idx >= len(m.Globals) {
			return 0, fmt.Errorf("global.get index %d out of range", idx)
		}
		g := m.Globals[idx]
		if g.Type.Mutable {
			return 0, fmt.Errorf("global.get index %d: constant expressions may only reference immutable globals", idx)
		}
		return g.Val, nil
	default:
		return 0, fmt.Errorf("invalid constant expression kind %d", expr.Kind)
	}
}
