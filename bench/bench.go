// Package bench differentially executes the "add" seed module against
// this module's own interpreter and two external engines (wasmtime-go,
// wasmer-go), asserting all three agree. Both externals require cgo and
// their vendored native libraries, so the package's test file is built only
// on amd64 with cgo enabled, matching the teacher's
// internal/integration_test/vs build constraints.
package bench

// addWasm is the binary encoding of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
//
// hand-assembled since no binary encoder is in scope for this module (the
// interpreter only ever consumes an already-preprocessed wasm.Module); this
// is the one seed scenario simple enough to hand-encode for cross-engine
// comparison.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type section: (i32,i32)->i32
	0x03, 0x02, 0x01, 0x00, // function section: func 0 uses type 0
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // export section: "add" func 0
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code section
}
