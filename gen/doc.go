// Package gen emits the host-side binding code for a set of concrete
// signatures: a cgo source file declaring the lowered extern surface and
// wrapping it in high-level and/or low-level Go functions, plus Zig export
// shims that materialize monomorphized instances of generic declarations.
//
// Every failure here is a generation-time error. Generated code contains no
// deferred checks; if it compiles, the boundary is well-formed.
package gen
