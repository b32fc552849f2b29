// Package zigbind lets Go programs embed Zig code and call it through
// generated cgo bindings.
//
// Source files annotate Zig fragments with Embed or Include; the zigbind
// tool scans the tree, parses the declaration blocks, and writes a binding
// file plus a static library the bindings link against:
//
//	var _ = zigbind.Embed(`
//	export fn add(a: i32, b: i32) i32 { return a + b; }
//	---
//	fn add(a: i32, b: i32) -> i32;
//	`)
//
// The runtime surface of this package is small: the annotation markers the
// scanner looks for, and the Buffer type generated code uses for memory the
// Zig side owns.
package zigbind
