// Package build drives the foreign compiler: it assembles compilation units,
// hashes their content against a per-output-directory cache, maps build
// targets to Zig target triples, invokes zig, and emits the artifacts the
// generated cgo bindings link against.
//
// A cache hit with an existing artifact skips the subprocess entirely; that
// and an empty source tree are the only silent non-events. Every failure is
// fatal and carries the compiler's diagnostics verbatim.
package build
