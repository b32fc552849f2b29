// Package scanner walks a Go source tree and extracts the embedded Zig
// fragments and declaration blocks that feed the binding pipeline.
//
// Two annotation forms are recognized inside .go files:
//
//	zigbind.Embed(`<zig source>
//	---
//	<declarations>`)
//
//	zigbind.Include("path/to/file.zig", `<declarations>`)
//
// The separator between Zig source and declarations is the fixed token "---"
// on its own line. Auxiliary .c sources found in the tree are collected for
// the modular build mode. An empty tree yields zero fragments and no error.
package scanner
