package scanner

import (
	"regexp"
	"strings"
)

// Zig text cleanups applied to every extracted fragment. Host tooling that
// reformats string literals tends to mangle these two spots.
var (
	importSpace = regexp.MustCompile(`@\s+import\b`)
	plainStruct = regexp.MustCompile(`=\s*struct\s*\{`)
)

// Normalize repairs formatting damage in embedded Zig text and rewrites
// plain struct definitions to extern structs so their layout matches the C
// ABI the bindings assume.
func Normalize(src string) string {
	out := importSpace.ReplaceAllString(src, "@import")
	out = plainStruct.ReplaceAllStringFunc(out, func(m string) string {
		return "= extern struct {"
	})
	return strings.TrimRight(out, " \t\n") + "\n"
}
