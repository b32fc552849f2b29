package build

import (
	"sort"

	"github.com/zigbind/zigbind/errors"
)

// Target is one resolved build target.
type Target struct {
	// Triple is the zig -target value. Empty means the native host.
	Triple string
	// Wasm marks browser-class freestanding targets, which need a dynamic
	// wasm artifact with every declared symbol force-exported.
	Wasm bool
}

// targets statically maps configured target names to zig triples. Desktop
// names use the GOOS/GOARCH form; wasm targets are addressed by their zig
// triple directly.
var targets = map[string]Target{
	"linux/amd64":        {Triple: "x86_64-linux-gnu"},
	"linux/arm64":        {Triple: "aarch64-linux-gnu"},
	"linux/riscv64":      {Triple: "riscv64-linux-gnu"},
	"darwin/amd64":       {Triple: "x86_64-macos"},
	"darwin/arm64":       {Triple: "aarch64-macos"},
	"windows/amd64":      {Triple: "x86_64-windows-gnu"},
	"windows/arm64":      {Triple: "aarch64-windows-gnu"},
	"js/wasm":            {Triple: "wasm32-freestanding", Wasm: true},
	"wasm32-freestanding": {Triple: "wasm32-freestanding", Wasm: true},
	"wasm64-freestanding": {Triple: "wasm64-freestanding", Wasm: true},
}

// ResolveTarget maps a configured target name to its zig target. The empty
// name resolves to the native host. Unknown names fail listing every known
// name, so a typo is immediately diagnosable.
func ResolveTarget(name string) (Target, error) {
	if name == "" {
		return Target{}, nil
	}
	t, ok := targets[name]
	if !ok {
		known := make([]string, 0, len(targets))
		for k := range targets {
			known = append(known, k)
		}
		sort.Strings(known)
		return Target{}, errors.TargetUnmapped(name, known)
	}
	return t, nil
}
