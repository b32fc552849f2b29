package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zigbind/zigbind/errors"
)

// Mode selects how discovered fragments become compilation units.
type Mode int

const (
	// ModeMerge concatenates every fragment into one synthetic unit,
	// deduplicating repeated top-level @import statements.
	ModeMerge Mode = iota
	// ModeModularImport keeps fragments distinct and synthesizes one entry
	// unit importing all of them.
	ModeModularImport
	// ModeModularBuild is ModeModularImport plus a generated build.zig for
	// the foreign compiler's own build system.
	ModeModularBuild
)

var modeNames = map[string]Mode{
	"merge":          ModeMerge,
	"modular-import": ModeModularImport,
	"modular-build":  ModeModularBuild,
}

// ParseMode resolves a mode name from configuration.
func ParseMode(name string) (Mode, error) {
	if name == "" {
		return ModeMerge, nil
	}
	m, ok := modeNames[name]
	if !ok {
		return 0, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Detail("unknown discovery mode %q; known: merge, modular-import, modular-build", name).
			Build()
	}
	return m, nil
}

func (m Mode) String() string {
	for name, mode := range modeNames {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// Unit is one assembled compilation input: named files plus the entry file
// the foreign compiler is pointed at.
type Unit struct {
	// Files maps relative file names to contents.
	Files map[string]string
	// Entry names the file the compiler invocation targets.
	Entry string
	// CSources carries auxiliary C files (modular build mode only).
	CSources []string
}

const (
	mergedFile = "zigbind_merged.zig"
	entryFile  = "zigbind_root.zig"
	buildFile  = "build.zig"
	libName    = "zigbind"
)

// Assemble turns the scanned tree into one compilation unit per the selected
// mode. shims is generated Zig text appended to the unit (monomorphization
// exports); it lands in the merged file or the entry unit. exports lists the
// bound symbols; modular build mode pins them in the generated build.zig so
// the build system cannot strip bindings nothing in the Zig tree references.
func (t *Tree) Assemble(mode Mode, shims string, exports []string) (*Unit, error) {
	if t.Empty() {
		return nil, nil
	}
	switch mode {
	case ModeMerge:
		return t.assembleMerged(shims), nil
	case ModeModularImport:
		return t.assembleModular(shims, false, nil)
	case ModeModularBuild:
		return t.assembleModular(shims, true, exports)
	}
	return nil, errors.New(errors.PhaseScan, errors.KindInvalidConfig).
		Detail("unknown discovery mode %d", mode).
		Build()
}

// assembleMerged concatenates fragments, keeping only the first occurrence
// of each top-level @import line. Merged fragments otherwise redefine the
// same std import and the foreign compiler rejects the unit.
func (t *Tree) assembleMerged(shims string) *Unit {
	var b strings.Builder
	seen := make(map[string]bool)

	for _, f := range t.Fragments {
		for _, line := range strings.Split(f.Zig, "\n") {
			trimmed := strings.TrimSpace(line)
			if isTopLevelImport(trimmed) {
				if seen[trimmed] {
					continue
				}
				seen[trimmed] = true
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if shims != "" {
		b.WriteString(shims)
	}

	return &Unit{
		Files: map[string]string{mergedFile: b.String()},
		Entry: mergedFile,
	}
}

// isTopLevelImport matches "const x = @import("...");" declaration lines.
func isTopLevelImport(line string) bool {
	if !strings.HasPrefix(line, "const ") && !strings.HasPrefix(line, "pub const ") {
		return false
	}
	return strings.Contains(line, "= @import(") && strings.HasSuffix(line, ");")
}

func (t *Tree) assembleModular(shims string, withBuild bool, exports []string) (*Unit, error) {
	unit := &Unit{Files: make(map[string]string), Entry: entryFile}

	var entry strings.Builder
	entry.WriteString("// Synthesized entry unit.\n")
	for i, f := range t.Fragments {
		name := fmt.Sprintf("zigbind_frag_%d.zig", i)
		unit.Files[name] = f.Zig
		fmt.Fprintf(&entry, "pub usingnamespace @import(%q);\n", name)
	}
	if shims != "" {
		entry.WriteByte('\n')
		entry.WriteString(shims)
	}
	unit.Files[entryFile] = entry.String()

	if withBuild {
		// Auxiliary C sources travel inside the unit so the build script can
		// reference them from its own directory.
		for _, c := range t.CSources {
			data, err := os.ReadFile(filepath.Join(t.Root, c))
			if err != nil {
				return nil, errors.New(errors.PhaseScan, errors.KindIO).
					Cause(err).
					Detail("reading auxiliary source %s", c).
					Build()
			}
			unit.Files[filepath.ToSlash(c)] = string(data)
			unit.CSources = append(unit.CSources, filepath.ToSlash(c))
		}
		unit.Files[buildFile] = t.buildScript(exports)
	}
	return unit, nil
}

// buildScript renders the build.zig for modular build mode. The CPU model is
// pinned to baseline: letting the build system detect the native CPU yields
// object code incompatible with the baseline objects the other modes produce,
// and the host linker ends up mixing the two.
func (t *Tree) buildScript(exports []string) string {
	var b strings.Builder
	b.WriteString(`const std = @import("std");

pub fn build(b: *std.Build) void {
    var target = b.standardTargetOptions(.{});
    target.result.cpu.model = std.Target.Cpu.Model.baseline(target.result.cpu.arch);
    const optimize = b.standardOptimizeOption(.{ .preferred_optimize_mode = .ReleaseFast });

    const lib = b.addStaticLibrary(.{
        .name = "` + libName + `",
        .root_source_file = b.path("` + entryFile + `"),
        .target = target,
        .optimize = optimize,
    });
    lib.linkLibC();
`)
	for _, c := range t.CSources {
		fmt.Fprintf(&b, "    lib.addCSourceFile(.{ .file = b.path(%q), .flags = &.{\"-std=c11\", \"-fPIC\"} });\n", filepath.ToSlash(c))
	}
	if len(exports) > 0 {
		b.WriteString("    lib.root_module.export_symbol_names = &.{")
		for i, sym := range exports {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %q", sym)
		}
		b.WriteString(" };\n")
	}
	b.WriteString(`
    b.installArtifact(lib);
}
`)
	return b.String()
}
