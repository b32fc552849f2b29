package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const bq = "`"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func embedSource(zig, decls string) string {
	return "package demo\n\nimport \"github.com/zigbind/zigbind\"\n\n" +
		"var _ = zigbind.Embed(" + bq + zig + "\n---\n" + decls + bq + ")\n"
}

func TestScanEmptyRoot(t *testing.T) {
	tree, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !tree.Empty() {
		t.Error("empty root should yield an empty tree")
	}
}

func TestScanMissingRoot(t *testing.T) {
	tree, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !tree.Empty() {
		t.Error("missing root should yield an empty tree")
	}
}

func TestScanEmbed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go", embedSource(
		"export fn add(a: i32, b: i32) i32 { return a + b; }",
		"fn add(a: i32, b: i32) -> i32;",
	))

	tree, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tree.Fragments) != 1 {
		t.Fatalf("fragments = %d", len(tree.Fragments))
	}
	f := tree.Fragments[0]
	if !strings.Contains(f.Zig, "export fn add") {
		t.Errorf("zig = %q", f.Zig)
	}
	if !strings.Contains(f.Decls, "fn add(a: i32, b: i32) -> i32;") {
		t.Errorf("decls = %q", f.Decls)
	}
	if f.External != "" {
		t.Errorf("external = %q", f.External)
	}
}

func TestScanEmbedMissingSeparator(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go",
		"package demo\nvar _ = zigbind.Embed("+bq+"export fn f() void {}"+bq+")\n")

	if _, err := Scan(dir); err == nil {
		t.Fatal("embed without separator must fail")
	}
}

func TestScanInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "math.zig", "export fn mul(a: f64, b: f64) f64 { return a * b; }\n")
	writeFile(t, dir, "lib.go",
		"package demo\nvar _ = zigbind.Include(\"math.zig\", "+bq+"fn mul(a: f64, b: f64) -> f64;"+bq+")\n")

	tree, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tree.Fragments) != 1 {
		t.Fatalf("fragments = %d", len(tree.Fragments))
	}
	f := tree.Fragments[0]
	if f.External != "math.zig" {
		t.Errorf("external = %q", f.External)
	}
	if !strings.Contains(f.Zig, "export fn mul") {
		t.Errorf("zig = %q", f.Zig)
	}
}

func TestScanIncludeMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.go",
		"package demo\nvar _ = zigbind.Include(\"gone.zig\", "+bq+"fn f();"+bq+")\n")

	if _, err := Scan(dir); err == nil {
		t.Fatal("include of a missing file must fail")
	}
}

func TestScanCollectsCSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "native/helper.c", "int helper(void) { return 1; }\n")
	writeFile(t, dir, "lib.go", embedSource("export fn f() void {}", "fn f();"))

	tree, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tree.CSources) != 1 || tree.CSources[0] != filepath.Join("native", "helper.c") {
		t.Errorf("c sources = %v", tree.CSources)
	}
}

func TestScanSkipsVendorAndTests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vendor/dep/lib.go", embedSource("export fn v() void {}", "fn v();"))
	writeFile(t, dir, "lib_test.go", embedSource("export fn t() void {}", "fn t();"))
	writeFile(t, dir, "lib.go", embedSource("export fn keep() void {}", "fn keep();"))

	tree, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tree.Fragments) != 1 || !strings.Contains(tree.Fragments[0].Zig, "keep") {
		t.Errorf("fragments = %+v", tree.Fragments)
	}
}

func TestScanMultipleEmbedsInOneFile(t *testing.T) {
	dir := t.TempDir()
	src := "package demo\n" +
		"var _ = zigbind.Embed(" + bq + "export fn a() void {}\n---\nfn a();" + bq + ")\n" +
		"var _ = zigbind.Embed(" + bq + "export fn b() void {}\n---\nfn b();" + bq + ")\n"
	writeFile(t, dir, "lib.go", src)

	tree, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tree.Fragments) != 2 {
		t.Fatalf("fragments = %d", len(tree.Fragments))
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"const std = @ import(\"std\");", "const std = @import(\"std\");"},
		{"const Vec3 = struct {", "const Vec3 = extern struct {"},
		{"const Vec3 = extern struct {", "const Vec3 = extern struct {"},
		{"const Flags = packed struct {", "const Flags = packed struct {"},
	}
	for _, tc := range cases {
		got := strings.TrimRight(Normalize(tc.in), "\n")
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssembleMergeDeduplicatesImports(t *testing.T) {
	tree := &Tree{Fragments: []Fragment{
		{Zig: "const std = @import(\"std\");\nexport fn a() void {}\n"},
		{Zig: "const std = @import(\"std\");\nexport fn b() void {}\n"},
	}}
	unit, err := tree.Assemble(ModeMerge, "", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	merged := unit.Files[unit.Entry]
	if got := strings.Count(merged, "@import(\"std\")"); got != 1 {
		t.Errorf("std import count = %d, want 1:\n%s", got, merged)
	}
	if !strings.Contains(merged, "export fn a") || !strings.Contains(merged, "export fn b") {
		t.Errorf("merged body incomplete:\n%s", merged)
	}
}

func TestAssembleMergeAppendsShims(t *testing.T) {
	tree := &Tree{Fragments: []Fragment{{Zig: "fn sum() void {}\n"}}}
	unit, err := tree.Assemble(ModeMerge, "export fn sum_i32() void {}\n", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(unit.Files[unit.Entry], "export fn sum_i32") {
		t.Error("shims not appended")
	}
}

func TestAssembleModularImport(t *testing.T) {
	tree := &Tree{Fragments: []Fragment{
		{Zig: "export fn a() void {}\n"},
		{Zig: "export fn b() void {}\n"},
	}}
	unit, err := tree.Assemble(ModeModularImport, "", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(unit.Files) != 3 {
		t.Fatalf("files = %v", unit.Files)
	}
	entry := unit.Files[unit.Entry]
	if !strings.Contains(entry, `@import("zigbind_frag_0.zig")`) ||
		!strings.Contains(entry, `@import("zigbind_frag_1.zig")`) {
		t.Errorf("entry unit:\n%s", entry)
	}
}

func TestAssembleModularBuildForcesBaselineCPU(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "native/helper.c", "int helper(void) { return 1; }\n")
	tree := &Tree{
		Root:      root,
		Fragments: []Fragment{{Zig: "export fn a() void {}\n"}},
		CSources:  []string{"native/helper.c"},
	}
	unit, err := tree.Assemble(ModeModularBuild, "", []string{"a"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	script, ok := unit.Files["build.zig"]
	if !ok {
		t.Fatal("build.zig missing")
	}
	if !strings.Contains(script, "baseline") {
		t.Error("build script must pin the baseline CPU model")
	}
	if !strings.Contains(script, `"native/helper.c"`) {
		t.Errorf("c source missing from build script:\n%s", script)
	}
	if len(unit.CSources) != 1 {
		t.Errorf("unit c sources = %v", unit.CSources)
	}
	if !strings.Contains(script, `export_symbol_names = &.{ "a" };`) {
		t.Errorf("bound symbols not pinned in build script:\n%s", script)
	}
}

func TestAssembleEmptyTree(t *testing.T) {
	tree := &Tree{}
	unit, err := tree.Assemble(ModeMerge, "", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if unit != nil {
		t.Error("empty tree should assemble to nil")
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{
		"":               ModeMerge,
		"merge":          ModeMerge,
		"modular-import": ModeModularImport,
		"modular-build":  ModeModularBuild,
	} {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("unknown mode should fail")
	}
}
