package build

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zigbind/zigbind/config"
	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/scanner"
)

// fakeRunner scripts compiler invocations and materializes the artifact the
// way a successful zig run would.
type fakeRunner struct {
	calls    int
	lastArgs []string
	stderr   string
	fail     bool
}

func (f *fakeRunner) Run(dir, name string, args ...string) (string, string, error) {
	f.calls++
	f.lastArgs = args
	if f.fail {
		return "", f.stderr, stderrors.New("exit status 1")
	}
	if len(args) > 0 && args[0] == "build" {
		// The build system installs static archives under <prefix>/lib.
		prefix := "."
		for i, a := range args {
			if a == "--prefix" && i+1 < len(args) {
				prefix = args[i+1]
			}
		}
		libDir := filepath.Join(dir, prefix, "lib")
		if err := os.MkdirAll(libDir, 0o755); err != nil {
			return "", "", err
		}
		return "", "", os.WriteFile(filepath.Join(libDir, "libzigbind.a"), []byte("artifact"), 0o644)
	}
	for _, a := range args {
		if path, ok := strings.CutPrefix(a, "-femit-bin="); ok {
			if err := os.WriteFile(path, []byte("artifact"), 0o644); err != nil {
				return "", "", err
			}
		}
	}
	return "", "", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutDir = t.TempDir()
	return cfg
}

func testUnit(t *testing.T, zig string) *scanner.Unit {
	t.Helper()
	tree := &scanner.Tree{Fragments: []scanner.Fragment{{Zig: zig}}}
	unit, err := tree.Assemble(scanner.ModeMerge, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	return unit
}

func TestResolveTarget(t *testing.T) {
	cases := map[string]string{
		"linux/amd64":         "x86_64-linux-gnu",
		"darwin/arm64":        "aarch64-macos",
		"windows/amd64":       "x86_64-windows-gnu",
		"wasm32-freestanding": "wasm32-freestanding",
		"wasm64-freestanding": "wasm64-freestanding",
	}
	for name, triple := range cases {
		tgt, err := ResolveTarget(name)
		if err != nil {
			t.Errorf("ResolveTarget(%s): %v", name, err)
			continue
		}
		if tgt.Triple != triple {
			t.Errorf("ResolveTarget(%s) = %q, want %q", name, tgt.Triple, triple)
		}
	}

	if tgt, err := ResolveTarget(""); err != nil || tgt.Triple != "" {
		t.Errorf("native target = %+v, %v", tgt, err)
	}
}

func TestResolveTargetUnmappedListsKnown(t *testing.T) {
	_, err := ResolveTarget("plan9/386")
	if err == nil {
		t.Fatal("expected target-unmapped error")
	}
	var berr *errors.Error
	if !stderrors.As(err, &berr) || berr.Kind != errors.KindTargetUnmapped {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "linux/amd64") {
		t.Errorf("error should list known triples: %v", err)
	}
}

func TestCompileCacheIdempotence(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	orch, err := NewOrchestrator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	orch.SetRunner(runner)

	unit := testUnit(t, "export fn f() void {}\n")

	if _, cached, err := orch.Compile(unit, nil); err != nil || cached {
		t.Fatalf("first compile: cached=%v err=%v", cached, err)
	}
	if _, cached, err := orch.Compile(unit, nil); err != nil || !cached {
		t.Fatalf("second compile: cached=%v err=%v", cached, err)
	}
	if runner.calls != 1 {
		t.Errorf("compiler invocations = %d, want 1", runner.calls)
	}

	// One changed byte forces exactly one recompilation.
	changed := testUnit(t, "export fn f() void {}!\n")
	if _, cached, err := orch.Compile(changed, nil); err != nil || cached {
		t.Fatalf("changed compile: cached=%v err=%v", cached, err)
	}
	if runner.calls != 2 {
		t.Errorf("compiler invocations = %d, want 2", runner.calls)
	}
}

func TestCompileSettingsChangeForcesRebuild(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	orch, _ := NewOrchestrator(cfg)
	orch.SetRunner(runner)
	unit := testUnit(t, "export fn f() void {}\n")

	if _, _, err := orch.Compile(unit, nil); err != nil {
		t.Fatal(err)
	}

	cfg.Profile = "small"
	orch2, _ := NewOrchestrator(cfg)
	orch2.SetRunner(runner)
	if _, cached, err := orch2.Compile(unit, nil); err != nil || cached {
		t.Fatalf("profile change: cached=%v err=%v", cached, err)
	}
	if runner.calls != 2 {
		t.Errorf("compiler invocations = %d, want 2", runner.calls)
	}
}

func TestCompileModularBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.Target = "linux/amd64"
	cfg.Profile = "small"
	runner := &fakeRunner{}
	orch, err := NewOrchestrator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	orch.SetRunner(runner)

	tree := &scanner.Tree{Fragments: []scanner.Fragment{{Zig: "export fn f() void {}\n"}}}
	unit, err := tree.Assemble(scanner.ModeModularBuild, "", []string{"f"})
	if err != nil {
		t.Fatal(err)
	}

	artifact, cached, err := orch.Compile(unit, []string{"f"})
	if err != nil || cached {
		t.Fatalf("compile: cached=%v err=%v", cached, err)
	}
	if want := filepath.Join(cfg.OutDir, "lib", "libzigbind.a"); artifact != want {
		t.Errorf("artifact = %q, want %q", artifact, want)
	}
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("returned artifact path does not exist: %v", err)
	}

	joined := strings.Join(runner.lastArgs, " ")
	for _, want := range []string{"build", "-Doptimize=ReleaseSmall", "-Dtarget=x86_64-linux-gnu"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, runner.lastArgs)
		}
	}

	// Second identical compile hits the cache at the installed path.
	if _, cached, err := orch.Compile(unit, []string{"f"}); err != nil || !cached {
		t.Fatalf("second compile: cached=%v err=%v", cached, err)
	}
	if runner.calls != 1 {
		t.Errorf("compiler invocations = %d, want 1", runner.calls)
	}
}

func TestCompileFailureKeepsDiagnosticsVerbatim(t *testing.T) {
	cfg := testConfig(t)
	diag := "zigbind_merged.zig:3:5: error: use of undeclared identifier 'foo'"
	runner := &fakeRunner{fail: true, stderr: diag}
	orch, _ := NewOrchestrator(cfg)
	orch.SetRunner(runner)

	_, _, err := orch.Compile(testUnit(t, "bad\n"), nil)
	if err == nil {
		t.Fatal("expected compiler failure")
	}
	var berr *errors.Error
	if !stderrors.As(err, &berr) || berr.Kind != errors.KindCompilerFailed {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), diag) {
		t.Errorf("diagnostics not passed through verbatim: %v", err)
	}
}

func TestCompilerArgsNative(t *testing.T) {
	cfg := testConfig(t)
	orch, _ := NewOrchestrator(cfg)
	unit := testUnit(t, "export fn f() void {}\n")

	args, _ := orch.compilerArgs(unit, "src", "out/libzigbind.a", nil)
	joined := strings.Join(args, " ")
	for _, want := range []string{"build-lib", "-static", "-fPIC", "-lc", "-mcpu=baseline", "ReleaseFast"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
	if strings.Contains(joined, "-target") {
		t.Errorf("native build should not pass -target: %v", args)
	}
}

func TestCompilerArgsWasmForcesExports(t *testing.T) {
	cfg := testConfig(t)
	cfg.Target = "wasm32-freestanding"
	orch, err := NewOrchestrator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	unit := testUnit(t, "export fn f() void {}\n")

	args, _ := orch.compilerArgs(unit, "src", "out/zigbind.wasm", []string{"sum_i32", "sum_u64"})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-dynamic", "--export=sum_i32", "--export=sum_u64", "-target wasm32-freestanding"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, args)
		}
	}
	if strings.Contains(joined, "-lc") {
		t.Errorf("freestanding build should not link libc: %v", args)
	}
}

func TestCompilerArgsNativeProfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Profile = "native"
	orch, _ := NewOrchestrator(cfg)
	args, _ := orch.compilerArgs(testUnit(t, "x\n"), "src", "out/lib.a", nil)
	if !strings.Contains(strings.Join(args, " "), "-mcpu=native") {
		t.Errorf("native profile should select the host CPU: %v", args)
	}
}

func TestOptimizeFlag(t *testing.T) {
	cases := map[string]string{
		"fast": "ReleaseFast", "small": "ReleaseSmall",
		"safe": "ReleaseSafe", "debug": "Debug", "native": "ReleaseFast",
	}
	for profile, want := range cases {
		if got := optimizeFlag(profile); got != want {
			t.Errorf("optimizeFlag(%s) = %s, want %s", profile, got, want)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	src := "package demo\n\nvar _ = zigbind.Embed(`" +
		"export fn add(a: i32, b: i32) i32 { return a + b; }\n---\n" +
		"fn add(a: i32, b: i32) -> i32;`)\n"
	if err := os.WriteFile(filepath.Join(root, "lib.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	runner := &fakeRunner{}
	res, err := RunWith(root, cfg, runner)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Signatures != 1 || res.Cached {
		t.Errorf("result = %+v", res)
	}

	binding, err := os.ReadFile(res.BindingPath)
	if err != nil {
		t.Fatalf("binding file: %v", err)
	}
	if !strings.Contains(string(binding), "func add(a int32, b int32) int32 {") {
		t.Errorf("binding content:\n%s", binding)
	}

	// Second run hits the cache: no new compiler invocation.
	res2, err := RunWith(root, cfg, runner)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !res2.Cached || runner.calls != 1 {
		t.Errorf("cached=%v calls=%d", res2.Cached, runner.calls)
	}
}

func TestRunModularBuildLinksInstalledArchive(t *testing.T) {
	root := t.TempDir()
	src := "package demo\n\nvar _ = zigbind.Embed(`" +
		"export fn add(a: i32, b: i32) i32 { return a + b; }\n---\n" +
		"fn add(a: i32, b: i32) -> i32;`)\n"
	if err := os.WriteFile(filepath.Join(root, "lib.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Mode = "modular-build"
	runner := &fakeRunner{}
	res, err := RunWith(root, cfg, runner)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(res.Artifact); err != nil {
		t.Fatalf("artifact missing at %s: %v", res.Artifact, err)
	}

	binding, err := os.ReadFile(res.BindingPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(binding), "-L${SRCDIR}/"+cfg.OutDir+"/lib ") {
		t.Errorf("linker directive should point at the install lib dir:\n%s", binding)
	}
}

func TestRunEmptyTree(t *testing.T) {
	res, err := Run(t.TempDir(), testConfig(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Artifact != "" || res.Signatures != 0 {
		t.Errorf("empty tree result = %+v", res)
	}
}
