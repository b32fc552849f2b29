package build

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/zigbind/zigbind/config"
	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/scanner"
)

// Runner executes the foreign compiler. The default shells out; tests inject
// a fake to count invocations and script failures.
type Runner interface {
	Run(dir, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(dir, name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.String(), errBuf.String(), err
}

// Orchestrator owns one output directory's cache and drives compilations
// into it.
type Orchestrator struct {
	cfg    *config.Config
	target Target
	runner Runner
}

// NewOrchestrator resolves the configured target and prepares an
// orchestrator for cfg's output directory.
func NewOrchestrator(cfg *config.Config) (*Orchestrator, error) {
	t, err := ResolveTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{cfg: cfg, target: t, runner: execRunner{}}, nil
}

// SetRunner replaces the compiler subprocess runner.
func (o *Orchestrator) SetRunner(r Runner) { o.runner = r }

// Target returns the resolved build target.
func (o *Orchestrator) Target() Target { return o.target }

// ArtifactName returns the artifact file name for the configured target.
func (o *Orchestrator) ArtifactName() string {
	if o.target.Wasm {
		return o.cfg.Lib + ".wasm"
	}
	return "lib" + o.cfg.Lib + ".a"
}

// artifactPath returns where the compile leaves the library. Direct build-lib
// invocations emit at the out dir root; the build system installs its
// static archive under <prefix>/lib.
func (o *Orchestrator) artifactPath(viaBuildSystem bool) string {
	if viaBuildSystem {
		return filepath.Join(o.cfg.OutDir, "lib", "lib"+o.cfg.Lib+".a")
	}
	return filepath.Join(o.cfg.OutDir, o.ArtifactName())
}

// Compile builds one assembled unit. On a cache hit with an existing
// artifact the subprocess is skipped and cached is true. symbols lists every
// foreign symbol the bindings import; on wasm targets each one is
// force-exported so dead-code elimination cannot strip bindings that only a
// low-level wrapper references.
func (o *Orchestrator) Compile(unit *scanner.Unit, symbols []string) (artifact string, cached bool, err error) {
	outDir := o.cfg.OutDir
	hash := hashUnit(unit, o.cfg.Zig, o.cfg.Target, o.cfg.Profile)

	store := loadCache(outDir)
	if path, ok := store.lookup(hash); ok {
		Logger().Debug("cache hit", zap.String("hash", hash[:12]), zap.String("artifact", path))
		return path, true, nil
	}

	srcDir := filepath.Join(outDir, "src")
	if err := writeUnit(srcDir, unit); err != nil {
		return "", false, err
	}

	_, viaBuildSystem := unit.Files["build.zig"]
	artifact = o.artifactPath(viaBuildSystem)
	args, workDir := o.compilerArgs(unit, srcDir, artifact, symbols)

	Logger().Debug("invoking compiler",
		zap.String("zig", o.cfg.Zig),
		zap.Strings("args", args))
	_, stderr, runErr := o.runner.Run(workDir, o.cfg.Zig, args...)
	if runErr != nil {
		// Diagnostics pass through unmodified so zig's line references
		// stay usable.
		return "", false, errors.CompilerFailed(stderr)
	}

	// Build-system units install a static archive, not a loadable module;
	// their export list is pinned inside the generated build.zig instead.
	if o.target.Wasm && !viaBuildSystem {
		if err := VerifyExports(artifact, symbols); err != nil {
			return "", false, err
		}
	}

	if err := store.store(hash, artifact); err != nil {
		return "", false, errors.New(errors.PhaseBuild, errors.KindIO).
			Cause(err).
			Detail("persisting build cache").
			Build()
	}
	return artifact, false, nil
}

// compilerArgs renders the zig invocation for the unit. Units carrying a
// build.zig run the compiler's own build system; everything else is a direct
// build-lib call.
func (o *Orchestrator) compilerArgs(unit *scanner.Unit, srcDir, artifact string, symbols []string) (args []string, dir string) {
	if _, hasBuild := unit.Files["build.zig"]; hasBuild {
		// The script reads target and optimize mode through the standard
		// options; the export list and baseline CPU pin live in the script.
		args = []string{"build", "--prefix", "..", "-Doptimize=" + optimizeFlag(o.cfg.Profile)}
		if o.target.Triple != "" {
			args = append(args, "-Dtarget="+o.target.Triple)
		}
		return args, srcDir
	}

	args = []string{
		"build-lib",
		unit.Entry,
		"-femit-bin=" + mustAbs(artifact),
		"-O", optimizeFlag(o.cfg.Profile),
	}
	if o.target.Wasm {
		// Wasm artifacts are dynamic modules with the binding surface pinned.
		args = append(args, "-dynamic", "-rdynamic")
		for _, s := range symbols {
			args = append(args, "--export="+s)
		}
	} else {
		args = append(args, "-static", "-fPIC", "-lc")
	}
	if o.target.Triple != "" {
		args = append(args, "-target", o.target.Triple)
	}
	args = append(args, "-mcpu="+cpuModel(o.cfg.Profile))
	return args, srcDir
}

// optimizeFlag maps a profile to zig's -O mode.
func optimizeFlag(profile string) string {
	switch profile {
	case "small":
		return "ReleaseSmall"
	case "safe":
		return "ReleaseSafe"
	case "debug":
		return "Debug"
	default:
		return "ReleaseFast"
	}
}

// cpuModel pins baseline unless the native profile explicitly opts in to
// host CPU features. Baseline keeps object code compatible across discovery
// modes and machines.
func cpuModel(profile string) string {
	if profile == "native" {
		return "native"
	}
	return "baseline"
}

func writeUnit(srcDir string, unit *scanner.Unit) error {
	for name, content := range unit.Files {
		path := filepath.Join(srcDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return wrapIO(err, name)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return wrapIO(err, name)
		}
	}
	return nil
}

func wrapIO(err error, name string) error {
	return errors.New(errors.PhaseBuild, errors.KindIO).
		Cause(err).
		Detail("writing unit file %s", name).
		Build()
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
