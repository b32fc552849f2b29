package build

import (
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/zigbind/zigbind/config"
	"github.com/zigbind/zigbind/gen"
	"github.com/zigbind/zigbind/parser"
	"github.com/zigbind/zigbind/scanner"
	"github.com/zigbind/zigbind/sig"
)

// BindingFile is the generated cgo source written at the scan root.
const BindingFile = "zigbind_generated.go"

// Result summarizes one pipeline run.
type Result struct {
	// Artifact is the compiled library path, "" when the tree was empty.
	Artifact string
	// BindingPath is the written binding file, "" when the tree was empty.
	BindingPath string
	// Signatures counts the concrete bound signatures.
	Signatures int
	// Cached is true when the compile was skipped on a cache hit.
	Cached bool
}

// Run executes the whole pipeline for one source root: scan, parse, generate,
// assemble, compile, and write the binding file. An empty tree returns an
// empty Result and no error.
func Run(root string, cfg *config.Config) (*Result, error) {
	return run(root, cfg, nil)
}

// RunWith is Run with an injected compiler runner.
func RunWith(root string, cfg *config.Config, runner Runner) (*Result, error) {
	return run(root, cfg, runner)
}

func run(root string, cfg *config.Config, runner Runner) (*Result, error) {
	tree, err := scanner.Scan(root)
	if err != nil {
		return nil, err
	}
	if tree.Empty() {
		Logger().Debug("empty source tree, zero bindings", zap.String("root", root))
		return &Result{}, nil
	}

	var sigs []*sig.Signature
	var records []*sig.RecordDecl
	for _, frag := range tree.Fragments {
		res, err := parser.Parse(frag.Decls, frag.File, frag.Line)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, res.Signatures...)
		records = append(records, res.Records...)
	}

	orch, err := NewOrchestrator(cfg)
	if err != nil {
		return nil, err
	}
	if runner != nil {
		orch.SetRunner(runner)
	}

	// The build system installs the archive under <out>/lib rather than at
	// the out dir root, so the linker directive has to follow.
	linkDir := cfg.OutDir
	if cfg.DiscoveryMode() == scanner.ModeModularBuild {
		linkDir = path.Join(cfg.OutDir, "lib")
	}

	g := gen.New(gen.Options{
		Package: cfg.Package,
		LibName: cfg.Lib,
		LinkDir: linkDir,
	}, records)
	out, err := g.Generate(sigs)
	if err != nil {
		return nil, err
	}

	unit, err := tree.Assemble(cfg.DiscoveryMode(), out.ZigShims, out.Symbols)
	if err != nil {
		return nil, err
	}

	artifact, cached, err := orch.Compile(unit, out.Symbols)
	if err != nil {
		return nil, err
	}

	bindingPath := filepath.Join(root, BindingFile)
	if err := os.WriteFile(bindingPath, []byte(out.GoSource), 0o644); err != nil {
		return nil, wrapIO(err, BindingFile)
	}

	Logger().Info("build complete",
		zap.String("artifact", artifact),
		zap.Int("signatures", len(out.Symbols)),
		zap.Bool("cached", cached))
	return &Result{
		Artifact:    artifact,
		BindingPath: bindingPath,
		Signatures:  len(out.Symbols),
		Cached:      cached,
	}, nil
}
