package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/scanner"
)

// FileName is the configuration file looked up at the source root.
const FileName = "zigbind.hcl"

// Config is the resolved tool configuration.
type Config struct {
	// Zig is the zig executable invoked for foreign builds.
	Zig string `hcl:"zig,optional"`
	// Mode selects fragment discovery: merge, modular-import, modular-build.
	Mode string `hcl:"mode,optional"`
	// Target overrides the build target triple (GOOS/GOARCH style, e.g.
	// "linux/amd64" or "wasm32-freestanding"). Empty means host.
	Target string `hcl:"target,optional"`
	// Profile selects the optimization profile: fast, small, safe, debug,
	// native.
	Profile string `hcl:"profile,optional"`
	// OutDir receives artifacts and the build cache.
	OutDir string `hcl:"out_dir,optional"`
	// Package is the Go package name of the generated binding file.
	Package string `hcl:"package,optional"`
	// Lib is the static library base name.
	Lib string `hcl:"lib,optional"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Zig:     "zig",
		Mode:    "merge",
		Profile: "fast",
		OutDir:  "zig-out",
		Package: "main",
		Lib:     "zigbind",
	}
}

var profiles = map[string]bool{
	"fast": true, "small": true, "safe": true, "debug": true, "native": true,
}

// Load resolves the configuration for a source root: defaults, then the HCL
// file if present, then environment overrides.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes one HCL file over the current values. String attributes
// may interpolate ${env.NAME}.
func (c *Config) loadFile(path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Location(path, 0).
			Detail("%s", diags.Error()).
			Build()
	}

	var loaded Config
	diags = gohcl.DecodeBody(file.Body, envContext(), &loaded)
	if diags.HasErrors() {
		return errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Location(path, 0).
			Detail("%s", diags.Error()).
			Build()
	}

	merge(c, &loaded)
	return nil
}

// envContext exposes the process environment as the "env" object for
// interpolation inside the file.
func envContext() *hcl.EvalContext {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func merge(dst, src *Config) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Zig, src.Zig)
	set(&dst.Mode, src.Mode)
	set(&dst.Target, src.Target)
	set(&dst.Profile, src.Profile)
	set(&dst.OutDir, src.OutDir)
	set(&dst.Package, src.Package)
	set(&dst.Lib, src.Lib)
}

// Environment variables override file values.
func (c *Config) applyEnv() {
	for _, e := range []struct {
		key string
		dst *string
	}{
		{"ZIGBIND_ZIG", &c.Zig},
		{"ZIGBIND_MODE", &c.Mode},
		{"ZIGBIND_TARGET", &c.Target},
		{"ZIGBIND_PROFILE", &c.Profile},
		{"ZIGBIND_OUT", &c.OutDir},
		{"ZIGBIND_PACKAGE", &c.Package},
		{"ZIGBIND_LIB", &c.Lib},
	} {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = v
		}
	}
}

// Validate checks mode and profile. Load calls it; callers mutating the
// config afterwards (CLI flags) should call it again.
func (c *Config) Validate() error {
	if _, err := scanner.ParseMode(c.Mode); err != nil {
		return err
	}
	if !profiles[c.Profile] {
		return errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Detail("unknown profile %q; known: fast, small, safe, debug, native", c.Profile).
			Build()
	}
	return nil
}

// DiscoveryMode returns the parsed scanner mode.
func (c *Config) DiscoveryMode() scanner.Mode {
	m, _ := scanner.ParseMode(c.Mode)
	return m
}
