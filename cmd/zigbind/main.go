package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/zigbind/zigbind/build"
	"github.com/zigbind/zigbind/config"
	"github.com/zigbind/zigbind/gen"
	"github.com/zigbind/zigbind/scanner"
)

func main() {
	var (
		root        = flag.String("root", ".", "Source root to scan")
		mode        = flag.String("mode", "", "Discovery mode: merge, modular-import, modular-build")
		target      = flag.String("target", "", "Build target (e.g. linux/amd64, wasm32-freestanding)")
		profile     = flag.String("profile", "", "Optimization profile: fast, small, safe, debug, native")
		outDir      = flag.String("out", "", "Output directory for artifacts and cache")
		zigPath     = flag.String("zig", "", "Path to the zig executable")
		pkgName     = flag.String("package", "", "Go package name of the generated bindings")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		scanner.SetLogger(logger)
		gen.SetLogger(logger)
		build.SetLogger(logger)
	}

	cfg, err := config.Load(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *mode, *target, *profile, *outDir, *zigPath, *pkgName)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*root, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(*root, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, mode, target, profile, outDir, zigPath, pkgName string) {
	if mode != "" {
		cfg.Mode = mode
	}
	if target != "" {
		cfg.Target = target
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if outDir != "" {
		cfg.OutDir = outDir
	}
	if zigPath != "" {
		cfg.Zig = zigPath
	}
	if pkgName != "" {
		cfg.Package = pkgName
	}
}

func runOnce(root string, cfg *config.Config) error {
	res, err := build.Run(root, cfg)
	if err != nil {
		return err
	}

	if res.Artifact == "" {
		fmt.Println("No embedded fragments found; nothing to build.")
		return nil
	}

	fmt.Printf("Bindings: %s\n", res.BindingPath)
	fmt.Printf("Artifact: %s\n", res.Artifact)
	fmt.Printf("Signatures: %d\n", res.Signatures)
	if res.Cached {
		fmt.Println("Compile skipped (cache hit).")
	}
	return nil
}
