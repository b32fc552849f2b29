package build

import (
	"context"
	"os"

	"github.com/tetratelabs/wazero"

	"github.com/zigbind/zigbind/errors"
)

// VerifyExports compiles a wasm artifact and checks that every declared
// symbol survived as an export. Dead-code elimination silently dropping a
// symbol would otherwise only surface as a runtime lookup failure in the
// host program.
func VerifyExports(artifact string, symbols []string) error {
	data, err := os.ReadFile(artifact)
	if err != nil {
		return errors.New(errors.PhaseVerify, errors.KindIO).
			Cause(err).
			Detail("reading artifact %s", artifact).
			Build()
	}

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return errors.New(errors.PhaseVerify, errors.KindCompilerFailed).
			Cause(err).
			Detail("artifact %s is not a valid wasm module", artifact).
			Build()
	}
	defer compiled.Close(ctx)

	exports := compiled.ExportedFunctions()
	for _, sym := range symbols {
		if _, ok := exports[sym]; !ok {
			return errors.New(errors.PhaseVerify, errors.KindMissingExport).
				Decl(sym).
				Detail("symbol %s missing from %s; it was declared but not exported", sym, artifact).
				Build()
		}
	}
	return nil
}
