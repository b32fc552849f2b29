package gen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/lower"
	"github.com/zigbind/zigbind/mono"
	"github.com/zigbind/zigbind/sig"
)

// Options configures one generation run.
type Options struct {
	// Package is the Go package name of the emitted binding file.
	Package string
	// LibName is the static library base name referenced by the linker
	// directive, without the "lib" prefix.
	LibName string
	// LinkDir is the directory the linker directive points at, relative to
	// the generated file (${SRCDIR} prefixed).
	LinkDir string
	// ExtraLDFlags are appended to the cgo linker directive verbatim.
	ExtraLDFlags []string
}

// Output is the result of one generation run.
type Output struct {
	// GoSource is the complete cgo binding file.
	GoSource string
	// ZigShims holds export shims for monomorphized generic declarations,
	// appended to the compilation unit before the foreign build. Empty when
	// nothing was generic.
	ZigShims string
	// Symbols lists every foreign symbol the bindings import, in emission
	// order. The build orchestrator force-exports these on wasm targets.
	Symbols []string
}

// Generator emits bindings for one compilation unit.
type Generator struct {
	opts Options
	reg  lower.Registry
	recs []*sig.RecordDecl
}

// New creates a generator over the unit's declared records.
func New(opts Options, records []*sig.RecordDecl) *Generator {
	if opts.Package == "" {
		opts.Package = "main"
	}
	return &Generator{opts: opts, reg: lower.NewRegistry(records), recs: records}
}

// shim links one monomorphized instance back to its generic origin, for the
// Zig export shim emitter.
type shim struct {
	origin   *sig.Signature
	inst     *sig.Signature
	concrete string
}

// Generate expands generics, lowers every signature, and emits the binding
// file plus Zig shims. All errors are generation-time.
func (g *Generator) Generate(sigs []*sig.Signature) (*Output, error) {
	var concrete []*sig.Signature
	var shims []shim
	for _, s := range sigs {
		if !s.IsGeneric() {
			concrete = append(concrete, s)
			continue
		}
		if len(s.MonomorphTypes) == 0 {
			return nil, errors.New(errors.PhaseMonomorph, errors.KindInvalidGeneric).
				Decl(s.Name).
				Detail("generic fn %s has no #[monomorphize(...)] list", s.Name).
				Build()
		}
		for _, ct := range s.MonomorphTypes {
			inst, err := mono.Instantiate(s, ct)
			if err != nil {
				return nil, err
			}
			concrete = append(concrete, inst)
			shims = append(shims, shim{origin: s, inst: inst, concrete: ct})
		}
	}

	out := &Output{}
	for _, s := range concrete {
		out.Symbols = append(out.Symbols, s.Name)
	}

	src, err := g.emitGoFile(concrete)
	if err != nil {
		return nil, err
	}
	out.GoSource = src

	if len(shims) > 0 {
		zig, err := g.emitZigShims(shims)
		if err != nil {
			return nil, err
		}
		out.ZigShims = zig
	}

	Logger().Debug("generated bindings",
		zap.Int("signatures", len(concrete)),
		zap.Int("shims", len(shims)))
	return out, nil
}

// body accumulates one emitted Go file with import-usage tracking.
type body struct {
	strings.Builder
	usesUnsafe bool
	usesPool   bool
}

func (g *Generator) emitGoFile(sigs []*sig.Signature) (string, error) {
	var b body

	fmt.Fprintf(&b, "// Code generated by zigbind. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", g.opts.Package)

	preamble, err := g.emitPreamble(sigs)
	if err != nil {
		return "", err
	}
	b.WriteString(preamble)

	var decls strings.Builder
	if err := g.emitRecordTypes(&b, &decls); err != nil {
		return "", err
	}

	for _, s := range sigs {
		if err := g.emitWrappers(&b, &decls, s); err != nil {
			return "", err
		}
	}

	// Imports depend on what the wrappers ended up using.
	var imports []string
	if b.usesUnsafe {
		imports = append(imports, `"unsafe"`)
	}
	if b.usesPool {
		imports = append(imports, `"github.com/zigbind/zigbind/pool"`)
	}
	if len(imports) > 0 {
		b.WriteString("import (\n")
		for _, imp := range imports {
			fmt.Fprintf(&b, "\t%s\n", imp)
		}
		b.WriteString(")\n\n")
	}

	b.WriteString(decls.String())
	return b.String(), nil
}

// emitPreamble writes the cgo comment block: linker directives, C headers,
// record typedefs, and the lowered extern declarations.
func (g *Generator) emitPreamble(sigs []*sig.Signature) (string, error) {
	var b strings.Builder
	b.WriteString("/*\n")

	ldflags := []string{}
	if g.opts.LinkDir != "" {
		ldflags = append(ldflags, "-L${SRCDIR}/"+g.opts.LinkDir)
	}
	if g.opts.LibName != "" {
		ldflags = append(ldflags, "-l"+g.opts.LibName)
	}
	ldflags = append(ldflags, g.opts.ExtraLDFlags...)
	if len(ldflags) > 0 {
		fmt.Fprintf(&b, "#cgo LDFLAGS: %s\n", strings.Join(ldflags, " "))
	}
	b.WriteString("#include <stdint.h>\n#include <stddef.h>\n#include <stdbool.h>\n\n")

	for _, rec := range g.recs {
		if !rec.HasLayout || rec.Opaque {
			continue
		}
		fields := make([]string, 0, len(rec.Fields))
		for _, f := range rec.Fields {
			cf, err := g.cField(f)
			if err != nil {
				return "", err
			}
			fields = append(fields, cf)
		}
		fmt.Fprintf(&b, "typedef struct { %s } %s;\n", strings.Join(fields, " "), rec.Name)
	}

	for _, s := range sigs {
		decl, err := g.externDecl(s)
		if err != nil {
			return "", err
		}
		b.WriteString(decl)
		b.WriteByte('\n')
	}

	b.WriteString("*/\nimport \"C\"\n\n")
	return b.String(), nil
}

// cField renders one C struct field. Only flat shapes can appear in a
// layout-declared record.
func (g *Generator) cField(f sig.RecordField) (string, error) {
	if f.Type.Kind == sig.KindFixedArray {
		elem, err := lower.Lower(f.Type.Elem, g.reg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s[%d];", elem.C, f.Name, f.Type.Len), nil
	}
	l, err := lower.Lower(f.Type, g.reg)
	if err != nil {
		return "", err
	}
	if l.Recipe != lower.RecipeIdentity && l.Recipe != lower.RecipeRecordValue {
		return "", genErr(f.Name, "field %s: %s cannot appear in a C-layout record", f.Name, f.Type)
	}
	return fmt.Sprintf("%s %s;", l.C, f.Name), nil
}

// externDecl renders the lowered C prototype of one concrete signature.
func (g *Generator) externDecl(s *sig.Signature) (string, error) {
	ret, err := g.lowerReturn(s)
	if err != nil {
		return "", err
	}
	var params []string
	for _, p := range s.Params {
		l, err := lower.Lower(p.Type, g.reg)
		if err != nil {
			return "", decorate(err, s)
		}
		params = append(params, fmt.Sprintf("%s %s", l.C, p.Name))
		if l.HasLen {
			params = append(params, fmt.Sprintf("size_t %s_len", p.Name))
		}
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return fmt.Sprintf("%s %s(%s);", ret.C, s.Name, strings.Join(params, ", ")), nil
}

func (g *Generator) lowerReturn(s *sig.Signature) (*lower.Lowered, error) {
	l, err := lower.LowerReturn(s.Return, g.reg)
	if err != nil {
		return nil, decorate(err, s)
	}
	return l, nil
}

// decorate attaches the declaration's location to a lowering error.
func decorate(err error, s *sig.Signature) error {
	var e *errors.Error
	if errors.As(err, &e) && e.File == "" {
		e.File = s.File
		e.Line = s.Line
		if e.Decl == "" {
			e.Decl = s.Name
		}
	}
	return err
}

// emitRecordTypes writes the Go mirror types: value structs for
// layout-declared records and owning handle types for opaque ones.
func (g *Generator) emitRecordTypes(b *body, decls *strings.Builder) error {
	for _, rec := range g.recs {
		switch {
		case rec.Opaque:
			b.usesUnsafe = true
			fmt.Fprintf(decls, "// %s owns a foreign handle released by Close.\n", rec.Name)
			fmt.Fprintf(decls, "type %s struct {\n\tptr unsafe.Pointer\n}\n\n", rec.Name)
			if rec.Destructor != "" {
				fmt.Fprintf(decls, "// Close releases the foreign handle. Further calls are no-ops.\n")
				fmt.Fprintf(decls, "func (h *%s) Close() {\n", rec.Name)
				fmt.Fprintf(decls, "\tif h.ptr != nil {\n\t\tC.%s(h.ptr)\n\t\th.ptr = nil\n\t}\n}\n\n", rec.Destructor)
			}
		case rec.HasLayout:
			fmt.Fprintf(decls, "type %s struct {\n", rec.Name)
			for _, f := range rec.Fields {
				ft, err := g.goFieldType(f.Type)
				if err != nil {
					return err
				}
				fmt.Fprintf(decls, "\t%s %s\n", f.Name, ft)
			}
			decls.WriteString("}\n\n")
		}
	}
	return nil
}

// goFieldType renders a record field's Go type. Fixed arrays are embedded by
// value, unlike parameter position where they pass as pointers.
func (g *Generator) goFieldType(t *sig.Type) (string, error) {
	if t.Kind == sig.KindFixedArray {
		elem, err := g.goNative(t.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d]%s", t.Len, elem), nil
	}
	return g.goNative(t)
}
