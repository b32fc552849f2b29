package gen

import (
	"fmt"
	"strings"

	"github.com/zigbind/zigbind/lower"
	"github.com/zigbind/zigbind/sig"
)

// emitWrappers writes the Go functions for one concrete signature: the
// high-level wrapper (plain or async), and the low-level wrapper when the
// strategy asks for the dual surface.
func (g *Generator) emitWrappers(b *body, decls *strings.Builder, s *sig.Signature) error {
	strat := s.Strategy()
	if strat.IncludesHigh() {
		if err := g.emitHigh(b, decls, s); err != nil {
			return err
		}
	}
	if strat.IncludesLow() {
		if err := g.emitLow(b, decls, s); err != nil {
			return err
		}
	}
	return nil
}

// prefixes returns the effective wrapper name prefixes. The low prefix
// defaults to "c_" so an unconfigured dual strategy cannot collide.
func prefixes(s *sig.Signature) (high, low string) {
	low = "c_"
	if s.Binding != nil {
		if s.Binding.PrefixHigh != "" {
			high = s.Binding.PrefixHigh
		}
		if s.Binding.PrefixLow != "" {
			low = s.Binding.PrefixLow
		}
	}
	return high, low
}

// encoded is one declared parameter prepared for the extern call.
type encoded struct {
	prelude []string
	args    []string
}

// encodeParam renders the conversion from a Go-native argument to the
// lowered extern argument(s), following the lowering recipe.
func (g *Generator) encodeParam(b *body, name string, t *sig.Type, l *lower.Lowered) (encoded, error) {
	switch l.Recipe {
	case lower.RecipeIdentity:
		return encoded{args: []string{fmt.Sprintf("%s(%s)", l.Go, name)}}, nil

	case lower.RecipePtrLen:
		b.usesUnsafe = true
		var data string
		if t.Kind == sig.KindText && !t.Mutable {
			data = fmt.Sprintf("unsafe.Pointer(unsafe.StringData(%s))", name)
		} else {
			data = fmt.Sprintf("unsafe.Pointer(&%s[0])", name)
		}
		return encoded{
			prelude: []string{
				fmt.Sprintf("var %sPtr %s", name, l.Go),
				fmt.Sprintf("if len(%s) > 0 {", name),
				fmt.Sprintf("\t%sPtr = (%s)(%s)", name, l.Go, data),
				"}",
			},
			args: []string{name + "Ptr", fmt.Sprintf("C.size_t(len(%s))", name)},
		}, nil

	case lower.RecipeArrayPtr, lower.RecipeRefPtr, lower.RecipeNullable:
		b.usesUnsafe = true
		return encoded{args: []string{fmt.Sprintf("(%s)(unsafe.Pointer(%s))", l.Go, name)}}, nil

	case lower.RecipeRecordValue:
		b.usesUnsafe = true
		return encoded{args: []string{fmt.Sprintf("*(*%s)(unsafe.Pointer(&%s))", l.Go, name)}}, nil

	case lower.RecipeHandle:
		return encoded{args: []string{name + ".ptr"}}, nil
	}
	return encoded{}, genErr(name, "no encoding for recipe %s", l.Recipe)
}

// decodeReturn renders the statements turning the raw extern result held in
// "ret" into the wrapper's Go-native return value.
func (g *Generator) decodeReturn(b *body, t *sig.Type, l *lower.Lowered) ([]string, error) {
	goType, err := g.goNative(t)
	if err != nil {
		return nil, err
	}
	switch l.Recipe {
	case lower.RecipeIdentity:
		return []string{fmt.Sprintf("return %s(ret)", goType)}, nil
	case lower.RecipeRecordValue:
		b.usesUnsafe = true
		return []string{fmt.Sprintf("return *(*%s)(unsafe.Pointer(&ret))", goType)}, nil
	case lower.RecipeHandle:
		name := derefName(t)
		return []string{fmt.Sprintf("return &%s{ptr: ret}", name)}, nil
	case lower.RecipeRefPtr, lower.RecipeNullable:
		b.usesUnsafe = true
		return []string{fmt.Sprintf("return (%s)(unsafe.Pointer(ret))", goType)}, nil
	}
	return nil, genErr(t.String(), "no decoding for recipe %s", l.Recipe)
}

func (g *Generator) emitHigh(b *body, decls *strings.Builder, s *sig.Signature) error {
	high, _ := prefixes(s)
	name := high + s.Name

	// Signature line.
	var params []string
	for _, p := range s.Params {
		gt, err := g.goNative(p.Type)
		if err != nil {
			return decorate(err, s)
		}
		params = append(params, p.Name+" "+gt)
	}
	retLow, err := g.lowerReturn(s)
	if err != nil {
		return err
	}
	retGo, err := g.goNative(s.Return)
	if err != nil {
		return decorate(err, s)
	}

	// Body: encode, call, decode.
	var lines []string
	var args []string
	for _, p := range s.Params {
		l, err := lower.Lower(p.Type, g.reg)
		if err != nil {
			return decorate(err, s)
		}
		enc, err := g.encodeParam(b, p.Name, p.Type, l)
		if err != nil {
			return decorate(err, s)
		}
		lines = append(lines, enc.prelude...)
		args = append(args, enc.args...)
	}
	call := fmt.Sprintf("C.%s(%s)", s.Name, strings.Join(args, ", "))
	isVoid := s.Return.IsVoid()
	if isVoid {
		lines = append(lines, call)
	} else {
		lines = append(lines, "ret := "+call)
		decode, err := g.decodeReturn(b, s.Return, retLow)
		if err != nil {
			return decorate(err, s)
		}
		lines = append(lines, decode...)
	}

	if s.IsAsync {
		return g.emitAsync(b, decls, name, params, retGo, isVoid, lines)
	}

	fmt.Fprintf(decls, "func %s(%s)", name, strings.Join(params, ", "))
	if retGo != "" {
		fmt.Fprintf(decls, " %s", retGo)
	}
	decls.WriteString(" {\n")
	writeBody(decls, lines, 1)
	decls.WriteString("}\n\n")
	return nil
}

// emitAsync wraps the synchronous body in a worker-pool submission returning
// a future. The foreign call itself stays blocking on the worker.
func (g *Generator) emitAsync(b *body, decls *strings.Builder, name string, params []string, retGo string, isVoid bool, lines []string) error {
	b.usesPool = true
	futureType := retGo
	if isVoid {
		futureType = "struct{}"
	}
	fmt.Fprintf(decls, "func %s(%s) *pool.Future[%s] {\n", name, strings.Join(params, ", "), futureType)
	fmt.Fprintf(decls, "\treturn pool.Submit(pool.Default(), func() (%s, error) {\n", futureType)

	if isVoid {
		writeBody(decls, lines, 2)
		decls.WriteString("\t\treturn struct{}{}, nil\n")
	} else {
		// The sync body ends in "return <expr>"; the pool closure needs the
		// two-value form.
		lines[len(lines)-1] += ", nil"
		writeBody(decls, lines, 2)
	}
	decls.WriteString("\t})\n}\n\n")
	return nil
}

// emitLow writes the ABI-explicit wrapper: cgo-typed parameters mirroring the
// extern, an optional c_ret return override, and an optional map_fn transform
// applied to the raw result.
func (g *Generator) emitLow(b *body, decls *strings.Builder, s *sig.Signature) error {
	_, low := prefixes(s)
	name := low + s.Name

	var params []string
	var args []string
	for _, p := range s.Params {
		l, err := lower.Lower(p.Type, g.reg)
		if err != nil {
			return decorate(err, s)
		}
		goT := l.Go
		if l.Recipe == lower.RecipeHandle {
			b.usesUnsafe = true
		}
		params = append(params, p.Name+" "+goT)
		args = append(args, p.Name)
		if l.HasLen {
			params = append(params, p.Name+"_len C.size_t")
			args = append(args, p.Name+"_len")
		}
	}

	origRet, err := g.lowerReturn(s)
	if err != nil {
		return err
	}
	retLow := origRet
	var transform string
	if s.Binding != nil {
		if s.Binding.LowReturn != nil {
			if s.Binding.LowReturn.IsVoid() {
				return genErr(s.Name, "c_ret on %s cannot be void; drop the declared return instead", s.Name)
			}
			retLow, err = lower.LowerReturn(s.Binding.LowReturn, g.reg)
			if err != nil {
				return decorate(err, s)
			}
		}
		transform = s.Binding.ReturnTransform
	}

	if transform != "" && s.Return.IsVoid() {
		return genErr(s.Name, "map_fn set on %s, which returns nothing to transform", s.Name)
	}

	isVoid := retLow.Go == ""
	fmt.Fprintf(decls, "func %s(%s)", name, strings.Join(params, ", "))
	if !isVoid {
		fmt.Fprintf(decls, " %s", retLow.Go)
	}
	decls.WriteString(" {\n")

	call := fmt.Sprintf("C.%s(%s)", s.Name, strings.Join(args, ", "))
	switch {
	case s.Return.IsVoid():
		fmt.Fprintf(decls, "\t%s\n", call)
	case transform != "":
		param, expr, err := parseTransform(transform, s)
		if err != nil {
			return err
		}
		fmt.Fprintf(decls, "\t%s := %s\n", param, call)
		fmt.Fprintf(decls, "\treturn %s(%s)\n", retLow.Go, expr)
	case retLow.Go != origRet.Go:
		fmt.Fprintf(decls, "\treturn %s(%s)\n", retLow.Go, call)
	default:
		fmt.Fprintf(decls, "\treturn %s\n", call)
	}
	decls.WriteString("}\n\n")
	return nil
}

func writeBody(w *strings.Builder, lines []string, indent int) {
	tabs := strings.Repeat("\t", indent)
	for _, line := range lines {
		// Preludes carry their own inner indentation.
		w.WriteString(tabs)
		w.WriteString(line)
		w.WriteByte('\n')
	}
}
