package gen

import (
	"fmt"
	"strings"

	"github.com/zigbind/zigbind/lower"
)

// emitZigShims writes one export shim per monomorphized instance. The user's
// generic function takes its element type as a leading comptime parameter;
// the shim pins it and exposes the mangled C-ABI symbol the bindings import.
func (g *Generator) emitZigShims(shims []shim) (string, error) {
	var b strings.Builder
	b.WriteString("// Generated monomorphization shims.\n")

	for _, sh := range shims {
		decl, err := g.zigShim(sh)
		if err != nil {
			return "", err
		}
		b.WriteString(decl)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (g *Generator) zigShim(sh shim) (string, error) {
	s := sh.inst

	var params []string
	var args []string
	for _, p := range s.Params {
		l, err := lower.Lower(p.Type, g.reg)
		if err != nil {
			return "", decorate(err, s)
		}
		switch l.Recipe {
		case lower.RecipePtrLen:
			params = append(params,
				fmt.Sprintf("%s_ptr: %s", p.Name, l.Zig),
				fmt.Sprintf("%s_len: usize", p.Name))
			args = append(args, fmt.Sprintf("%s_ptr[0..%s_len]", p.Name, p.Name))
		case lower.RecipeArrayPtr:
			params = append(params, fmt.Sprintf("%s: %s", p.Name, l.Zig))
			args = append(args, p.Name+".*")
		default:
			params = append(params, fmt.Sprintf("%s: %s", p.Name, l.Zig))
			args = append(args, p.Name)
		}
	}

	ret, err := g.lowerReturn(s)
	if err != nil {
		return "", err
	}

	callArgs := append([]string{zigConcrete(sh.concrete)}, args...)
	call := fmt.Sprintf("%s(%s)", sh.origin.Name, strings.Join(callArgs, ", "))

	var b strings.Builder
	fmt.Fprintf(&b, "export fn %s(%s) %s {\n", s.Name, strings.Join(params, ", "), ret.Zig)
	if s.Return.IsVoid() {
		fmt.Fprintf(&b, "    %s;\n", call)
	} else {
		fmt.Fprintf(&b, "    return %s;\n", call)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// zigConcrete renders a monomorphization list entry as the comptime type
// argument. Namespaced names use Zig's dot syntax.
func zigConcrete(concrete string) string {
	return strings.ReplaceAll(concrete, "::", ".")
}
