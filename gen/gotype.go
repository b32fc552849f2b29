package gen

import (
	"fmt"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/sig"
)

// goScalars maps declared scalar names to Go-native spellings used in
// high-level wrapper signatures.
var goScalars = map[string]string{
	"i8": "int8", "i16": "int16", "i32": "int32", "i64": "int64",
	"u8": "uint8", "u16": "uint16", "u32": "uint32", "u64": "uint64",
	"f32": "float32", "f64": "float64",
	"bool": "bool", "usize": "uint", "isize": "int",
	"void": "",
}

// goNative renders the Go-native type used in a high-level wrapper signature.
func (g *Generator) goNative(t *sig.Type) (string, error) {
	if t == nil || t.IsVoid() {
		return "", nil
	}
	switch t.Kind {
	case sig.KindScalar:
		s, ok := goScalars[t.Name]
		if !ok {
			return "", genErr(t.Name, "unknown scalar %q", t.Name)
		}
		return s, nil
	case sig.KindSlice:
		elem, err := g.goNative(t.Elem)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case sig.KindText:
		if t.Mutable {
			return "[]byte", nil
		}
		return "string", nil
	case sig.KindFixedArray:
		elem, err := g.goNative(t.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("*[%d]%s", t.Len, elem), nil
	case sig.KindRecord:
		if rec, ok := g.reg[t.Name]; ok && rec.Opaque {
			return "*" + t.Name, nil
		}
		return t.Name, nil
	case sig.KindReference, sig.KindMutReference:
		if rec, ok := g.reg[derefName(t)]; ok && rec.Opaque {
			return "*" + rec.Name, nil
		}
		inner, err := g.goNative(t.Elem)
		if err != nil {
			return "", err
		}
		return "*" + inner, nil
	case sig.KindOption:
		inner, err := g.goNative(t.Elem)
		if err != nil {
			return "", err
		}
		return "*" + inner, nil
	}
	return "", genErr(t.String(), "type %s has no Go-native form", t)
}

// derefName peels references and returns the named record underneath, or "".
func derefName(t *sig.Type) string {
	for t != nil && (t.Kind == sig.KindReference || t.Kind == sig.KindMutReference) {
		t = t.Elem
	}
	if t != nil && (t.Kind == sig.KindRecord || t.Kind == sig.KindScalar) {
		return t.Name
	}
	return ""
}

func genErr(decl, detail string, args ...any) error {
	return errors.New(errors.PhaseGenerate, errors.KindUnsupportedType).
		Decl(decl).
		Detail(detail, args...).
		Build()
}
