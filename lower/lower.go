package lower

import (
	"strconv"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/sig"
)

// Recipe names the conversion applied when a value crosses the boundary.
// The generator uses it to pick the encode/decode code it emits; the recipe
// itself never executes at tool runtime.
type Recipe uint8

const (
	// RecipeIdentity passes the value through unchanged.
	RecipeIdentity Recipe = iota
	// RecipePtrLen decomposes a slice or text view into a pointer and an
	// element count, reconstructing a bounded view on the callee side.
	RecipePtrLen
	// RecipeArrayPtr passes a fixed array as a pointer to its first element.
	// The length is static, so no count travels with it.
	RecipeArrayPtr
	// RecipeRecordValue passes a layout-declared record by value.
	RecipeRecordValue
	// RecipeRefPtr passes a reference as a pointer.
	RecipeRefPtr
	// RecipeHandle passes an opaque record as an untyped pointer owned by the
	// foreign side.
	RecipeHandle
	// RecipeNullable passes an optional value as a nullable pointer to the
	// lowered inner form; null is the absence sentinel.
	RecipeNullable
)

var recipeNames = [...]string{
	RecipeIdentity:    "identity",
	RecipePtrLen:      "ptr_len",
	RecipeArrayPtr:    "array_ptr",
	RecipeRecordValue: "record_value",
	RecipeRefPtr:      "ref_ptr",
	RecipeHandle:      "handle",
	RecipeNullable:    "nullable",
}

func (r Recipe) String() string {
	if int(r) < len(recipeNames) {
		return recipeNames[r]
	}
	return "unknown"
}

// Lowered is the ABI form of one declared type: the C spelling used in the
// generated extern declaration, the cgo-side Go spelling, the Zig spelling
// for the export shim, and the recipe that connects them.
type Lowered struct {
	C   string
	Go  string
	Zig string
	// HasLen is set when the lowered form carries a trailing size_t element
	// count (slices and text).
	HasLen bool
	// ArrayLen is the static element count of a fixed array, 0 otherwise.
	ArrayLen int
	Recipe   Recipe
}

// Registry resolves record names declared alongside the signatures.
type Registry map[string]*sig.RecordDecl

// NewRegistry indexes record declarations by name.
func NewRegistry(records []*sig.RecordDecl) Registry {
	reg := make(Registry, len(records))
	for _, r := range records {
		reg[r.Name] = r
	}
	return reg
}

type scalarABI struct {
	c, goType, zig string
}

var scalars = map[string]scalarABI{
	"i8":    {"int8_t", "C.int8_t", "i8"},
	"i16":   {"int16_t", "C.int16_t", "i16"},
	"i32":   {"int32_t", "C.int32_t", "i32"},
	"i64":   {"int64_t", "C.int64_t", "i64"},
	"u8":    {"uint8_t", "C.uint8_t", "u8"},
	"u16":   {"uint16_t", "C.uint16_t", "u16"},
	"u32":   {"uint32_t", "C.uint32_t", "u32"},
	"u64":   {"uint64_t", "C.uint64_t", "u64"},
	"f32":   {"float", "C.float", "f32"},
	"f64":   {"double", "C.double", "f64"},
	"bool":  {"bool", "C.bool", "bool"},
	"usize": {"size_t", "C.size_t", "usize"},
	"isize": {"ptrdiff_t", "C.ptrdiff_t", "isize"},
	"void":  {"void", "", "void"},
}

// Lower converts a type descriptor into its ABI form. It is total over the
// supported shapes; anything else returns a lowering error. Generic
// parameters must be substituted away before lowering.
func Lower(t *sig.Type, reg Registry) (*Lowered, error) {
	if t == nil {
		return &Lowered{C: "void", Zig: "void", Recipe: RecipeIdentity}, nil
	}

	switch t.Kind {
	case sig.KindScalar:
		abi, ok := scalars[t.Name]
		if !ok {
			return nil, unsupported(t, "unknown scalar %q", t.Name)
		}
		return &Lowered{C: abi.c, Go: abi.goType, Zig: abi.zig, Recipe: RecipeIdentity}, nil

	case sig.KindSlice:
		elem, err := Lower(t.Elem, reg)
		if err != nil {
			return nil, err
		}
		if elem.Recipe != RecipeIdentity && elem.Recipe != RecipeRecordValue {
			return nil, unsupported(t, "slice element %s does not lower to a flat value", t.Elem)
		}
		l := &Lowered{
			C:      elem.C + "*",
			Go:     "*" + elem.Go,
			Zig:    "[*]" + elem.Zig,
			HasLen: true,
			Recipe: RecipePtrLen,
		}
		if !t.Mutable {
			l.C = "const " + l.C
			l.Zig = "[*]const " + elem.Zig
		}
		return l, nil

	case sig.KindText:
		l := &Lowered{
			C:      "const uint8_t*",
			Go:     "*C.uint8_t",
			Zig:    "[*]const u8",
			HasLen: true,
			Recipe: RecipePtrLen,
		}
		if t.Mutable {
			l.C = "uint8_t*"
			l.Zig = "[*]u8"
		}
		return l, nil

	case sig.KindFixedArray:
		elem, err := Lower(t.Elem, reg)
		if err != nil {
			return nil, err
		}
		if elem.Recipe != RecipeIdentity && elem.Recipe != RecipeRecordValue {
			return nil, unsupported(t, "array element %s does not lower to a flat value", t.Elem)
		}
		return &Lowered{
			C:        "const " + elem.C + "*",
			Go:       "*" + elem.Go,
			Zig:      "*const [" + strconv.Itoa(t.Len) + "]" + elem.Zig,
			ArrayLen: t.Len,
			Recipe:   RecipeArrayPtr,
		}, nil

	case sig.KindRecord:
		rec, ok := reg[t.Name]
		if !ok {
			return nil, errors.New(errors.PhaseLower, errors.KindTypeNotDeclared).
				Decl(t.Name).
				Detail("record %s is not declared in any declaration block", t.Name).
				Build()
		}
		if rec.Opaque {
			return &Lowered{C: "void*", Go: "unsafe.Pointer", Zig: "?*anyopaque", Recipe: RecipeHandle}, nil
		}
		if !rec.HasLayout {
			return nil, errors.MissingLayout(t.Name)
		}
		return &Lowered{C: t.Name, Go: "C." + t.Name, Zig: t.Name, Recipe: RecipeRecordValue}, nil

	case sig.KindReference, sig.KindMutReference:
		inner, err := Lower(t.Elem, reg)
		if err != nil {
			return nil, err
		}
		if inner.Recipe == RecipeHandle {
			// References to opaque handles stay untyped pointers.
			return inner, nil
		}
		if inner.Recipe != RecipeIdentity && inner.Recipe != RecipeRecordValue {
			return nil, unsupported(t, "reference to %s is not lowerable", t.Elem)
		}
		l := &Lowered{Go: "*" + inner.Go, Recipe: RecipeRefPtr}
		if t.Kind == sig.KindMutReference {
			l.C = inner.C + "*"
			l.Zig = "*" + inner.Zig
		} else {
			l.C = "const " + inner.C + "*"
			l.Zig = "*const " + inner.Zig
		}
		return l, nil

	case sig.KindOption:
		inner, err := Lower(t.Elem, reg)
		if err != nil {
			return nil, err
		}
		if inner.Recipe != RecipeIdentity && inner.Recipe != RecipeRecordValue {
			return nil, unsupported(t, "option of %s is not lowerable", t.Elem)
		}
		return &Lowered{
			C:      "const " + inner.C + "*",
			Go:     "*" + inner.Go,
			Zig:    "?*const " + inner.Zig,
			Recipe: RecipeNullable,
		}, nil

	case sig.KindGenericParam:
		return nil, errors.New(errors.PhaseLower, errors.KindUnsupportedType).
			Decl(t.Name).
			Detail("generic parameter %s reached lowering; monomorphize first", t.Name).
			Build()
	}

	return nil, unsupported(t, "unsupported type shape")
}

// LowerReturn lowers a return-position descriptor. Views borrowed from the
// caller cannot be returned, so slices and text are rejected here even though
// they lower fine as parameters.
func LowerReturn(t *sig.Type, reg Registry) (*Lowered, error) {
	l, err := Lower(t, reg)
	if err != nil {
		return nil, err
	}
	if l.HasLen {
		return nil, unsupported(t, "%s cannot be returned across the boundary", t)
	}
	return l, nil
}

func unsupported(t *sig.Type, detail string, args ...any) error {
	return errors.New(errors.PhaseLower, errors.KindUnsupportedType).
		Decl(t.String()).
		Detail(detail, args...).
		Build()
}
