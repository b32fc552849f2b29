package sig

import (
	"fmt"
)

// Kind discriminates the type descriptor variants.
type Kind uint8

const (
	KindScalar Kind = iota
	KindFixedArray
	KindSlice
	KindText
	KindRecord
	KindGenericParam
	KindReference
	KindMutReference
	KindOption
)

var kindNames = [...]string{
	KindScalar:       "scalar",
	KindFixedArray:   "fixed_array",
	KindSlice:        "slice",
	KindText:         "text",
	KindRecord:       "record",
	KindGenericParam: "generic_param",
	KindReference:    "reference",
	KindMutReference: "mut_reference",
	KindOption:       "option",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is a type descriptor: a finite, acyclic tree describing one declared
// type. Which fields are meaningful depends on Kind:
//
//	Scalar, Record, GenericParam  Name
//	FixedArray                    Elem, Len
//	Slice, Text                   Elem (nil for Text), Mutable
//	Reference, MutReference       Elem
//	Option                        Elem
type Type struct {
	Elem    *Type
	Name    string
	Len     int
	Mutable bool
	Kind    Kind
}

// Convenience constructors keep parser and test code readable.

func Scalar(name string) *Type       { return &Type{Kind: KindScalar, Name: name} }
func Record(name string) *Type       { return &Type{Kind: KindRecord, Name: name} }
func GenericParam(name string) *Type { return &Type{Kind: KindGenericParam, Name: name} }

func FixedArray(elem *Type, n int) *Type { return &Type{Kind: KindFixedArray, Elem: elem, Len: n} }

func Slice(elem *Type, mutable bool) *Type {
	return &Type{Kind: KindSlice, Elem: elem, Mutable: mutable}
}

func Text(mutable bool) *Type { return &Type{Kind: KindText, Mutable: mutable} }

func Reference(inner *Type) *Type    { return &Type{Kind: KindReference, Elem: inner} }
func MutReference(inner *Type) *Type { return &Type{Kind: KindMutReference, Elem: inner} }
func Option(inner *Type) *Type       { return &Type{Kind: KindOption, Elem: inner} }

// Void is the return descriptor of a declaration without an arrow clause.
var Void = Scalar("void")

// IsVoid reports whether t is the void scalar.
func (t *Type) IsVoid() bool {
	return t != nil && t.Kind == KindScalar && t.Name == "void"
}

// String renders the descriptor in declaration syntax.
func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case KindScalar, KindRecord, KindGenericParam:
		return t.Name
	case KindFixedArray:
		return fmt.Sprintf("[%s; %d]", t.Elem.String(), t.Len)
	case KindSlice:
		if t.Mutable {
			return fmt.Sprintf("mut_slice<%s>", t.Elem.String())
		}
		return fmt.Sprintf("slice<%s>", t.Elem.String())
	case KindText:
		if t.Mutable {
			return "mut_str"
		}
		return "str"
	case KindReference:
		return "&" + t.Elem.String()
	case KindMutReference:
		return "&mut " + t.Elem.String()
	case KindOption:
		return fmt.Sprintf("option<%s>", t.Elem.String())
	}
	return "unknown"
}

// Equal reports structural equality of two descriptors.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind || t.Name != other.Name ||
		t.Len != other.Len || t.Mutable != other.Mutable {
		return false
	}
	if (t.Elem == nil) != (other.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(other.Elem)
	}
	return true
}

// Clone returns a deep copy of the descriptor tree.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.Elem = t.Elem.Clone()
	return &c
}

// ContainsGeneric reports whether any node in the tree is a generic
// parameter with the given name.
func (t *Type) ContainsGeneric(name string) bool {
	if t == nil {
		return false
	}
	if t.Kind == KindGenericParam && t.Name == name {
		return true
	}
	return t.Elem.ContainsGeneric(name)
}

// scalarSizes maps scalar names to their C ABI size in bytes. Used by the
// lowering layer for layout decisions and by tests.
var scalarSizes = map[string]int{
	"i8": 1, "i16": 2, "i32": 4, "i64": 8,
	"u8": 1, "u16": 2, "u32": 4, "u64": 8,
	"f32": 4, "f64": 8,
	"bool": 1, "usize": 8, "isize": 8,
	"void": 0,
}

// IsScalarName reports whether name is a recognized scalar type name.
func IsScalarName(name string) bool {
	_, ok := scalarSizes[name]
	return ok
}

// ScalarSize returns the C ABI size of a scalar name in bytes.
func ScalarSize(name string) (int, bool) {
	n, ok := scalarSizes[name]
	return n, ok
}

// ValidIdent reports whether s is a valid generated-symbol identifier:
// a letter or underscore followed by letters, digits, or underscores.
func ValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
