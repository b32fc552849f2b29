package mono

import (
	"strings"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/sig"
)

// Mangle derives the concrete symbol name for one instantiation. Namespace
// separators in the concrete type are sanitized to underscores so the result
// is a valid identifier and distinct instantiations cannot collide.
func Mangle(name, concrete string) (string, error) {
	sanitized := strings.NewReplacer("::", "_", ".", "_").Replace(concrete)
	mangled := name + "_" + sanitized
	if !sig.ValidIdent(mangled) {
		return "", errors.New(errors.PhaseMonomorph, errors.KindInvalidIdent).
			Decl(name).
			Detail("mangled name %q is not a valid identifier", mangled).
			Build()
	}
	return mangled, nil
}

// Instantiate substitutes concrete for every generic parameter of s and
// returns a new signature named {name}_{sanitized(concrete)}. The input is
// never modified. concrete must appear in the signature's declared
// monomorphization list.
func Instantiate(s *sig.Signature, concrete string) (*sig.Signature, error) {
	if !s.IsGeneric() {
		return nil, errors.New(errors.PhaseMonomorph, errors.KindInvalidGeneric).
			Decl(s.Name).
			Detail("%s declares no generic parameters", s.Name).
			Build()
	}
	if !declared(s, concrete) {
		return nil, errors.New(errors.PhaseMonomorph, errors.KindInvalidGeneric).
			Decl(s.Name).
			Detail("type %s is not in the monomorphize list of %s (declared: %s)",
				concrete, s.Name, strings.Join(s.MonomorphTypes, ", ")).
			Build()
	}

	mangled, err := Mangle(s.Name, concrete)
	if err != nil {
		return nil, err
	}

	replacement := typeFor(concrete)
	out := &sig.Signature{
		Name:    mangled,
		File:    s.File,
		Line:    s.Line,
		IsAsync: s.IsAsync,
		Binding: s.Binding,
		Return:  substitute(s.Return, replacement),
	}
	for _, p := range s.Params {
		out.Params = append(out.Params, sig.Param{
			Name: p.Name,
			Type: substitute(p.Type, replacement),
		})
	}
	return out, nil
}

// InstantiateAll expands a signature over its declared monomorphization list.
// Non-generic signatures pass through as a single-element result. A generic
// signature with an empty list is an error: there is nothing callable to
// generate for it.
func InstantiateAll(s *sig.Signature) ([]*sig.Signature, error) {
	if !s.IsGeneric() {
		return []*sig.Signature{s}, nil
	}
	if len(s.MonomorphTypes) == 0 {
		return nil, errors.New(errors.PhaseMonomorph, errors.KindInvalidGeneric).
			Decl(s.Name).
			Detail("generic fn %s has no #[monomorphize(...)] list", s.Name).
			Build()
	}
	out := make([]*sig.Signature, 0, len(s.MonomorphTypes))
	for _, concrete := range s.MonomorphTypes {
		inst, err := Instantiate(s, concrete)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

func declared(s *sig.Signature, concrete string) bool {
	for _, t := range s.MonomorphTypes {
		if t == concrete {
			return true
		}
	}
	return false
}

// typeFor interprets a monomorphization list entry as a type descriptor.
func typeFor(concrete string) *sig.Type {
	if sig.IsScalarName(concrete) {
		return sig.Scalar(concrete)
	}
	return sig.Record(concrete)
}

// substitute returns a copy of t with every generic parameter node replaced.
// Non-matching subtrees are cloned untouched.
func substitute(t, replacement *sig.Type) *sig.Type {
	if t == nil {
		return nil
	}
	if t.Kind == sig.KindGenericParam {
		return replacement.Clone()
	}
	c := *t
	c.Elem = substitute(t.Elem, replacement)
	return &c
}
