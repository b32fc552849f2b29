package sig

import (
	"fmt"
	"strings"
)

// Strategy selects which wrapper surfaces the generator emits for one
// declaration.
type Strategy uint8

const (
	// StrategyHighOnly emits the ergonomic high-level wrapper only. Default.
	StrategyHighOnly Strategy = iota
	// StrategyLowOnly emits the ABI-explicit low-level wrapper only.
	StrategyLowOnly
	// StrategyDual emits both, under separate prefixes.
	StrategyDual
)

func (s Strategy) String() string {
	switch s {
	case StrategyHighOnly:
		return "high_only"
	case StrategyLowOnly:
		return "low_only"
	case StrategyDual:
		return "dual"
	}
	return "unknown"
}

// IncludesHigh reports whether the strategy emits the high-level wrapper.
func (s Strategy) IncludesHigh() bool { return s == StrategyHighOnly || s == StrategyDual }

// IncludesLow reports whether the strategy emits the low-level wrapper.
func (s Strategy) IncludesLow() bool { return s == StrategyLowOnly || s == StrategyDual }

// BindingConfig carries the optional binding-strategy attribute of a
// declaration.
type BindingConfig struct {
	// LowReturn overrides the low-level wrapper's return type (c_ret key).
	LowReturn *Type
	// ReturnTransform is a single-argument transform literal applied to the
	// raw result in the low-level wrapper (map_fn key), e.g. "|x| x != 0".
	ReturnTransform string
	PrefixHigh      string
	PrefixLow       string
	Strategy        Strategy
}

// GenericDecl is one declared generic parameter with optional bound names.
type GenericDecl struct {
	Name   string
	Bounds []string
}

// Param is one ordered (name, type descriptor) pair.
type Param struct {
	Type *Type
	Name string
}

// Signature is the structured model of one interface declaration. Created
// once by the parser; shared read-only downstream.
type Signature struct {
	Return         *Type
	Binding        *BindingConfig
	Name           string
	File           string
	Params         []Param
	Generics       []GenericDecl
	MonomorphTypes []string
	Line           int
	IsAsync        bool
}

// IsGeneric reports whether the signature declares generic parameters.
func (s *Signature) IsGeneric() bool { return len(s.Generics) > 0 }

// Strategy returns the effective binding strategy.
func (s *Signature) Strategy() Strategy {
	if s.Binding == nil {
		return StrategyHighOnly
	}
	return s.Binding.Strategy
}

// String renders the signature in declaration syntax, for logs and tests.
func (s *Signature) String() string {
	var b strings.Builder
	if s.IsAsync {
		b.WriteString("async ")
	}
	b.WriteString("fn ")
	b.WriteString(s.Name)
	if len(s.Generics) > 0 {
		names := make([]string, len(s.Generics))
		for i, g := range s.Generics {
			names[i] = g.Name
		}
		fmt.Fprintf(&b, "<%s>", strings.Join(names, ", "))
	}
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.Name, p.Type.String())
	}
	b.WriteByte(')')
	if s.Return != nil && !s.Return.IsVoid() {
		b.WriteString(" -> ")
		b.WriteString(s.Return.String())
	}
	return b.String()
}

// RecordField is one named field of a record declaration.
type RecordField struct {
	Type *Type
	Name string
}

// RecordDecl is a record declared in a declaration block. HasLayout is set
// by the #[repr(c)] attribute and gates identity lowering: a record crossing
// the boundary without a fixed platform-standard layout is a lowering error,
// never a guess.
type RecordDecl struct {
	Name        string
	File        string
	Constructor string
	Destructor  string
	Fields      []RecordField
	Methods     []string
	Line        int
	HasLayout   bool
	Opaque      bool
}
