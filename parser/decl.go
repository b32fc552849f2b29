package parser

import (
	"strconv"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/parser/internal/token"
	"github.com/zigbind/zigbind/sig"
)

// attrSet accumulates the attributes preceding one declaration.
type attrSet struct {
	binding    *sig.BindingConfig
	monomorph  []string
	reprC      bool
	opaque     bool
	ctor       bool
	dtor       bool
}

func (a *attrSet) empty() bool {
	return a.binding == nil && a.monomorph == nil && !a.reprC && !a.opaque && !a.ctor && !a.dtor
}

// bindKeys are the recognized keys of the #[bind(...)] attribute. Anything
// else is a hard error.
var bindKeys = map[string]bool{
	"strategy":    true,
	"prefix_high": true,
	"prefix_low":  true,
	"c_ret":       true,
	"map_fn":      true,
}

func (p *parser) parseAttributes() (*attrSet, error) {
	attrs := &attrSet{}
	for p.accept(token.Hash) {
		if _, err := p.expect(token.LBracket); err != nil {
			return nil, err
		}
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}

		switch name.Value {
		case "bind":
			cfg, err := p.parseBindAttr()
			if err != nil {
				return nil, err
			}
			attrs.binding = cfg
		case "monomorphize":
			types, err := p.parseMonomorphizeAttr()
			if err != nil {
				return nil, err
			}
			attrs.monomorph = types
		case "repr":
			if _, err := p.expect(token.LParen); err != nil {
				return nil, err
			}
			arg, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			if arg.Value != "c" {
				return nil, errors.Syntax(p.file, arg.Line, "unsupported repr %q, only repr(c) is recognized", arg.Value)
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			attrs.reprC = true
		case "opaque":
			attrs.opaque = true
		case "constructor":
			attrs.ctor = true
		case "destructor":
			attrs.dtor = true
		default:
			return nil, errors.UnknownAttribute(p.file, name.Line, name.Value)
		}

		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func (p *parser) parseBindAttr() (*sig.BindingConfig, error) {
	cfg := &sig.BindingConfig{}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	for {
		key, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if !bindKeys[key.Value] {
			return nil, errors.UnknownAttribute(p.file, key.Line, key.Value)
		}
		if _, err := p.expect(token.Eq); err != nil {
			return nil, err
		}
		val, err := p.expect(token.String)
		if err != nil {
			return nil, err
		}

		switch key.Value {
		case "strategy":
			switch val.Value {
			case "dual":
				cfg.Strategy = sig.StrategyDual
			case "high_only":
				cfg.Strategy = sig.StrategyHighOnly
			case "low_only":
				cfg.Strategy = sig.StrategyLowOnly
			default:
				return nil, errors.Syntax(p.file, val.Line, "unknown strategy %q, want dual, high_only, or low_only", val.Value)
			}
		case "prefix_high":
			cfg.PrefixHigh = val.Value
		case "prefix_low":
			cfg.PrefixLow = val.Value
		case "c_ret":
			t, err := ParseType(val.Value, p.file, val.Line)
			if err != nil {
				return nil, err
			}
			cfg.LowReturn = t
		case "map_fn":
			cfg.ReturnTransform = val.Value
		}

		if p.accept(token.Comma) {
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *parser) parseMonomorphizeAttr() ([]string, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var types []string
	for {
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		types = append(types, path)
		if p.accept(token.Comma) {
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return types, nil
}

func (p *parser) parseFn(attrs *attrSet) (fnDecl, error) {
	if attrs.reprC || attrs.opaque {
		return fnDecl{}, p.errf("repr/opaque attributes apply to records, not functions")
	}

	isAsync := p.acceptKeyword("async")
	if err := p.expectKeyword("fn"); err != nil {
		return fnDecl{}, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return fnDecl{}, err
	}

	s := &sig.Signature{
		Name:           name.Value,
		File:           p.file,
		Line:           name.Line,
		IsAsync:        isAsync,
		MonomorphTypes: attrs.monomorph,
		Binding:        attrs.binding,
	}

	// Leading generic list: fn name<T, U: Bound>(...)
	if p.accept(token.Lt) {
		for {
			g := p.next()
			if g == nil || g.Type != token.Ident {
				return fnDecl{}, p.errf("generic parameter must be an identifier")
			}
			decl := sig.GenericDecl{Name: g.Value}
			if p.accept(token.Colon) {
				for {
					bound, err := p.expect(token.Ident)
					if err != nil {
						return fnDecl{}, err
					}
					decl.Bounds = append(decl.Bounds, bound.Value)
					if !p.accept(token.Plus) {
						break
					}
				}
			}
			s.Generics = append(s.Generics, decl)
			if p.accept(token.Comma) {
				continue
			}
			break
		}
		if _, err := p.expect(token.Gt); err != nil {
			return fnDecl{}, err
		}
	}

	// A monomorphization list without generic parameters would be silently
	// dead configuration, same class of mistake as an unknown attribute key.
	if attrs.monomorph != nil && len(s.Generics) == 0 {
		return fnDecl{}, errors.Syntax(p.file, name.Line,
			"monomorphize on %s, which declares no generic parameters", name.Value)
	}

	if _, err := p.expect(token.LParen); err != nil {
		return fnDecl{}, err
	}
	if !p.accept(token.RParen) {
		for {
			pname, err := p.expect(token.Ident)
			if err != nil {
				return fnDecl{}, err
			}
			if _, err := p.expect(token.Colon); err != nil {
				return fnDecl{}, err
			}
			ptype, err := p.parseType(s)
			if err != nil {
				return fnDecl{}, err
			}
			s.Params = append(s.Params, sig.Param{Name: pname.Value, Type: ptype})
			if p.accept(token.Comma) {
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return fnDecl{}, err
		}
	}

	if p.accept(token.Arrow) {
		ret, err := p.parseType(s)
		if err != nil {
			return fnDecl{}, err
		}
		s.Return = ret
	} else {
		s.Return = sig.Void
	}

	if _, err := p.expect(token.Semi); err != nil {
		return fnDecl{}, err
	}
	return fnDecl{sig: s, ctor: attrs.ctor, dtor: attrs.dtor}, nil
}

func (p *parser) parseRecord(attrs *attrSet) (*sig.RecordDecl, error) {
	if attrs.binding != nil || attrs.monomorph != nil || attrs.ctor || attrs.dtor {
		return nil, p.errf("bind/monomorphize/constructor/destructor attributes apply to functions, not records")
	}

	if err := p.expectKeyword("record"); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	rec := &sig.RecordDecl{
		Name:      name.Value,
		File:      p.file,
		Line:      name.Line,
		HasLayout: attrs.reprC,
		Opaque:    attrs.opaque,
	}

	// Opaque records are fieldless: record Name;
	if p.accept(token.Semi) {
		return rec, nil
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for !p.accept(token.RBrace) {
		fname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		ftype, err := p.parseType(nil)
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, sig.RecordField{Name: fname.Value, Type: ftype})
		if !p.accept(token.Comma) {
			if _, err := p.expect(token.RBrace); err != nil {
				return nil, err
			}
			break
		}
	}
	return rec, nil
}

// parseType parses a type descriptor. When owner is non-nil, identifiers
// matching its declared generic parameters become GenericParam nodes.
func (p *parser) parseType(owner *sig.Signature) (*sig.Type, error) {
	t := p.peek()
	if t == nil {
		return nil, p.errf("expected type")
	}

	switch t.Type {
	case token.Amp:
		p.next()
		if p.acceptKeyword("mut") {
			inner, err := p.parseType(owner)
			if err != nil {
				return nil, err
			}
			return sig.MutReference(inner), nil
		}
		inner, err := p.parseType(owner)
		if err != nil {
			return nil, err
		}
		return sig.Reference(inner), nil

	case token.LBracket:
		p.next()
		elem, err := p.parseType(owner)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		n, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		length, err := strconv.Atoi(n.Value)
		if err != nil || length <= 0 {
			return nil, errors.Syntax(p.file, n.Line, "invalid array length %q", n.Value)
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		return sig.FixedArray(elem, length), nil

	case token.Ident:
		switch t.Value {
		case "slice", "mut_slice":
			p.next()
			if _, err := p.expect(token.Lt); err != nil {
				return nil, err
			}
			elem, err := p.parseType(owner)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Gt); err != nil {
				return nil, err
			}
			return sig.Slice(elem, t.Value == "mut_slice"), nil
		case "str":
			p.next()
			return sig.Text(false), nil
		case "mut_str":
			p.next()
			return sig.Text(true), nil
		case "option":
			p.next()
			if _, err := p.expect(token.Lt); err != nil {
				return nil, err
			}
			inner, err := p.parseType(owner)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Gt); err != nil {
				return nil, err
			}
			return sig.Option(inner), nil
		}

		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if owner != nil {
			for _, g := range owner.Generics {
				if g.Name == path {
					return sig.GenericParam(path), nil
				}
			}
		}
		if sig.IsScalarName(path) {
			return sig.Scalar(path), nil
		}
		return sig.Record(path), nil
	}

	return nil, errors.Syntax(p.file, t.Line, "expected type, got %q", t.Value)
}

// ParseType parses a standalone type string, as used by the c_ret attribute
// value and by tests.
func ParseType(src, file string, line int) (*sig.Type, error) {
	p := &parser{tokens: token.Tokenize(src, line), file: file}
	t, err := p.parseType(nil)
	if err != nil {
		return nil, err
	}
	if p.peek() != nil {
		return nil, errors.Syntax(file, line, "trailing tokens after type %q", src)
	}
	return t, nil
}
