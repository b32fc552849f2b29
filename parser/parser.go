package parser

import (
	"strings"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/parser/internal/token"
	"github.com/zigbind/zigbind/sig"
)

// Result holds everything declared in one block.
type Result struct {
	Signatures []*sig.Signature
	Records    []*sig.RecordDecl
}

// Parse parses a declaration block. file and startLine locate the block
// inside the enclosing host source file for diagnostics.
func Parse(src, file string, startLine int) (*Result, error) {
	p := &parser{
		tokens: token.Tokenize(src, startLine),
		file:   file,
	}
	return p.parseBlock()
}

// fnDecl pairs a parsed signature with its role attributes. The roles only
// matter for wiring opaque records and never leave the parser.
type fnDecl struct {
	sig  *sig.Signature
	ctor bool
	dtor bool
}

type parser struct {
	tokens []token.Token
	file   string
	pos    int
}

func (p *parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 0
}

func (p *parser) errf(detail string, args ...any) error {
	return errors.Syntax(p.file, p.line(), detail, args...)
}

func (p *parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(p.file, p.line(), "unexpected end of declarations, expected %v", typ)
	}
	if t.Type != typ {
		return nil, errors.Syntax(p.file, t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if t == nil || t.Type != token.Ident || t.Value != kw {
		return p.errf("expected %q", kw)
	}
	return nil
}

// accept consumes the next token if it matches.
func (p *parser) accept(typ token.Type) bool {
	if t := p.peek(); t != nil && t.Type == typ {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	if t := p.peek(); t != nil && t.Type == token.Ident && t.Value == kw {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseBlock() (*Result, error) {
	res := &Result{}
	var fns []fnDecl

	for p.peek() != nil {
		attrs, err := p.parseAttributes()
		if err != nil {
			return nil, err
		}

		t := p.peek()
		if t == nil {
			if !attrs.empty() {
				return nil, p.errf("attributes without a declaration")
			}
			break
		}

		switch {
		case t.Type == token.Ident && t.Value == "record":
			rec, err := p.parseRecord(attrs)
			if err != nil {
				return nil, err
			}
			res.Records = append(res.Records, rec)
		case t.Type == token.Ident && (t.Value == "fn" || t.Value == "async"):
			fd, err := p.parseFn(attrs)
			if err != nil {
				return nil, err
			}
			fns = append(fns, fd)
			res.Signatures = append(res.Signatures, fd.sig)
		default:
			return nil, errors.Syntax(p.file, t.Line, "expected declaration, got %q", t.Value)
		}
	}

	linkOpaque(res.Records, fns)
	return res, nil
}

// parsePath parses ident ("::" ident)* and returns the joined path.
func (p *parser) parsePath() (string, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return "", err
	}
	parts := []string{t.Value}
	for p.accept(token.ColonColon) {
		seg, err := p.expect(token.Ident)
		if err != nil {
			return "", err
		}
		parts = append(parts, seg.Value)
	}
	return strings.Join(parts, "::"), nil
}

// linkOpaque wires constructor, destructor, and method signatures to the
// opaque records they operate on.
func linkOpaque(records []*sig.RecordDecl, fns []fnDecl) {
	byName := make(map[string]*sig.RecordDecl, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}
	recOf := func(t *sig.Type) *sig.RecordDecl {
		for t != nil && (t.Kind == sig.KindReference || t.Kind == sig.KindMutReference) {
			t = t.Elem
		}
		if t != nil && t.Kind == sig.KindRecord {
			return byName[t.Name]
		}
		return nil
	}

	for _, fd := range fns {
		s := fd.sig
		switch {
		case fd.ctor:
			if r := recOf(s.Return); r != nil && r.Opaque {
				r.Constructor = s.Name
			}
		case fd.dtor:
			if len(s.Params) > 0 {
				if r := recOf(s.Params[0].Type); r != nil && r.Opaque {
					r.Destructor = s.Name
				}
			}
		default:
			if len(s.Params) > 0 {
				if r := recOf(s.Params[0].Type); r != nil && r.Opaque {
					r.Methods = append(r.Methods, s.Name)
				}
			}
		}
	}
}
