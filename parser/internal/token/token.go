package token

import (
	"unicode"
)

type Type int

const (
	LParen Type = iota
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Lt
	Gt
	Comma
	Colon
	ColonColon
	Semi
	Arrow
	Hash
	Amp
	Plus
	Eq
	Ident
	Number
	String
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Lt:
		return "'<'"
	case Gt:
		return "'>'"
	case Comma:
		return "','"
	case Colon:
		return "':'"
	case ColonColon:
		return "'::'"
	case Semi:
		return "';'"
	case Arrow:
		return "'->'"
	case Hash:
		return "'#'"
	case Amp:
		return "'&'"
	case Plus:
		return "'+'"
	case Eq:
		return "'='"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

var punct = map[rune]Type{
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	'<': Lt,
	'>': Gt,
	',': Comma,
	';': Semi,
	'#': Hash,
	'&': Amp,
	'+': Plus,
	'=': Eq,
}

// Tokenize splits a declaration block into tokens. The line numbers start at
// startLine so diagnostics point into the enclosing host source file.
func Tokenize(input string, startLine int) []Token {
	var tokens []Token
	line := startLine
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
			continue
		}

		if r == '-' && i+1 < len(runes) && runes[i+1] == '>' {
			tokens = append(tokens, Token{"->", Arrow, line})
			i++
			continue
		}

		if r == ':' {
			if i+1 < len(runes) && runes[i+1] == ':' {
				tokens = append(tokens, Token{"::", ColonColon, line})
				i++
			} else {
				tokens = append(tokens, Token{":", Colon, line})
			}
			continue
		}

		if typ, ok := punct[r]; ok {
			tokens = append(tokens, Token{string(r), typ, line})
			continue
		}

		// String literal. An unterminated literal emits nothing; the parser
		// reports the missing token at end of input.
		if r == '"' {
			start := i + 1
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '"' {
					closed = true
					break
				}
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			if closed {
				tokens = append(tokens, Token{string(runes[start:i]), String, line})
			}
			continue
		}

		// Number
		if unicode.IsDigit(r) {
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		// Identifier or keyword
		if r == '_' || unicode.IsLetter(r) {
			start := i
			for i < len(runes) {
				c := runes[i]
				if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		// Anything else is skipped; the parser reports unexpected tokens.
	}

	return tokens
}
