package types

import (
	"strings"
	"unicode"

	"github.com/fluxbench/commander/core/errs"
)

// parseErr builds an errs.TypeParse error naming the construct that failed
// to parse, e.g. parseErr("enum", "expected '<', got %q", tok.text).
func parseErr(construct, format string, args ...any) error {
	return errs.Newf(errs.TypeParse, construct+": "+format, args...)
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokLt
	tokGt
	tokComma
	tokColon
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

// lexer is a hand-rolled, whitespace-insensitive scanner for the type
// grammar. Whitespace is only insignificant between tokens; identifiers
// themselves may not contain it.
type lexer struct {
	runes []rune
	pos   int
}

func newLexer(s string) *lexer { return &lexer{runes: []rune(s)} }

func (l *lexer) skipSpace() {
	for l.pos < len(l.runes) && unicode.IsSpace(l.runes[l.pos]) {
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.runes) {
		return token{kind: tokEOF}, nil
	}
	r := l.runes[l.pos]
	switch r {
	case '<':
		l.pos++
		return token{kind: tokLt, text: "<"}, nil
	case '>':
		l.pos++
		return token{kind: tokGt, text: ">"}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, text: ","}, nil
	case ':':
		l.pos++
		return token{kind: tokColon, text: ":"}, nil
	}
	if isIdentStart(r) {
		start := l.pos
		l.pos++
		for l.pos < len(l.runes) && isIdentCont(l.runes[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: string(l.runes[start:l.pos])}, nil
	}
	return token{}, parseErr("token", "unexpected character %q", r)
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

// parser wraps a one-token lookahead buffer over the lexer, making the
// grammar LL(1).
type parser struct {
	lex     *lexer
	lookAt  token
	hasLook bool
}

func (p *parser) peek() (token, error) {
	if p.hasLook {
		return p.lookAt, nil
	}
	t, err := p.lex.next()
	if err != nil {
		return token{}, err
	}
	p.lookAt, p.hasLook = t, true
	return t, nil
}

func (p *parser) advance() (token, error) {
	t, err := p.peek()
	if err != nil {
		return token{}, err
	}
	p.hasLook = false
	return t, nil
}

func (p *parser) expect(k tokenKind, construct, what string) (token, error) {
	t, err := p.advance()
	if err != nil {
		return token{}, err
	}
	if t.kind != k {
		return token{}, parseErr(construct, "expected %s, got %q", what, t.text)
	}
	return t, nil
}

// Parse accepts the canonical printed form of a Type and reconstructs it.
// Whitespace is insignificant except inside identifiers. On malformed input
// it returns an errs.TypeParse error naming the failing construct.
func Parse(text string) (*Type, error) {
	p := &parser{lex: newLexer(text)}
	t, err := parseType(p)
	if err != nil {
		return nil, err
	}
	tail, err := p.advance()
	if err != nil {
		return nil, err
	}
	if tail.kind != tokEOF {
		return nil, parseErr("type", "unexpected trailing input %q", tail.text)
	}
	return t, nil
}

func parseType(p *parser) (*Type, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent {
		return nil, parseErr("type", "expected a type keyword, got %q", tok.text)
	}
	switch strings.ToLower(tok.text) {
	case "list":
		if _, err := p.expect(tokLt, "list", "'<'"); err != nil {
			return nil, err
		}
		elem, err := parseType(p)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokGt, "list", "'>'"); err != nil {
			return nil, err
		}
		return NewList(elem), nil
	case "enum":
		return parseEnum(p)
	case "struct":
		return parseStruct(p)
	case "trigger":
		return TriggerType(), nil
	case "boolean":
		return BooleanType(), nil
	case "number":
		return NumberType(), nil
	case "string":
		return StringType(), nil
	case "bytes":
		return BytesType(), nil
	case "color":
		return ColorType(), nil
	case "json":
		return JSONType(), nil
	case "svg":
		return SVGType(), nil
	case "url":
		return URLType(), nil
	case "path":
		return PathType(), nil
	default:
		return nil, parseErr("type", "unknown type keyword %q", tok.text)
	}
}

func parseEnum(p *parser) (*Type, error) {
	name, err := p.expect(tokIdent, "enum", "a name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLt, "enum", "'<'"); err != nil {
		return nil, err
	}
	var variants []string
	for {
		v, err := p.expect(tokIdent, "enum", "a variant name")
		if err != nil {
			return nil, err
		}
		variants = append(variants, v.text)
		sep, err := p.advance()
		if err != nil {
			return nil, err
		}
		if sep.kind == tokGt {
			break
		}
		if sep.kind != tokComma {
			return nil, parseErr("enum", "expected ',' or '>', got %q", sep.text)
		}
	}
	return NewEnum(name.text, variants...)
}

func parseStruct(p *parser) (*Type, error) {
	name, err := p.expect(tokIdent, "struct", "a name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLt, "struct", "'<'"); err != nil {
		return nil, err
	}
	close, err := p.peek()
	if err != nil {
		return nil, err
	}
	if close.kind == tokGt {
		p.advance()
		return NewStruct(name.text)
	}
	var fields []Field
	for {
		fname, err := p.expect(tokIdent, "struct", "a field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon, "struct", "':'"); err != nil {
			return nil, err
		}
		ftype, err := parseType(p)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: fname.text, Type: ftype})
		sep, err := p.advance()
		if err != nil {
			return nil, err
		}
		if sep.kind == tokGt {
			break
		}
		if sep.kind != tokComma {
			return nil, parseErr("struct", "expected ',' or '>', got %q", sep.text)
		}
	}
	return NewStruct(name.text, fields...)
}
