package rpc

import (
	"strings"

	"github.com/devpackage/msdectl/models"
	"github.com/google/uuid"
)

// Parse reads a two-element result tuple, `{:ok, "value"}` or
// `{:error, :atom}`. Whitespace is allowed around every token; the colon of
// the failure atom is optional. Anything else is a *ParseError.
func Parse(text string) (models.RemoteCallResult, error) {
	p := &parser{input: text}

	p.skipSpace()
	if !p.literal("{") {
		return models.RemoteCallResult{}, p.fail("expected '{'")
	}
	p.skipSpace()

	var ok bool
	switch {
	case p.literal(":ok"):
		ok = true
	case p.literal(":error"):
	default:
		return models.RemoteCallResult{}, p.fail("expected :ok or :error")
	}
	p.skipSpace()
	if !p.literal(",") {
		return models.RemoteCallResult{}, p.fail("expected ','")
	}
	p.skipSpace()

	var res models.RemoteCallResult
	if ok {
		value, found := p.quoted()
		if !found {
			return models.RemoteCallResult{}, p.fail("expected quoted value")
		}
		res = models.RemoteCallResult{OK: true, Value: value}
		if id, isUUID := parseUUID(value); isUUID {
			res.UUID = id
		}
	} else {
		atom, found := p.atom()
		if !found {
			return models.RemoteCallResult{}, p.fail("expected atom")
		}
		res = models.RemoteCallResult{Atom: atom}
	}

	p.skipSpace()
	if !p.literal("}") {
		return models.RemoteCallResult{}, p.fail("expected '}'")
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return models.RemoteCallResult{}, p.fail("trailing input")
	}
	return res, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) fail(reason string) error {
	return &ParseError{Input: p.input, Offset: p.pos, Reason: reason}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) literal(lit string) bool {
	if strings.HasPrefix(p.input[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

// quoted reads a non-empty double quoted string.
func (p *parser) quoted() (string, bool) {
	if !p.literal(`"`) {
		return "", false
	}
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			raw := p.input[start:p.pos]
			p.pos++
			if raw == "" {
				return "", false
			}
			return Unescape(raw), true
		default:
			p.pos++
		}
	}
	return "", false
}

func (p *parser) atom() (string, bool) {
	p.literal(":")
	start := p.pos
	for p.pos < len(p.input) && isAtomChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos], p.pos > start
}

func isAtomChar(c byte) bool {
	return c == '_' || c == '?' || c == '!' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func parseUUID(s string) (uuid.UUID, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex && c != '-' {
			return uuid.Nil, false
		}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
