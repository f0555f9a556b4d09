package rpc

import (
	"strings"
)

// controlPrefix is the attribute reset the server's terminal emits before
// every result.
const controlPrefix = "\x1b[0m"

// Decode turns raw exec output into the textual result: the control prefix and
// surrounding whitespace are removed, then any leading terminal noise up to
// the first ASCII letter, digit or punctuation character.
func Decode(raw []byte) string {
	s := strings.TrimPrefix(string(raw), controlPrefix)
	s = strings.TrimSpace(s)
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return !isPrintableASCII(r)
	})
}

// DecodeString decodes raw output holding a quoted string and returns the
// unquoted, unescaped value. Output that is not quoted is returned as decoded.
func DecodeString(raw []byte) string {
	return Unquote(Decode(raw))
}

// Unquote strips one pair of surrounding double quotes and resolves escapes.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return Unescape(s[1 : len(s)-1])
	}
	return s
}

// Unescape resolves the backslash escapes of an inspected string.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'e':
			b.WriteByte(0x1b)
		case '0':
			b.WriteByte(0)
		default:
			// \" \\ \# and anything unknown stand for the character itself
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Quote renders s as a string literal the server accepts in an expression.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '#':
			// keeps "#{" from being read as interpolation
			b.WriteString(`\#`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isPrintableASCII(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= '!' && r <= '/', r >= ':' && r <= '@', r >= '[' && r <= '`', r >= '{' && r <= '~':
		return true
	}
	return false
}
