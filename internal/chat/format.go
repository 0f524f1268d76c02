package chat

import "strings"

// maxTokenLen bounds how far Colored scans for a closing bracket.
const maxTokenLen = 16

// Formatter joins prefix and message and translates color tokens.
type Formatter struct {
	palette Palette
}

// NewFormatter returns a Formatter for p. A nil palette means Source2.
func NewFormatter(p Palette) *Formatter {
	if p == nil {
		p = Source2
	}
	return &Formatter{palette: p}
}

// Format returns message when prefix is empty, otherwise prefix + " " + message,
// with color tokens translated.
func (f *Formatter) Format(prefix, message string) string {
	full := message
	if prefix != "" {
		full = prefix + " " + message
	}
	return f.Colored(full)
}

// Colored replaces every known "[name]" token (ASCII letters, matched
// case-insensitively) with its native escape. Anything else is copied through.
func (f *Formatter) Colored(s string) string {
	if strings.IndexByte(s, '[') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '[' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if esc, n := f.token(s[i:]); n > 0 {
			b.WriteString(esc)
			i += n
			continue
		}
		b.WriteByte('[')
		i++
	}
	return b.String()
}

// token matches a color token at the start of s and returns its escape and
// byte length, or n == 0 when s does not start with a known token.
func (f *Formatter) token(s string) (esc string, n int) {
	end := strings.IndexByte(s, ']')
	if end < 2 || end > maxTokenLen+1 {
		return "", 0
	}
	name := s[1:end]
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return "", 0
		}
	}
	esc, ok := f.palette[strings.ToLower(name)]
	if !ok {
		return "", 0
	}
	return esc, end + 1
}

// Format formats with the Source2 palette.
func Format(prefix, message string) string {
	return defaultFormatter.Format(prefix, message)
}

// Colored translates tokens with the Source2 palette.
func Colored(s string) string {
	return defaultFormatter.Colored(s)
}

var defaultFormatter = NewFormatter(Source2)

// ANSI renders native escapes as terminal colors and resets at the end.
func ANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	colored := false
	for i := 0; i < len(s); i++ {
		if seq, ok := ansi[s[i]]; ok {
			b.WriteString(seq)
			colored = true
			continue
		}
		b.WriteByte(s[i])
	}
	if colored {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

// Strip removes native escapes, leaving plain text.
func Strip(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			if _, ok := ansi[byte(r)]; ok {
				return -1
			}
		}
		return r
	}, s)
}
