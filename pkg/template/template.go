// Package template matches step text against step definition patterns such
// as "{user} is logged in", where every "{...}" region is a placeholder that
// stands for any text the story author writes.
package template

import (
	"strings"
)

const (
	openMarker  = '{'
	closeMarker = '}'
)

type token struct {
	text        string
	start       int
	placeholder bool
}

func (t token) end() int {
	return t.start + len(t.text)
}

// Template is a parsed step pattern. The zero value is the empty pattern.
type Template struct {
	text   string
	tokens []token
}

// Parse splits a pattern into literal and placeholder tokens.
// A placeholder is an opening marker, any run of characters other than the two
// markers, and a closing marker. Markers that do not form such a pair are kept
// as literal characters, so "{a{b}" is the literal "{a" followed by "{b}".
func Parse(text string) Template {
	t := Template{text: text}
	literalStart := 0
	for i := 0; i < len(text); i++ {
		if text[i] != openMarker {
			continue
		}
		end := closingMarker(text, i)
		if end < 0 {
			continue
		}
		if i > literalStart {
			t.tokens = append(t.tokens, token{text: text[literalStart:i], start: literalStart})
		}
		t.tokens = append(t.tokens, token{text: text[i : end+1], start: i, placeholder: true})
		literalStart = end + 1
		i = end
	}
	if literalStart < len(text) {
		t.tokens = append(t.tokens, token{text: text[literalStart:], start: literalStart})
	}
	return t
}

func closingMarker(text string, open int) int {
	for j := open + 1; j < len(text); j++ {
		switch text[j] {
		case closeMarker:
			return j
		case openMarker:
			return -1
		}
	}
	return -1
}

// String returns the pattern as it was parsed.
func (t Template) String() string {
	return t.text
}

// Placeholders returns the names of the placeholders in order of appearance.
// An empty placeholder "{}" has the empty name.
func (t Template) Placeholders() []string {
	var names []string
	for _, tok := range t.tokens {
		if tok.placeholder {
			names = append(names, tok.text[1:len(tok.text)-1])
		}
	}
	return names
}

// Complete computes the text to append to typed so that it becomes an instance
// of the template.
//
// Literal tokens must match typed byte for byte. A placeholder consumes typed
// text up to the first occurrence of the literal that follows it. When that
// literal does not occur, the placeholder is the region being typed: it takes
// everything that is left and the suffix is the raw pattern after it, later
// placeholders included.
//
// ok is false when typed cannot be the beginning of an instance. An empty
// suffix with ok set means typed is already a complete instance.
func (t Template) Complete(typed string) (suffix string, ok bool) {
	pos := 0
	for i, tok := range t.tokens {
		rest := typed[pos:]
		if tok.placeholder {
			next, hasNext := t.literalAfter(i)
			if !hasNext {
				return t.text[tok.end():], true
			}
			idx := strings.Index(rest, next.text)
			if idx < 0 {
				return t.text[tok.end():], true
			}
			pos += idx
			continue
		}

		if len(rest) < len(tok.text) {
			if strings.HasPrefix(tok.text, rest) {
				return t.text[tok.start+len(rest):], true
			}
			return "", false
		}
		if !strings.HasPrefix(rest, tok.text) {
			return "", false
		}
		pos += len(tok.text)
	}

	if pos < len(typed) {
		return "", false
	}
	return "", true
}

// literalAfter returns the token following a placeholder if it is a literal.
func (t Template) literalAfter(i int) (token, bool) {
	if i+1 >= len(t.tokens) || t.tokens[i+1].placeholder {
		return token{}, false
	}
	return t.tokens[i+1], true
}

// Match reports whether text is a complete instance of the template and
// returns the value of every placeholder.
func (t Template) Match(text string) ([]string, bool) {
	return t.match(0, text, nil)
}

func (t Template) match(i int, rest string, values []string) ([]string, bool) {
	if i == len(t.tokens) {
		return values, rest == ""
	}

	tok := t.tokens[i]
	if !tok.placeholder {
		if !strings.HasPrefix(rest, tok.text) {
			return nil, false
		}
		return t.match(i+1, rest[len(tok.text):], values)
	}

	if i+1 == len(t.tokens) {
		return withValue(values, rest), true
	}

	next, hasNext := t.literalAfter(i)
	if !hasNext {
		for cut := range rest {
			if v, ok := t.match(i+1, rest[cut:], withValue(values, rest[:cut])); ok {
				return v, true
			}
		}
		return t.match(i+1, "", withValue(values, rest))
	}

	for from := 0; from <= len(rest); {
		idx := strings.Index(rest[from:], next.text)
		if idx < 0 {
			return nil, false
		}
		cut := from + idx
		if v, ok := t.match(i+1, rest[cut:], withValue(values, rest[:cut])); ok {
			return v, true
		}
		from = cut + 1
	}
	return nil, false
}

func withValue(values []string, value string) []string {
	out := make([]string, len(values), len(values)+1)
	copy(out, values)
	return append(out, value)
}
