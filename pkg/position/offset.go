// Package position converts between LSP positions, which count UTF-16 code
// units per line, and byte offsets into a document.
package position

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
)

// ToOffset returns the byte offset of pos in text. Positions past the end of
// a line are clamped to the line end and lines past the end of the text to
// the text end.
func ToOffset(text string, pos protocol.Position) int {
	offset := 0
	for line := uint32(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}

	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += offset
	}

	units := uint32(0)
	for offset < lineEnd && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:lineEnd])
		units += uint32(utf16.RuneLen(r))
		if units > pos.Character {
			// Inside a surrogate pair, stay before it.
			break
		}
		offset += size
	}
	return offset
}

// FromOffset returns the protocol.Position of a byte offset in text. An
// offset inside a multi-byte rune is moved to the start of the rune.
func FromOffset(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	for offset > 0 && offset < len(text) && !utf8.RuneStart(text[offset]) {
		offset--
	}

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	line := strings.Count(text[:lineStart], "\n")

	units := 0
	for _, r := range text[lineStart:offset] {
		units += utf16.RuneLen(r)
	}
	return protocol.Position{Line: uint32(line), Character: uint32(units)}
}
