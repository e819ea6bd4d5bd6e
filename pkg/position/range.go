package position

import (
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
)

func NewProtocolRange(startLine, startCharacter, endLine, endCharacter int) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Character: uint32(startCharacter),
			Line:      uint32(startLine),
		},
		End: protocol.Position{
			Character: uint32(endCharacter),
			Line:      uint32(endLine),
		},
	}
}

// RangeFromOffsets translates a pair of byte offsets of text to a
// protocol.Range.
func RangeFromOffsets(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: FromOffset(text, start),
		End:   FromOffset(text, end),
	}
}
