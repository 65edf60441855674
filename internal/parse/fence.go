package parse

import "strings"

const fence = "```"

// fenceBlock is one fenced region found by scanFences.
type fenceBlock struct {
	tag  string // language tag right after the opening fence, may be empty
	body string
}

// scanFences walks text left to right pairing fence markers. An opening fence
// without a matching close captures everything up to the end of text.
func scanFences(text string) []fenceBlock {
	var blocks []fenceBlock
	rest := text
	for {
		open := strings.Index(rest, fence)
		if open < 0 {
			return blocks
		}
		rest = rest[open+len(fence):]

		tagEnd := 0
		for tagEnd < len(rest) && isTagByte(rest[tagEnd]) {
			tagEnd++
		}
		tag := rest[:tagEnd]
		rest = rest[tagEnd:]

		end := strings.Index(rest, fence)
		if end < 0 {
			return append(blocks, fenceBlock{tag: tag, body: rest})
		}
		blocks = append(blocks, fenceBlock{tag: tag, body: rest[:end]})
		rest = rest[end+len(fence):]
	}
}

func isTagByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '+' || b == '.':
		return true
	}
	return false
}

// StripCodeFence returns the payload of the most relevant fenced block:
// the first block tagged json, else the first block. Blocks with an empty body are ignored. Text without a
// usable fence is returned trimmed but otherwise verbatim.
func StripCodeFence(text string) string {
	blocks := scanFences(text)

	pick := func(match func(fenceBlock) bool) (string, bool) {
		for _, b := range blocks {
			body := strings.TrimSpace(b.body)
			if body != "" && match(b) {
				return body, true
			}
		}
		return "", false
	}

	if body, ok := pick(func(b fenceBlock) bool { return strings.EqualFold(b.tag, "json") }); ok {
		return body
	}
	if body, ok := pick(func(fenceBlock) bool { return true }); ok {
		return body
	}
	return strings.TrimSpace(text)
}
