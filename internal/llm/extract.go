package llm

import "strings"

const (
	fenceJSON = "```json"
	fence     = "```"
)

// ExtractJSON strips markdown code fences from a model response so the
// remaining text can be decoded as JSON. Only the literal "```json" and
// "```" markers are removed; any other text is left for the decoder to
// reject.
func ExtractJSON(text string) string {
	text = strings.ReplaceAll(text, fenceJSON, "")
	text = strings.ReplaceAll(text, fence, "")
	return strings.TrimSpace(text)
}
