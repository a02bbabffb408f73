package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain treats the whole file as a single page of text,
// validating it is valid UTF-8. Invalid sequences are replaced with
// the replacement character so downstream JSON encoding never fails.
func extractPlain(content []byte) ([]Page, error) {
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "�")
	}
	return []Page{{Number: 1, Text: text}}, nil
}
