// Package extract pulls plain text out of uploaded documents so the editor
// can show what a knowledge base file contains.
package extract

import (
	"io"
	"strings"
	"unicode/utf8"
)

// MaxPreview is the default rune count of a preview.
const MaxPreview = 500

// Extract reads r and returns its text. Only PDF is understood; other
// content types yield ("", nil).
func Extract(contentType string, r io.Reader) (string, error) {
	mime := strings.SplitN(contentType, ";", 2)[0]
	mime = strings.TrimSpace(strings.ToLower(mime))

	if mime != "application/pdf" {
		return "", nil
	}
	return extractPDF(r)
}

// Preview collapses whitespace in text and cuts it to at most n runes,
// marking a cut with "...".
func Preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
