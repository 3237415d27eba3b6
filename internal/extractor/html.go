package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlMarkers = []string{"<html", "<body", "<div", "<p>", "<br", "<ul", "<li", "<span", "<!doctype"}

// looksLikeHTML reports whether evidence text appears to be markup rather
// than plain text. Resumes exported from the web arrive as HTML; pasted
// notes do not.
func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range htmlMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normalizeHTML strips markup down to readable text. Script, style, and
// navigation chrome are removed before text extraction so the analyzer
// never sees code or boilerplate as evidence.
func normalizeHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript").Remove()

	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}
	return collapseWhitespace(text), nil
}

// collapseWhitespace trims each line and drops blank ones.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
