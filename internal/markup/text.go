// Package markup converts the HTML fragments stored with detected changes
// into plain, wrapped display text.
package markup

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/go-wordwrap"
)

// tagExpr matches the inline formatting tags the detector emits. A bare "<"
// in regulatory text (a<b) is not markup.
var tagExpr = regexp.MustCompile(`(?i)<\s*/?\s*(br|p|b|i|u|em|strong|span|div|sup|sub)\b[^<>]*>`)

// PlainText returns the text content of an HTML fragment with <br> turned
// into newlines. Text without formatting tags is returned unchanged.
func PlainText(fragment string) string {
	if !tagExpr.MatchString(fragment) {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})

	return strings.TrimSpace(doc.Find("body").Text())
}

// Wrap breaks text into lines no longer than width. Existing line breaks are
// kept, runs of whitespace collapse to one space and words longer than width
// are split.
func Wrap(text string, width uint) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		collapsed := strings.Join(strings.Fields(paragraph), " ")
		if collapsed == "" {
			continue
		}
		for _, line := range strings.Split(wordwrap.WrapString(collapsed, width), "\n") {
			lines = append(lines, splitLong(line, int(width))...)
		}
	}
	return lines
}

func splitLong(line string, width int) []string {
	runes := []rune(line)
	if width <= 0 || len(runes) <= width {
		return []string{line}
	}
	parts := make([]string, 0, len(runes)/width+1)
	for len(runes) > width {
		parts = append(parts, string(runes[:width]))
		runes = runes[width:]
	}
	return append(parts, string(runes))
}
