package planner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cleanText strips HTML markup that models occasionally emit inside string
// fields and collapses the result to plain text.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func cleanAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if c := cleanText(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}
