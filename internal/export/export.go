package export

import (
	"fmt"
	"regexp"
	"strings"

	"passive-genius/internal/idea"
)

var whitespace = regexp.MustCompile(`\s+`)

// FileName builds the download name for an exported plan.
func FileName(title, ext string) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(title), "_")
	if name == "" {
		name = "Plan"
	}
	return fmt.Sprintf("PassiveGenius_%s.%s", name, strings.TrimPrefix(ext, "."))
}

func heading(plan *idea.DetailedPlan, title string) string {
	if title == "" {
		title = plan.IdeaID
	}
	return "Passive Genius Strategy: " + title
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v + 0.5)
	s := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}
