package schema

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonKeyChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// LabelToKey derives a camelCase column key from a display label:
// "Cost of living index" becomes "costOfLivingIndex".
func LabelToKey(label string) string {
	words := strings.Fields(label)
	if len(words) == 0 {
		return ""
	}

	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)

	var b strings.Builder
	b.WriteString(lower.String(words[0]))
	for _, w := range words[1:] {
		b.WriteString(title.String(w))
	}
	return nonKeyChars.ReplaceAllString(b.String(), "")
}
