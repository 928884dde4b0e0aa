package filter

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Span is a run of text, marked when it matched one of the patterns.
type Span struct {
	Text  string
	Match bool
}

// Highlight splits text into plain and matched spans using the union of the
// non-empty patterns. Concatenating the spans yields text again.
// If the patterns do not compile or nothing matches, a single plain span is
// returned.
func Highlight(text string, patterns []string) []Span {
	whole := []Span{{Text: text}}

	active := lo.Filter(patterns, func(p string, _ int) bool { return p != "" })
	if len(active) == 0 {
		return whole
	}

	groups := lo.Map(active, func(p string, _ int) string { return "(?:" + p + ")" })
	re, err := regexp.Compile(strings.Join(groups, "|"))
	if err != nil {
		return whole
	}

	var spans []Span
	pos := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > pos {
			spans = append(spans, Span{Text: text[pos:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[0]:loc[1]], Match: true})
		pos = loc[1]
	}
	if len(spans) == 0 {
		return whole
	}
	if pos < len(text) {
		spans = append(spans, Span{Text: text[pos:]})
	}
	return spans
}
