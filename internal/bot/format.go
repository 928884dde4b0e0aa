package bot

import (
	"fmt"
	"hash/fnv"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"keyword_notify/internal/filter"
	"keyword_notify/internal/model"
	"keyword_notify/internal/notifier"
)

const (
	logPageSize     = 5
	maxLogTextRunes = 600

	// Telegram allows 4096 characters of message text after entity parsing.
	maxLogEntryRunes = 4000
)

// FormatRuleList formats the rules with their 1-based numbers.
func FormatRuleList(rs []model.Rule) string {
	if len(rs) == 0 {
		return "No rules yet. Use /add <pattern> to add one."
	}
	var b strings.Builder
	b.WriteString("Rules:\n")
	for i, r := range rs {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, patternLabel(r.Pattern))
		fmt.Fprintf(&b, "   %s\n", scopeLabel(r))
	}
	return b.String()
}

func patternLabel(p string) string {
	if p == "" {
		return "(empty, inactive)"
	}
	return "/" + p + "/"
}

func scopeLabel(r model.Rule) string {
	switch {
	case r.ScopeMode == model.ScopeAllow && len(r.ScopeIDs) == 0:
		return "allow: none (inactive)"
	case r.ScopeMode == model.ScopeAllow:
		return "allow: " + strings.Join(r.ScopeIDs, ", ")
	case len(r.ScopeIDs) == 0:
		return "everywhere"
	default:
		return "deny: " + strings.Join(r.ScopeIDs, ", ")
	}
}

// RuleToken fingerprints a rule's pattern and scope so a button built from
// an older rule list can be told apart from the current one.
func RuleToken(r model.Rule) string {
	h := fnv.New32a()
	h.Write([]byte(r.Pattern))
	h.Write([]byte{0})
	h.Write([]byte(r.ScopeMode))
	for _, id := range r.ScopeIDs {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// RenderHighlight renders spans as Telegram HTML with matched spans in bold.
func RenderHighlight(spans []filter.Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Match {
			b.WriteString("<b>")
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</b>")
			continue
		}
		b.WriteString(html.EscapeString(s.Text))
	}
	return b.String()
}

// FormatLogEntry formats one match log entry as Telegram HTML, highlighting
// every occurrence of the given patterns. Trailing parts are replaced by
// "..." once the visible text would pass maxLogEntryRunes.
func FormatLogEntry(msg model.Message, patterns []string) string {
	var b strings.Builder
	name := notifier.DisplayName(msg.Author)
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(name))
	visible := utf8.RuneCountInString(name)
	if !msg.Timestamp.IsZero() {
		ts := msg.Timestamp.UTC().Format("2006-01-02 15:04 UTC")
		fmt.Fprintf(&b, " <i>%s</i>", ts)
		visible += 1 + utf8.RuneCountInString(ts)
	}

	cut := false
	// write appends sep and the highlighted texts joined by ": ".
	write := func(sep string, texts ...string) {
		if cut {
			return
		}
		plain := make([]string, len(texts))
		n := utf8.RuneCountInString(sep) + 2*(len(texts)-1)
		for i, t := range texts {
			plain[i] = truncateRunes(t, maxLogTextRunes)
			n += utf8.RuneCountInString(plain[i])
		}
		if visible+n > maxLogEntryRunes {
			b.WriteString("\n...")
			cut = true
			return
		}
		visible += n
		b.WriteString(sep)
		for i, p := range plain {
			if i > 0 {
				b.WriteString(": ")
			}
			b.WriteString(RenderHighlight(filter.Highlight(p, patterns)))
		}
	}

	if msg.Content != "" {
		write("\n", msg.Content)
	}
	for _, e := range msg.Embeds {
		if e.Title != "" {
			write("\n\n", e.Title)
		}
		if e.Description != "" {
			write("\n", e.Description)
		}
		for _, f := range e.Fields {
			write("\n", f.Name, f.Value)
		}
	}
	return b.String()
}

// LogPage returns the entries of a 1-based page and the total page count.
func LogPage(entries []model.Message, page int) ([]model.Message, int) {
	chunks := lo.Chunk(entries, logPageSize)
	if page < 1 || page > len(chunks) {
		return nil, len(chunks)
	}
	return chunks[page-1], len(chunks)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
