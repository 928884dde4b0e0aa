package bot

import (
	"html"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"keyword_notify/internal/filter"
	"keyword_notify/internal/model"
)

func TestParseScopeArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    ScopeArgs
		wantErr bool
	}{
		{
			name: "deny without ids",
			args: "1 deny",
			want: ScopeArgs{Index: 0, Mode: model.ScopeDeny, IDs: []string{}},
		},
		{
			name: "allow with space separated ids",
			args: "2 allow 111 222",
			want: ScopeArgs{Index: 1, Mode: model.ScopeAllow, IDs: []string{"111", "222"}},
		},
		{
			name: "comma separated ids deduplicated",
			args: "3 deny 111,222, 111",
			want: ScopeArgs{Index: 2, Mode: model.ScopeDeny, IDs: []string{"111", "222"}},
		},
		{
			name: "mode is case insensitive",
			args: "1 ALLOW 5",
			want: ScopeArgs{Index: 0, Mode: model.ScopeAllow, IDs: []string{"5"}},
		},
		{
			name:    "missing mode",
			args:    "1",
			wantErr: true,
		},
		{
			name:    "invalid mode",
			args:    "1 maybe 111",
			wantErr: true,
		},
		{
			name:    "zero index",
			args:    "0 deny",
			wantErr: true,
		},
		{
			name:    "non numeric id",
			args:    "1 deny general",
			wantErr: true,
		},
		{
			name:    "empty args",
			args:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScopeArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseScopeArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseIndexArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int
		wantErr bool
	}{
		{name: "first rule", args: "1", want: 0},
		{name: "with spaces", args: "  7  ", want: 6},
		{name: "extra args ignored", args: "3 foo", want: 2},
		{name: "empty", args: "", wantErr: true},
		{name: "zero", args: "0", wantErr: true},
		{name: "negative", args: "-2", wantErr: true},
		{name: "not a number", args: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIndexArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseIndexArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseEditArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        string
		wantIdx     int
		wantPattern string
		wantErr     bool
	}{
		{name: "simple", args: "1 foo", wantIdx: 0, wantPattern: "foo"},
		{name: "pattern with spaces", args: "2 hello   world", wantIdx: 1, wantPattern: "hello   world"},
		{name: "missing pattern", args: "1", wantErr: true},
		{name: "blank pattern", args: "1    ", wantErr: true},
		{name: "bad index", args: "x foo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, pattern, err := ParseEditArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantIdx, idx); diff != "" {
				t.Errorf("index mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPattern, pattern); diff != "" {
				t.Errorf("pattern mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePageArg(t *testing.T) {
	tests := []struct {
		args    string
		want    int
		wantErr bool
	}{
		{args: "", want: 1},
		{args: "3", want: 3},
		{args: "0", wantErr: true},
		{args: "next", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := ParsePageArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePageArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRuleList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got := FormatRuleList(nil)
		if !strings.Contains(got, "No rules yet") {
			t.Errorf("expected empty message, got %q", got)
		}
	})

	t.Run("scopes", func(t *testing.T) {
		rs := []model.Rule{
			{Pattern: "foo", ScopeMode: model.ScopeDeny, ScopeIDs: []string{}},
			{Pattern: "bar", ScopeMode: model.ScopeDeny, ScopeIDs: []string{"1", "2"}},
			{Pattern: "baz", ScopeMode: model.ScopeAllow, ScopeIDs: []string{"3"}},
			{Pattern: "qux", ScopeMode: model.ScopeAllow, ScopeIDs: []string{}},
			{Pattern: "", ScopeMode: model.ScopeDeny, ScopeIDs: []string{}},
		}
		want := `Rules:

1. /foo/
   everywhere

2. /bar/
   deny: 1, 2

3. /baz/
   allow: 3

4. /qux/
   allow: none (inactive)

5. (empty, inactive)
   everywhere
`
		if diff := cmp.Diff(want, FormatRuleList(rs)); diff != "" {
			t.Errorf("FormatRuleList() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRenderHighlight(t *testing.T) {
	spans := []filter.Span{
		{Text: "a <b> & "},
		{Text: "foo", Match: true},
		{Text: " end"},
	}
	want := "a &lt;b&gt; &amp; <b>foo</b> end"
	if diff := cmp.Diff(want, RenderHighlight(spans)); diff != "" {
		t.Errorf("RenderHighlight() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLogEntry(t *testing.T) {
	msg := model.Message{
		ID:        "m1",
		ChannelID: "c1",
		Author:    model.Author{ID: "u1", Username: "alice", Discriminator: "0"},
		Content:   "deploy <now> please",
		Timestamp: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Embeds: []model.Embed{{
			Title:  "deploy report",
			Fields: []model.EmbedField{{Name: "status", Value: "deploy ok"}},
		}},
	}

	want := "<b>alice</b> <i>2024-03-01 12:30 UTC</i>\n" +
		"<b>deploy</b> &lt;now&gt; please\n\n" +
		"<b>deploy</b> report\n" +
		"status: <b>deploy</b> ok"
	if diff := cmp.Diff(want, FormatLogEntry(msg, []string{"deploy"})); diff != "" {
		t.Errorf("FormatLogEntry() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLogEntryStaysUnderMessageLimit(t *testing.T) {
	fields := make([]model.EmbedField, 30)
	for i := range fields {
		fields[i] = model.EmbedField{Name: "field", Value: strings.Repeat("v", 600)}
	}
	msg := model.Message{
		ID:        "m1",
		Author:    model.Author{ID: "u1", Username: "alice", Discriminator: "0"},
		Content:   strings.Repeat("&", 700),
		Timestamp: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Embeds: []model.Embed{{
			Title:       strings.Repeat("t", 300),
			Description: strings.Repeat("d", 1000),
			Fields:      fields,
		}},
	}

	got := FormatLogEntry(msg, []string{"v"})
	visible := html.UnescapeString(regexp.MustCompile(`</?[bi]>`).ReplaceAllString(got, ""))
	if n := utf8.RuneCountInString(visible); n > 4096 {
		t.Errorf("visible text has %d runes, over the 4096 limit", n)
	}
	if !strings.HasSuffix(got, "\n...") {
		t.Errorf("expected trailing ellipsis, got suffix %q", got[len(got)-20:])
	}
}

func TestRuleToken(t *testing.T) {
	base := model.Rule{Pattern: "foo", ScopeMode: model.ScopeDeny, ScopeIDs: []string{"1"}}
	if diff := cmp.Diff(RuleToken(base), RuleToken(base)); diff != "" {
		t.Errorf("token not stable (-want +got):\n%s", diff)
	}
	if got := len(RuleToken(base)); got != 8 {
		t.Errorf("token length = %d, want 8", got)
	}

	others := []model.Rule{
		{Pattern: "bar", ScopeMode: model.ScopeDeny, ScopeIDs: []string{"1"}},
		{Pattern: "foo", ScopeMode: model.ScopeAllow, ScopeIDs: []string{"1"}},
		{Pattern: "foo", ScopeMode: model.ScopeDeny, ScopeIDs: []string{"2"}},
		{Pattern: "foo", ScopeMode: model.ScopeDeny, ScopeIDs: []string{}},
	}
	for _, r := range others {
		if RuleToken(r) == RuleToken(base) {
			t.Errorf("rule %+v has the same token as %+v", r, base)
		}
	}
}

func TestLogPage(t *testing.T) {
	entries := make([]model.Message, 12)
	for i := range entries {
		entries[i] = model.Message{ID: string(rune('a' + i))}
	}

	tests := []struct {
		name      string
		page      int
		wantIDs   []string
		wantPages int
	}{
		{name: "first page", page: 1, wantIDs: []string{"a", "b", "c", "d", "e"}, wantPages: 3},
		{name: "last partial page", page: 3, wantIDs: []string{"k", "l"}, wantPages: 3},
		{name: "past the end", page: 4, wantIDs: []string{}, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pages := LogPage(entries, tt.page)
			ids := make([]string, 0, len(got))
			for _, m := range got {
				ids = append(ids, m.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPages, pages); diff != "" {
				t.Errorf("pages mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("empty log", func(t *testing.T) {
		got, pages := LogPage(nil, 1)
		if len(got) != 0 || pages != 0 {
			t.Errorf("expected no pages, got %d entries and %d pages", len(got), pages)
		}
	})
}
