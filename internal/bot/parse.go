package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"keyword_notify/internal/model"
)

// ScopeArgs holds the parsed arguments of a /scope command.
type ScopeArgs struct {
	Index int
	Mode  model.ScopeMode
	IDs   []string
}

// ParseIndexArg extracts a 1-based rule number and returns it 0-based.
func ParseIndexArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("rule number is required")
	}
	return parseIndex(strings.Fields(s)[0])
}

// ParseEditArgs extracts a rule number and the new pattern.
func ParseEditArgs(args string) (int, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("usage: /edit <n> <pattern>")
	}
	idx, err := parseIndex(parts[0])
	if err != nil {
		return 0, "", err
	}
	pattern := strings.TrimSpace(parts[1])
	if pattern == "" {
		return 0, "", fmt.Errorf("pattern cannot be empty")
	}
	return idx, pattern, nil
}

// ParseScopeArgs parses arguments for /scope.
// Format: <n> allow|deny [id...], IDs separated by spaces or commas.
func ParseScopeArgs(args string) (ScopeArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return ScopeArgs{}, fmt.Errorf("usage: /scope <n> allow|deny [ids...]")
	}

	idx, err := parseIndex(parts[0])
	if err != nil {
		return ScopeArgs{}, err
	}

	mode := model.ScopeMode(strings.ToLower(parts[1]))
	if mode != model.ScopeAllow && mode != model.ScopeDeny {
		return ScopeArgs{}, fmt.Errorf("invalid scope mode %q, use: allow, deny", parts[1])
	}

	var ids []string
	for _, p := range parts[2:] {
		ids = append(ids, strings.FieldsFunc(p, func(r rune) bool { return r == ',' })...)
	}
	for _, id := range ids {
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return ScopeArgs{}, fmt.Errorf("invalid ID %q", id)
		}
	}

	return ScopeArgs{
		Index: idx,
		Mode:  mode,
		IDs:   lo.Uniq(ids),
	}, nil
}

// ParsePageArg extracts an optional 1-based page number, defaulting to 1.
func ParsePageArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q", s)
	}
	return page, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid rule number %q", s)
	}
	return n - 1, nil
}
