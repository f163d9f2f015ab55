package anime

import (
	"strings"
	"unicode"
)

// NormalizeTitle lowercases s, drops every character outside [a-z0-9] and
// whitespace, and collapses whitespace runs.
func NormalizeTitle(s string) string {
	lowered := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Match returns the first candidate whose normalized title equals the
// normalized primaryTitle, contains it, or is contained in it. Candidates whose
// title normalizes to empty never match, and neither does an empty
// primaryTitle.
func Match(primaryTitle string, candidates []SecondaryRecord) (SecondaryRecord, bool) {
	target := NormalizeTitle(primaryTitle)
	if target == "" {
		return SecondaryRecord{}, false
	}

	for _, c := range candidates {
		candidate := NormalizeTitle(c.Title)
		if candidate == "" {
			continue
		}
		if candidate == target ||
			strings.Contains(candidate, target) ||
			strings.Contains(target, candidate) {
			return c, true
		}
	}

	return SecondaryRecord{}, false
}
