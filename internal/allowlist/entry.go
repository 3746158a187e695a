package allowlist

import (
	"fmt"
	"regexp"
	"strings"
)

// Entry is one allowlist item: a literal hostname or a /regex/ matched against hostnames
type Entry struct {
	Raw     string
	Literal string
	Pattern *regexp.Regexp
}

// IsPattern reports whether the entry was written with / delimiters
func (e Entry) IsPattern() bool {
	return e.Pattern != nil
}

// ParseEntry classifies text. A malformed pattern returns an error.
func ParseEntry(text string) (Entry, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Entry{}, fmt.Errorf("allowlist entry is empty")
	}

	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "/") && strings.HasSuffix(trimmed, "/") {
		re, err := regexp.Compile(trimmed[1 : len(trimmed)-1])
		if err != nil {
			return Entry{Raw: trimmed}, fmt.Errorf("invalid allowlist pattern '%s': %w", trimmed, err)
		}
		return Entry{Raw: trimmed, Pattern: re}, nil
	}

	return Entry{Raw: trimmed, Literal: strings.ToLower(trimmed)}, nil
}

func (e Entry) matches(hostname string) bool {
	if e.Pattern != nil {
		return e.Pattern.MatchString(hostname)
	}
	return e.Literal != "" && e.Literal == hostname
}
