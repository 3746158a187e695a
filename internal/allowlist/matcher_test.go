package allowlist

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntry(t *testing.T) {
	literal, err := ParseEntry("  Example.COM ")
	require.NoError(t, err)
	assert.False(t, literal.IsPattern())
	assert.Equal(t, "example.com", literal.Literal)

	pattern, err := ParseEntry(`/^.*\.example\.com$/`)
	require.NoError(t, err)
	assert.True(t, pattern.IsPattern())

	_, err = ParseEntry("/[unclosed/")
	assert.Error(t, err)

	_, err = ParseEntry("   ")
	assert.Error(t, err)
}

func TestMatcher_IsAllowed(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		origin  string
		entries []string
		url     string
		want    bool
	}{
		{
			name:    "regex matches subdomain",
			origin:  "https://a.example.com",
			entries: []string{`/^.*\.example\.com$/`},
			url:     "https://a.example.com/page",
			want:    true,
		},
		{
			name:    "literal does not match subdomain",
			origin:  "https://a.example.com",
			entries: []string{"example.com"},
			url:     "https://a.example.com/page",
			want:    false,
		},
		{
			name:    "literal is case-insensitive",
			origin:  "https://a.example.com",
			entries: []string{"A.Example.com"},
			url:     "https://A.EXAMPLE.com/page",
			want:    true,
		},
		{
			name:    "cross-origin rejected even when host matches",
			origin:  "https://a.example.com",
			entries: []string{`/^.*\.example\.com$/`},
			url:     "https://b.example.com/page",
			want:    false,
		},
		{
			name:    "scheme mismatch is cross-origin",
			origin:  "https://a.example.com",
			entries: []string{"a.example.com"},
			url:     "http://a.example.com/",
			want:    false,
		},
		{
			name:    "default port elided",
			origin:  "https://a.example.com",
			entries: []string{"a.example.com"},
			url:     "https://a.example.com:443/x",
			want:    true,
		},
		{
			name:    "non-default port is a different origin",
			origin:  "https://a.example.com",
			entries: []string{"a.example.com"},
			url:     "https://a.example.com:8443/x",
			want:    false,
		},
		{
			name:    "malformed pattern never matches",
			origin:  "https://a.example.com",
			entries: []string{"/(/"},
			url:     "https://a.example.com/",
			want:    false,
		},
		{
			name:    "no entries rejects everything",
			origin:  "https://a.example.com",
			entries: nil,
			url:     "https://a.example.com/",
			want:    false,
		},
		{
			name:    "unparseable url",
			origin:  "https://a.example.com",
			entries: []string{"a.example.com"},
			url:     "://bad",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.origin, tt.entries, logger)
			assert.Equal(t, tt.want, m.IsAllowed(tt.url))
		})
	}
}

func TestSet(t *testing.T) {
	s := NewSet("a.example.com", "", "A.example.com", "b.example.com")
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, s.Entries())

	assert.True(t, s.Add(`/^c\./`))
	assert.False(t, s.Add("b.example.com"))
	assert.Equal(t, 3, s.Len())

	assert.True(t, s.Remove("a.example.com"))
	assert.False(t, s.Remove("missing.example.com"))
	assert.Equal(t, []string{"b.example.com", `/^c\./`}, s.Entries())

	snapshot := s.Entries()
	snapshot[0] = "mutated"
	assert.Equal(t, "b.example.com", s.Entries()[0])

	s.Reset("z.example.com")
	assert.Equal(t, []string{"z.example.com"}, s.Entries())
}
