package render

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	pageURL, err := url.Parse("https://a.example.com/docs/")
	require.NoError(t, err)

	html := `<html><head><link href="/style.css" rel="stylesheet"></head><body>
		<a href="/one">One</a>
		<a href=" two ">Two</a>
		<a href="/one">Again</a>
		<a>No href</a>
		<a href="">Empty</a>
		<img src="/logo.png">
		<a href="https://other.example.org/">Elsewhere</a>
	</body></html>`

	links, base, err := ExtractLinks(html, pageURL)
	require.NoError(t, err)
	assert.Equal(t, pageURL, base)
	assert.Equal(t, []string{"/one", "two", "https://other.example.org/"}, links)
}

func TestExtractLinks_BaseElement(t *testing.T) {
	pageURL, err := url.Parse("https://a.example.com/docs/page.html")
	require.NoError(t, err)

	html := `<html><head><base href="/v2/"></head><body><a href="intro">Intro</a></body></html>`

	links, base, err := ExtractLinks(html, pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com/v2/", base.String())
	assert.Equal(t, []string{"intro"}, links)
}

func TestExtractLinks_NoAnchors(t *testing.T) {
	links, _, err := ExtractLinks("<p>plain</p>", nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}
