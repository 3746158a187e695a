package render

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
)

// ExtractLinks returns the href of every anchor in html, in document order,
// without duplicates. A <base href> in the document replaces pageURL as the
// base; the returned base is what callers resolve the hrefs against.
func ExtractLinks(html string, pageURL *url.URL) ([]string, *url.URL, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, pageURL, errorwrapper.WrapError(err, "failed to parse HTML content")
	}

	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && pageURL != nil {
		if resolved, err := pageURL.Parse(strings.TrimSpace(href)); err == nil {
			base = resolved
		}
	}

	seen := make(map[string]struct{})
	links := make([]string, 0, 32)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})

	return links, base, nil
}
