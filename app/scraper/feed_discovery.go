package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var feedLinkTypes = map[string]bool{
	"application/rss+xml":  true,
	"application/atom+xml": true,
	"application/xml":      true,
	"text/xml":             true,
}

// DiscoverFeeds scans an HTML page's head for <link rel="alternate"> feed
// references and resolves them against the page URL. Used as the fallback
// when format detection fails on a page that is not itself a feed.
func DiscoverFeeds(body []byte, pageURL *url.URL) ([]FeedCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML document: %w", err)
	}

	var candidates []FeedCandidate
	seen := make(map[string]bool)

	doc.Find(`head link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		linkType, _ := sel.Attr("type")
		if !feedLinkTypes[strings.ToLower(strings.TrimSpace(linkType))] {
			return
		}

		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		resolved := pageURL.ResolveReference(ref).String()
		if seen[resolved] {
			return
		}
		seen[resolved] = true

		title, _ := sel.Attr("title")
		candidates = append(candidates, FeedCandidate{
			URL:   resolved,
			Title: strings.TrimSpace(title),
		})
	})

	return candidates, nil
}
