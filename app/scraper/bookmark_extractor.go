package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// BookmarkExtractor pulls raw string fields out of a downloaded HTML page.
type BookmarkExtractor interface {
	Extract(body []byte, pageURL *url.URL) (*ExtractedBookmark, error)
}

// fieldQuery is one (selector, node-selection) pair. An empty Attr selects
// the node's text content.
type fieldQuery struct {
	Selector string
	Attr     string
}

// StrategySet is a named group of per-field selector lists. Sets are
// evaluated in registration order and the first non-empty match wins per
// field, so a new content provider is supported by prepending a
// higher-priority set rather than editing existing ones.
type StrategySet struct {
	Name        string
	Title       []fieldQuery
	Thumbnail   []fieldQuery
	Published   []fieldQuery
	Author      []fieldQuery
	Description []fieldQuery
}

var OpenGraphStrategy = StrategySet{
	Name: "open_graph",
	Title: []fieldQuery{
		{Selector: `meta[property="og:title"]`, Attr: "content"},
	},
	Thumbnail: []fieldQuery{
		{Selector: `meta[property="og:image"]`, Attr: "content"},
		{Selector: `meta[property="og:image:url"]`, Attr: "content"},
	},
	Published: []fieldQuery{
		{Selector: `meta[property="article:published_time"]`, Attr: "content"},
		{Selector: `meta[property="og:updated_time"]`, Attr: "content"},
	},
	Author: []fieldQuery{
		{Selector: `meta[property="article:author"]`, Attr: "content"},
	},
	Description: []fieldQuery{
		{Selector: `meta[property="og:description"]`, Attr: "content"},
	},
}

var TwitterCardStrategy = StrategySet{
	Name: "twitter_card",
	Title: []fieldQuery{
		{Selector: `meta[name="twitter:title"]`, Attr: "content"},
	},
	Thumbnail: []fieldQuery{
		{Selector: `meta[name="twitter:image"]`, Attr: "content"},
		{Selector: `meta[name="twitter:image:src"]`, Attr: "content"},
	},
	Author: []fieldQuery{
		{Selector: `meta[name="twitter:creator"]`, Attr: "content"},
	},
	Description: []fieldQuery{
		{Selector: `meta[name="twitter:description"]`, Attr: "content"},
	},
}

var MicrodataStrategy = StrategySet{
	Name: "microdata",
	Title: []fieldQuery{
		{Selector: `[itemtype$="schema.org/VideoObject"] [itemprop="name"]`, Attr: "content"},
		{Selector: `[itemtype$="schema.org/VideoObject"] [itemprop="name"]`},
	},
	Thumbnail: []fieldQuery{
		{Selector: `[itemtype$="schema.org/ImageObject"] [itemprop="url"]`, Attr: "href"},
		{Selector: `[itemprop="thumbnailUrl"]`, Attr: "href"},
		{Selector: `[itemprop="thumbnailUrl"]`, Attr: "content"},
		{Selector: `[itemprop="thumbnailUrl"]`, Attr: "src"},
	},
	Published: []fieldQuery{
		{Selector: `[itemprop="datePublished"]`, Attr: "content"},
		{Selector: `[itemprop="datePublished"]`, Attr: "datetime"},
		{Selector: `[itemprop="uploadDate"]`, Attr: "content"},
	},
	Author: []fieldQuery{
		{Selector: `[itemtype$="schema.org/Person"] [itemprop="name"]`, Attr: "content"},
		{Selector: `[itemtype$="schema.org/Person"] [itemprop="name"]`},
	},
}

var BaseStrategy = StrategySet{
	Name: "base",
	Title: []fieldQuery{
		{Selector: `meta[name="title"]`, Attr: "content"},
		{Selector: `title`},
	},
	Published: []fieldQuery{
		{Selector: `time[datetime]`, Attr: "datetime"},
	},
	Author: []fieldQuery{
		{Selector: `meta[name="author"]`, Attr: "content"},
	},
	Description: []fieldQuery{
		{Selector: `meta[name="description"]`, Attr: "content"},
	},
}

// DefaultBookmarkExtractor merges its strategy sets per field in priority
// order. When every set misses, a readability pass over the page fills the
// remaining gaps.
type DefaultBookmarkExtractor struct {
	strategies []StrategySet
}

func NewBookmarkExtractor(extra ...StrategySet) *DefaultBookmarkExtractor {
	strategies := append([]StrategySet{}, extra...)
	strategies = append(strategies, OpenGraphStrategy, TwitterCardStrategy, MicrodataStrategy, BaseStrategy)
	return &DefaultBookmarkExtractor{strategies: strategies}
}

func (e *DefaultBookmarkExtractor) Extract(body []byte, pageURL *url.URL) (*ExtractedBookmark, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML document: %w", err)
	}

	extracted := &ExtractedBookmark{
		Title:       e.resolveField(doc, func(s StrategySet) []fieldQuery { return s.Title }),
		Thumbnail:   e.resolveField(doc, func(s StrategySet) []fieldQuery { return s.Thumbnail }),
		Published:   e.resolveField(doc, func(s StrategySet) []fieldQuery { return s.Published }),
		Author:      e.resolveField(doc, func(s StrategySet) []fieldQuery { return s.Author }),
		Description: e.resolveField(doc, func(s StrategySet) []fieldQuery { return s.Description }),
	}

	if extracted.Title == "" || extracted.Description == "" || extracted.Thumbnail == "" || extracted.Author == "" {
		e.fillFromReadability(body, pageURL, extracted)
	}

	return extracted, nil
}

func (e *DefaultBookmarkExtractor) resolveField(doc *goquery.Document, field func(StrategySet) []fieldQuery) string {
	for _, strategy := range e.strategies {
		for _, query := range field(strategy) {
			if value := evaluate(doc, query); value != "" {
				return value
			}
		}
	}
	return ""
}

func evaluate(doc *goquery.Document, query fieldQuery) string {
	sel := doc.Find(query.Selector).First()
	if sel.Length() == 0 {
		return ""
	}

	if query.Attr == "" {
		return strings.TrimSpace(sel.Text())
	}

	value, _ := sel.Attr(query.Attr)
	return strings.TrimSpace(value)
}

func (e *DefaultBookmarkExtractor) fillFromReadability(body []byte, pageURL *url.URL, extracted *ExtractedBookmark) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return
	}

	extracted.Title = firstNonEmpty(extracted.Title, article.Title)
	extracted.Description = firstNonEmpty(extracted.Description, article.Excerpt)
	extracted.Thumbnail = firstNonEmpty(extracted.Thumbnail, article.Image)
	extracted.Author = firstNonEmpty(extracted.Author, article.Byline)
}
