package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
)

// FeedExtractor pulls raw string fields out of a downloaded feed body.
type FeedExtractor interface {
	Extract(body []byte, contentType string) (*ExtractedFeed, error)
}

// DefaultFeedExtractor sniffs the wire format and delegates to the matching
// parser. Detection follows the content type first, then a body substring:
// atom+xml / "<feed" is Atom, rss+xml / "<rss" is RSS, anything else is
// ErrUnsupportedFormat.
type DefaultFeedExtractor struct{}

func NewFeedExtractor() *DefaultFeedExtractor {
	return &DefaultFeedExtractor{}
}

func (e *DefaultFeedExtractor) Extract(body []byte, contentType string) (*ExtractedFeed, error) {
	switch {
	case strings.Contains(contentType, "atom+xml") || bytes.Contains(body, []byte("<feed")):
		return e.extractAtom(body)
	case strings.Contains(contentType, "rss+xml") || bytes.Contains(body, []byte("<rss")):
		return e.extractRSS(body)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func (e *DefaultFeedExtractor) extractAtom(body []byte) (*ExtractedFeed, error) {
	parser := &atom.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: atom: %v", ErrMalformedFeed, err)
	}

	extracted := &ExtractedFeed{
		Title:       feed.Title,
		Description: feed.Subtitle,
		Link:        selectAtomLink(feed.Links),
	}

	for _, entry := range feed.Entries {
		if entry == nil {
			continue
		}

		item := ExtractedFeedEntry{
			Link:        selectAtomLink(entry.Links),
			Title:       entry.Title,
			Published:   firstNonEmpty(entry.Published, entry.Updated),
			Description: entry.Summary,
		}

		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			item.Author = entry.Authors[0].Name
		}

		// A media:group carries richer metadata than the bare entry
		// fields (YouTube feeds in particular), so it wins when present.
		if group := mediaGroup(entry.Extensions); group != nil {
			item.Title = firstNonEmpty(mediaChildValue(group, "title"), item.Title)
			item.Description = firstNonEmpty(mediaChildValue(group, "description"), item.Description)
			item.Thumbnail = firstNonEmpty(mediaChildAttr(group, "thumbnail", "url"), item.Thumbnail)
		}

		extracted.Entries = append(extracted.Entries, item)
	}

	return extracted, nil
}

func (e *DefaultFeedExtractor) extractRSS(body []byte) (*ExtractedFeed, error) {
	parser := &rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: rss: %v", ErrMalformedFeed, err)
	}

	extracted := &ExtractedFeed{
		Link:        feed.Link,
		Title:       feed.Title,
		Description: feed.Description,
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		entry := ExtractedFeedEntry{
			Link:        item.Link,
			Title:       item.Title,
			Published:   item.PubDate,
			Description: item.Description,
			Author:      item.Author,
		}

		if entry.Link == "" && item.GUID != nil && strings.EqualFold(item.GUID.IsPermalink, "true") {
			entry.Link = item.GUID.Value
		}

		if item.Enclosure != nil && strings.HasPrefix(item.Enclosure.Type, "image/") {
			entry.Thumbnail = item.Enclosure.URL
		}

		if group := mediaGroup(item.Extensions); group != nil {
			entry.Title = firstNonEmpty(mediaChildValue(group, "title"), entry.Title)
			entry.Description = firstNonEmpty(mediaChildValue(group, "description"), entry.Description)
			entry.Thumbnail = firstNonEmpty(mediaChildAttr(group, "thumbnail", "url"), entry.Thumbnail)
		} else if thumb := mediaAttr(item.Extensions, "thumbnail", "url"); thumb != "" {
			entry.Thumbnail = firstNonEmpty(thumb, entry.Thumbnail)
		}

		extracted.Entries = append(extracted.Entries, entry)
	}

	return extracted, nil
}

// selectAtomLink prefers a non-self link over a rel=self one
func selectAtomLink(links []*atom.Link) string {
	var self string
	for _, link := range links {
		if link == nil || link.Href == "" {
			continue
		}
		if link.Rel == "self" {
			self = link.Href
			continue
		}
		return link.Href
	}
	return self
}

func mediaGroup(extensions ext.Extensions) *ext.Extension {
	groups := mediaElements(extensions, "group")
	if len(groups) == 0 {
		return nil
	}
	return &groups[0]
}

func mediaElements(extensions ext.Extensions, name string) []ext.Extension {
	if extensions == nil {
		return nil
	}
	media, ok := extensions["media"]
	if !ok {
		return nil
	}
	return media[name]
}

func mediaAttr(extensions ext.Extensions, name, attr string) string {
	elements := mediaElements(extensions, name)
	if len(elements) == 0 {
		return ""
	}
	return elements[0].Attrs[attr]
}

func mediaChildValue(group *ext.Extension, name string) string {
	children := group.Children[name]
	if len(children) == 0 {
		return ""
	}
	return children[0].Value
}

func mediaChildAttr(group *ext.Extension, name, attr string) string {
	children := group.Children[name]
	if len(children) == 0 {
		return ""
	}
	return children[0].Attrs[attr]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
