package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// FeedPostprocessor normalizes an extracted feed into typed, validated
// domain values or fails with an error naming the offending field.
type FeedPostprocessor interface {
	ProcessFeed(sourceURL *url.URL, extracted *ExtractedFeed) (*ProcessedFeed, error)
}

type BookmarkPostprocessor interface {
	ProcessBookmark(pageURL *url.URL, extracted *ExtractedBookmark) (*ProcessedBookmark, error)
}

// dateLayouts is the published-date fallback chain: RFC 3339, then RFC 2822,
// then RFC 2822 without the comma. First successful parse wins.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	"Mon 02 Jan 2006 15:04:05 -0700",
}

// Postprocessor validates extracted fields. Entries that fail validation are
// skipped and logged so one malformed item does not poison an otherwise-good
// feed; StrictEntries switches to failing the whole feed on the first bad
// entry instead.
type Postprocessor struct {
	StrictEntries bool
}

func NewPostprocessor() *Postprocessor {
	return &Postprocessor{}
}

var (
	_ FeedPostprocessor     = (*Postprocessor)(nil)
	_ BookmarkPostprocessor = (*Postprocessor)(nil)
)

func (p *Postprocessor) ProcessFeed(sourceURL *url.URL, extracted *ExtractedFeed) (*ProcessedFeed, error) {
	link := sourceURL
	if extracted.Link != "" {
		parsed, err := parseAbsoluteURL(extracted.Link)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrFeedLinkInvalid, extracted.Link)
		}
		link = parsed
	}
	if link == nil {
		return nil, ErrFeedLinkInvalid
	}

	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		return nil, ErrFeedTitleMissing
	}

	processed := &ProcessedFeed{
		Link:        link,
		Title:       title,
		Description: strings.TrimSpace(extracted.Description),
	}

	for _, raw := range extracted.Entries {
		entry, err := p.processEntry(raw)
		if err != nil {
			if p.StrictEntries {
				return nil, err
			}
			slog.Warn("Skipping malformed feed entry", "feed", link.String(), "entry_link", raw.Link, "error", err)
			continue
		}
		processed.Entries = append(processed.Entries, *entry)
	}

	return processed, nil
}

func (p *Postprocessor) processEntry(raw ExtractedFeedEntry) (*ProcessedFeedEntry, error) {
	link, err := parseAbsoluteURL(raw.Link)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEntryLinkInvalid, raw.Link)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, ErrEntryTitleMissing
	}

	published, err := parseDate(raw.Published)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEntryDateInvalid, raw.Published)
	}

	entry := &ProcessedFeedEntry{
		Link:        link,
		Title:       title,
		Published:   published,
		Description: strings.TrimSpace(raw.Description),
		Author:      strings.TrimSpace(raw.Author),
	}

	// An unparseable thumbnail is dropped, not fatal
	if raw.Thumbnail != "" {
		if thumb, err := parseAbsoluteURL(raw.Thumbnail); err == nil {
			entry.Thumbnail = thumb
		}
	}

	return entry, nil
}

func (p *Postprocessor) ProcessBookmark(pageURL *url.URL, extracted *ExtractedBookmark) (*ProcessedBookmark, error) {
	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		return nil, ErrBookmarkTitleMissing
	}

	processed := &ProcessedBookmark{
		Link:        pageURL,
		Title:       title,
		Author:      strings.TrimSpace(extracted.Author),
		Description: strings.TrimSpace(extracted.Description),
	}

	// Published and thumbnail are optional for a bare webpage; values that
	// fail to normalize are treated as absent.
	if extracted.Published != "" {
		if published, err := parseDate(extracted.Published); err == nil {
			processed.Published = &published
		}
	}

	if extracted.Thumbnail != "" {
		if ref, err := url.Parse(strings.TrimSpace(extracted.Thumbnail)); err == nil {
			resolved := pageURL.ResolveReference(ref)
			if resolved.IsAbs() && resolved.Host != "" {
				processed.Thumbnail = resolved
			}
		}
	}

	return processed, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("no layout matched %q", value)
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("URL %q is not absolute", raw)
	}
	return parsed, nil
}
