package scraper

import (
	"context"
	"errors"
	"fmt"
)

// hostMap resolves a per-host override, falling back to the shared default
// when no override is registered for the host.
type hostMap[T any] struct {
	overrides map[string]T
	fallback  T
}

func newHostMap[T any](fallback T) hostMap[T] {
	return hostMap[T]{
		overrides: make(map[string]T),
		fallback:  fallback,
	}
}

func (m hostMap[T]) register(host string, value T) {
	m.overrides[host] = value
}

func (m hostMap[T]) resolve(host string) T {
	if value, ok := m.overrides[host]; ok {
		return value
	}
	return m.fallback
}

// FeedScraper orchestrates download, extraction and postprocessing for feed
// URLs. Each stage is resolved per target host, so provider-specific quirks
// live in registered overrides instead of conditionals in the default path.
type FeedScraper struct {
	downloaders    hostMap[Downloader]
	extractors     hostMap[FeedExtractor]
	postprocessors hostMap[FeedPostprocessor]
}

func NewFeedScraper(downloader Downloader, extractor FeedExtractor, postprocessor FeedPostprocessor) *FeedScraper {
	return &FeedScraper{
		downloaders:    newHostMap(downloader),
		extractors:     newHostMap(extractor),
		postprocessors: newHostMap(postprocessor),
	}
}

func (s *FeedScraper) RegisterDownloader(host string, d Downloader) {
	s.downloaders.register(host, d)
}

func (s *FeedScraper) RegisterExtractor(host string, e FeedExtractor) {
	s.extractors.register(host, e)
}

func (s *FeedScraper) RegisterPostprocessor(host string, p FeedPostprocessor) {
	s.postprocessors.register(host, p)
}

// Scrape runs the three stages in sequence, short-circuiting on the first
// error.
func (s *FeedScraper) Scrape(ctx context.Context, rawURL string) (*ProcessedFeed, error) {
	target, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %q: %w", rawURL, err)
	}

	body, contentType, err := s.downloaders.resolve(target.Host).Download(ctx, target.String())
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractors.resolve(target.Host).Extract(body, contentType)
	if err != nil {
		return nil, err
	}

	return s.postprocessors.resolve(target.Host).ProcessFeed(target, extracted)
}

// Detect classifies the URL's content. A recognized feed yields a single
// candidate; an HTML page falls back to head link discovery.
func (s *FeedScraper) Detect(ctx context.Context, rawURL string) ([]FeedCandidate, error) {
	target, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	body, contentType, err := s.downloaders.resolve(target.Host).Download(ctx, target.String())
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractors.resolve(target.Host).Extract(body, contentType)
	if err == nil {
		return []FeedCandidate{{URL: target.String(), Title: extracted.Title}}, nil
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		return nil, err
	}

	return DiscoverFeeds(body, target)
}

// BookmarkScraper is the bookmark counterpart of FeedScraper: one scrape
// call per webpage, host-resolved stages, shared defaults.
type BookmarkScraper struct {
	downloaders    hostMap[Downloader]
	extractors     hostMap[BookmarkExtractor]
	postprocessors hostMap[BookmarkPostprocessor]
}

func NewBookmarkScraper(downloader Downloader, extractor BookmarkExtractor, postprocessor BookmarkPostprocessor) *BookmarkScraper {
	return &BookmarkScraper{
		downloaders:    newHostMap(downloader),
		extractors:     newHostMap(extractor),
		postprocessors: newHostMap(postprocessor),
	}
}

func (s *BookmarkScraper) RegisterDownloader(host string, d Downloader) {
	s.downloaders.register(host, d)
}

func (s *BookmarkScraper) RegisterExtractor(host string, e BookmarkExtractor) {
	s.extractors.register(host, e)
}

func (s *BookmarkScraper) RegisterPostprocessor(host string, p BookmarkPostprocessor) {
	s.postprocessors.register(host, p)
}

func (s *BookmarkScraper) Scrape(ctx context.Context, rawURL string) (*ProcessedBookmark, error) {
	target, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bookmark URL %q: %w", rawURL, err)
	}

	body, _, err := s.downloaders.resolve(target.Host).Download(ctx, target.String())
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractors.resolve(target.Host).Extract(body, target)
	if err != nil {
		return nil, err
	}

	return s.postprocessors.resolve(target.Host).ProcessBookmark(target, extracted)
}
