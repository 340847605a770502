package scraper

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat means neither the Atom nor the RSS signature matched.
// Callers use it to switch to HTML feed discovery instead of hard-failing.
var ErrUnsupportedFormat = errors.New("unsupported feed format")

// ErrMalformedFeed means the format signature matched but the body did not
// parse.
var ErrMalformedFeed = errors.New("malformed feed")

// Postprocessing failures, one named variant per field so callers can tell
// "this page has no feed" apart from "this page's feed is malformed".
var (
	ErrFeedLinkInvalid      = errors.New("feed link is not a valid absolute URL")
	ErrFeedTitleMissing     = errors.New("feed title is missing")
	ErrEntryLinkInvalid     = errors.New("entry link is not a valid absolute URL")
	ErrEntryTitleMissing    = errors.New("entry title is missing")
	ErrEntryDateInvalid     = errors.New("entry published date could not be parsed")
	ErrBookmarkTitleMissing = errors.New("bookmark title is missing")
)

// HTTPError carries a non-2xx response status or a transport failure from the
// downloader.
type HTTPError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err was caused by the remote host (transport,
// status, format or malformed content) rather than by an internal fault.
// The HTTP layer maps these to a bad-gateway class of response.
func IsRemoteError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return true
	}
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrMalformedFeed) ||
		errors.Is(err, ErrFeedLinkInvalid) ||
		errors.Is(err, ErrFeedTitleMissing) ||
		errors.Is(err, ErrEntryLinkInvalid) ||
		errors.Is(err, ErrEntryTitleMissing) ||
		errors.Is(err, ErrEntryDateInvalid) ||
		errors.Is(err, ErrBookmarkTitleMissing)
}
