package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"
)

// ErrBadTier indicates a media locator whose quality tier could not be
// parsed. The original implementation left the comparison undefined in that
// case; here it is an explicit error.
var ErrBadTier = errors.New("unparsable quality tier in media locator")

// tierRegex extracts the resolution class from a progressive download
// locator, e.g. "_720P.mp4" or "_r480P.mp4".
var tierRegex = regexp.MustCompile(`_r?(\d+)P\.`)

// Variant is one quality-tiered rendition of a media item.
type Variant struct {
	Tier int
	URL  string
}

// ParseTier extracts the numeric tier embedded in a media locator.
func ParseTier(locator string) (int, error) {
	m := tierRegex.FindStringSubmatch(locator)
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrBadTier, locator)
	}
	tier, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBadTier, locator)
	}
	return tier, nil
}

// Selector keeps at most one variant per media item. The rule, applied to
// each observed variant in document order:
//
//  1. A tier equal to the cap always wins, regardless of arrival order.
//  2. Otherwise a variant is kept when nothing is held yet, or when its tier
//     is higher than the held one while still below the cap.
//  3. Everything else is discarded.
//
// If no variant is ever observed (or all sit at or above a cap that none
// matches exactly), the item yields no selection and is dropped.
type Selector struct {
	cap    int
	chosen Variant
	set    bool
}

// NewSelector returns a selector for one media item with the given cap.
func NewSelector(qualityCap int) *Selector {
	return &Selector{cap: qualityCap}
}

// Observe feeds one variant through the selection rule.
func (s *Selector) Observe(v Variant) {
	if v.Tier == s.cap {
		s.chosen = v
		s.set = true
		return
	}
	if v.Tier >= s.cap {
		return
	}
	if !s.set || v.Tier > s.chosen.Tier {
		s.chosen = v
		s.set = true
	}
}

// Chosen returns the final selection after all variants were observed.
func (s *Selector) Chosen() (Variant, bool) {
	return s.chosen, s.set
}

// Reset clears the selector for the next media item.
func (s *Selector) Reset() {
	s.chosen = Variant{}
	s.set = false
}

// IsAdaptive reports whether a locator points at an HLS master manifest
// rather than a progressive file.
func IsAdaptive(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return strings.HasSuffix(locator, ".m3u8")
	}
	return path.Ext(u.Path) == ".m3u8"
}

// ResolveAdaptive fetches an HLS master manifest and reduces it to a single
// Variant using the same rule as Selector, keyed on each stream variant's
// resolution height. fetch is injected so tests can serve fixture manifests.
// The second return is false when no stream variant fits under the cap.
func ResolveAdaptive(ctx context.Context, fetch func(ctx context.Context, url string) (io.ReadCloser, error), manifestURL string, qualityCap int) (Variant, bool, error) {
	body, err := fetch(ctx, manifestURL)
	if err != nil {
		return Variant{}, false, err
	}
	defer body.Close()

	playlist, listType, err := m3u8.DecodeFrom(body, true)
	if err != nil {
		return Variant{}, false, fmt.Errorf("decode manifest %s: %w", manifestURL, err)
	}
	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok || listType != m3u8.MASTER {
		return Variant{}, false, fmt.Errorf("manifest %s is not a master playlist", manifestURL)
	}

	sel := NewSelector(qualityCap)
	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}
		height, err := variantHeight(variant.Resolution)
		if err != nil {
			return Variant{}, false, fmt.Errorf("%w: manifest %s resolution %q", ErrBadTier, manifestURL, variant.Resolution)
		}
		uri, err := resolveURI(manifestURL, variant.URI)
		if err != nil {
			return Variant{}, false, err
		}
		sel.Observe(Variant{Tier: height, URL: uri})
	}
	v, ok := sel.Chosen()
	return v, ok, nil
}

// variantHeight parses the height out of a "WxH" resolution string.
func variantHeight(resolution string) (int, error) {
	_, h, found := strings.Cut(resolution, "x")
	if !found {
		return 0, fmt.Errorf("missing height in %q", resolution)
	}
	return strconv.Atoi(h)
}

// resolveURI makes a variant URI absolute relative to its manifest.
func resolveURI(manifestURL, uri string) (string, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("parse manifest url %s: %w", manifestURL, err)
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse variant uri %s: %w", uri, err)
	}
	return base.ResolveReference(ref).String(), nil
}
