// Package gallery decides which image URLs belong to a product's photo
// gallery. Two passive harvesters (thumbnail rail attributes, embedded script
// manifests) feed a reconciliation step; interactive escalation rebuilds the
// list from the live page only when passive extraction comes up empty.
package gallery

import (
	"strings"

	"github.com/pdplab/amazon-pdp-scraper/internal/imageurl"
)

// sentinelMarkers identify decorative assets (icons, sprites, video play
// buttons, animated placeholders) that never belong in a gallery.
var sentinelMarkers = []string{".svg", "sprite", "play-button", ".gif"}

// CandidateSet is an insertion-ordered collection of size-token-stripped
// image URLs, deduplicated by identity key, with sentinel entries excluded.
type CandidateSet struct {
	urls []string
	seen map[string]struct{}
}

func NewCandidateSet() *CandidateSet {
	return &CandidateSet{seen: make(map[string]struct{})}
}

// Add strips u to its identity key and appends it if it is a valid,
// previously unseen product image. Returns true when the URL was taken.
func (c *CandidateSet) Add(u string) bool {
	if !imageurl.IsAmazonImage(u) {
		return false
	}
	key := imageurl.StripSizeToken(u)
	if !imageurl.HasImagePath(key) || isSentinel(key) {
		return false
	}
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	c.urls = append(c.urls, key)
	return true
}

func (c *CandidateSet) Contains(u string) bool {
	_, ok := c.seen[imageurl.StripSizeToken(u)]
	return ok
}

func (c *CandidateSet) Len() int { return len(c.urls) }

func (c *CandidateSet) Empty() bool { return len(c.urls) == 0 }

// URLs returns the candidates in first-seen order.
func (c *CandidateSet) URLs() []string {
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

func isSentinel(u string) bool {
	lower := strings.ToLower(u)
	for _, m := range sentinelMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Reconcile merges the rail-derived and manifest-derived sets into the
// authoritative candidate list. The rail is what a human sees, the manifest
// is what the backend declares: when both contribute, the intersection (in
// manifest order) filters stale manifest entries; a lone non-empty set wins
// outright.
func Reconcile(rail, manifest *CandidateSet) []string {
	if rail == nil || rail.Empty() {
		if manifest == nil {
			return nil
		}
		return manifest.URLs()
	}
	if manifest == nil || manifest.Empty() {
		return rail.URLs()
	}
	var out []string
	for _, u := range manifest.URLs() {
		if rail.Contains(u) {
			out = append(out, u)
		}
	}
	return out
}
