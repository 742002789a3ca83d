// Package imageurl normalizes Amazon product image URLs to one canonical
// high-resolution form and provides the identity key used for deduplication.
package imageurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// CanonicalHost is the single host every canonical URL is rewritten to.
const CanonicalHost = "m.media-amazon.com"

var allowedHosts = []string{
	"m.media-amazon.com",
	"images-na.ssl-images-amazon.com",
	"images-eu.ssl-images-amazon.com",
}

var (
	// Size/quality tokens look like ._SL1500_. / ._SX466_. / ._SR300,300_. / ._QL70_.
	sizeTokenRe = regexp.MustCompile(`\._[^_.]+_\.`)
	extRe       = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)$`)
	imagePathRe = regexp.MustCompile(`(?i)(/images/I/[^?]+?\.(jpg|jpeg|png|webp))$`)
	injectRe    = regexp.MustCompile(`(?i)(\.(jpg|jpeg|png|webp))$`)
)

// IsAmazonImage reports whether u points at one of the known Amazon image hosts.
func IsAmazonImage(u string) bool {
	if u == "" || !strings.HasPrefix(u, "https://") {
		return false
	}
	for _, h := range allowedHosts {
		if strings.Contains(u, h) {
			return true
		}
	}
	return false
}

// HasImagePath reports whether u carries the /images/I/ segment that
// identifies a product image object.
func HasImagePath(u string) bool {
	return strings.Contains(u, "/images/I/")
}

// StripSizeToken removes the query string and any embedded size token.
// The result is the image's identity key: two URLs that strip to the same
// string are the same image at different resolutions.
func StripSizeToken(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return sizeTokenRe.ReplaceAllString(u, ".")
}

// WithSizeToken injects ._SL{size}_. before the extension of a stripped URL.
func WithSizeToken(u string, size int) string {
	v := StripSizeToken(u)
	return injectRe.ReplaceAllString(v, fmt.Sprintf("._SL%d_$1", size))
}

// Canonicalize rewrites any Amazon image URL to
// https://m.media-amazon.com/images/I/<KEY>._SL{size}_.jpg.
// Inputs without the /images/I/ path or a recognized extension pass through
// unchanged. The function is idempotent for a fixed size.
func Canonicalize(u string, size int) string {
	if u == "" || !HasImagePath(u) {
		return u
	}
	stripped := StripSizeToken(u)
	parsed, err := url.Parse(stripped)
	if err != nil {
		return u
	}
	m := imagePathRe.FindStringSubmatch(parsed.Path)
	if m == nil {
		return stripped
	}
	path := extRe.ReplaceAllString(m[1], ".jpg")
	path = injectRe.ReplaceAllString(path, fmt.Sprintf("._SL%d_$1", size))
	canonical := url.URL{Scheme: "https", Host: CanonicalHost, Path: path}
	return canonical.String()
}

// probeSizes are tried largest-first when hunting for the highest real
// resolution a key is served at.
var probeSizes = []int{4096, 3600, 3000, 2400, 2000, 1500}

// CandidateURLs returns the un-tokened original followed by descending
// _SL-token variants, deduplicated and restricted to the image hosts.
func CandidateURLs(u string) []string {
	base := StripSizeToken(u)
	cands := make([]string, 0, len(probeSizes)+1)
	cands = append(cands, base)
	for _, s := range probeSizes {
		cands = append(cands, WithSizeToken(base, s))
	}
	seen := make(map[string]struct{}, len(cands))
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if !IsAmazonImage(c) {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
