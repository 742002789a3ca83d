package gallery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// thumbQuery matches the clickable thumbnail strip across the markup variants
// Amazon ships for the image block.
const thumbQuery = "img.imageThumbnail, " +
	"#altImages li.imageThumbnail img, " +
	"#altImages ul.a-unordered-list li img, " +
	"#imageBlockThumbs img, " +
	"li[data-csa-c-type='image-block-image'] img, " +
	"button[aria-label*='image'] img"

// railContainers are the selectors the escalation passes wait on before
// interacting with thumbnails.
var railContainers = []string{
	"#altImages", "#imageBlockThumbs", "div#leftCol #altImages",
	"[data-csa-c-content-id='imageBlock'] #altImages", "#imageBlock", "#imageBlock_feature_div",
}

var (
	imageBlockATFRe    = regexp.MustCompile(`(?s)P\.register\("ImageBlockATF",\s*(\{.*?\})\s*\);`)
	imageGalleryDataRe = regexp.MustCompile(`(?s)"imageGalleryData"\s*:\s*(\[[^\]]+\])`)
)

// galleryFieldPriority is the order in which a manifest entry's URL fields
// are probed; the first valid one wins.
var galleryFieldPriority = []string{"hiRes", "zoomed", "superUrl", "mainUrl", "large", "main", "url"}

var skipMediaTypes = []string{"VIDEO", "SPIN", "360"}

// FromThumbnailRail harvests candidates from the visible thumbnail rail of a
// parsed page snapshot. Per thumbnail it inspects, in priority order, the
// data-a-dynamic-image JSON attribute (whose keys are URLs), the direct
// source attributes, and finally the first srcset entry. Pure function,
// no network I/O.
func FromThumbnailRail(doc *goquery.Document) *CandidateSet {
	set := NewCandidateSet()
	doc.Find(thumbQuery).Each(func(_ int, img *goquery.Selection) {
		if dyn, ok := img.Attr("data-a-dynamic-image"); ok {
			for _, u := range dynamicImageKeys(dyn) {
				set.Add(u)
			}
		}
		for _, attr := range []string{"src", "data-src", "data-old-hires"} {
			if s, ok := img.Attr(attr); ok {
				set.Add(s)
			}
		}
		if srcset, ok := img.Attr("srcset"); ok {
			if first := firstSrcsetURL(srcset); first != "" {
				set.Add(first)
			}
		}
	})
	return set
}

// FromImageBlockScripts harvests candidates from the two known embedded
// script manifests: the ImageBlockATF registration (colorImages.initial) and
// the imageGalleryData array. Malformed or missing JSON for either block
// contributes nothing.
func FromImageBlockScripts(doc *goquery.Document) *CandidateSet {
	set := NewCandidateSet()

	scanScript(doc, "ImageBlockATF", func(body string) {
		m := imageBlockATFRe.FindStringSubmatch(body)
		if m == nil {
			return
		}
		var payload struct {
			ColorImages struct {
				Initial []galleryEntry `json:"initial"`
			} `json:"colorImages"`
		}
		if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
			return
		}
		for _, entry := range payload.ColorImages.Initial {
			entry.addTo(set)
		}
	})

	scanScript(doc, "imageGalleryData", func(body string) {
		m := imageGalleryDataRe.FindStringSubmatch(body)
		if m == nil {
			return
		}
		var entries []galleryEntry
		if err := json.Unmarshal([]byte(m[1]), &entries); err != nil {
			return
		}
		for _, entry := range entries {
			entry.addTo(set)
		}
	})

	return set
}

// scanScript runs fn on the first script element containing marker.
func scanScript(doc *goquery.Document, marker string, fn func(body string)) {
	doc.Find("script").EachWithBreak(func(_ int, sc *goquery.Selection) bool {
		body := sc.Text()
		if !strings.Contains(body, marker) {
			return true
		}
		fn(body)
		return false
	})
}

// galleryEntry is one manifest node; unknown fields are kept raw so the
// priority probe can look them up without a fixed schema.
type galleryEntry struct {
	Type      string          `json:"type"`
	Variant   string          `json:"variant"`
	MediaType string          `json:"mediaType"`
	HiRes     string          `json:"hiRes"`
	Zoomed    string          `json:"zoomed"`
	SuperURL  string          `json:"superUrl"`
	MainURL   string          `json:"mainUrl"`
	Large     string          `json:"large"`
	Main      json.RawMessage `json:"main"`
	URL       string          `json:"url"`
	Variants  []galleryEntry  `json:"variants"`
}

func (e galleryEntry) mediaKind() string {
	for _, s := range []string{e.Type, e.Variant, e.MediaType} {
		if s != "" {
			return strings.ToUpper(s)
		}
	}
	return "IMAGE"
}

func (e galleryEntry) isNonImage() bool {
	kind := e.mediaKind()
	for _, t := range skipMediaTypes {
		if strings.Contains(kind, t) {
			return true
		}
	}
	return false
}

// addTo feeds the entry's best URL (first present field in priority order)
// into the set, then recurses into variant sub-entries.
func (e galleryEntry) addTo(set *CandidateSet) {
	if e.isNonImage() {
		return
	}
	for _, field := range galleryFieldPriority {
		if u := e.field(field); u != "" && set.Add(u) {
			break
		}
	}
	for _, v := range e.Variants {
		v.addTo(set)
	}
}

func (e galleryEntry) field(name string) string {
	switch name {
	case "hiRes":
		return e.HiRes
	case "zoomed":
		return e.Zoomed
	case "superUrl":
		return e.SuperURL
	case "mainUrl":
		return e.MainURL
	case "large":
		return e.Large
	case "main":
		// "main" is sometimes a plain URL string, sometimes a size map.
		var s string
		if err := json.Unmarshal(e.Main, &s); err == nil {
			return s
		}
		return ""
	case "url":
		return e.URL
	}
	return ""
}

// dynamicImageKeys extracts the URL keys of a data-a-dynamic-image JSON
// object in document order. A map decode would scramble the order, so the
// object is walked token by token.
func dynamicImageKeys(attr string) []string {
	dec := json.NewDecoder(strings.NewReader(attr))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return keys
		}
		keys = append(keys, key)
	}
	return keys
}

func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	u, _, _ := strings.Cut(strings.TrimSpace(first), " ")
	return u
}
