package gallery

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFromThumbnailRailDynamicImage(t *testing.T) {
	html := `<html><body><div id="altImages"><ul class="a-unordered-list">
		<li><img class="imageThumbnail" data-a-dynamic-image=
		'{"https://m.media-amazon.com/images/I/b2._SX342_.jpg":[342,342],"https://m.media-amazon.com/images/I/a1._SX466_.jpg":[466,466]}'></li>
	</ul></div></body></html>`

	set := FromThumbnailRail(docFrom(t, html))

	// Keys surface in the order the JSON object declares them.
	assert.Equal(t, []string{
		"https://m.media-amazon.com/images/I/b2.jpg",
		"https://m.media-amazon.com/images/I/a1.jpg",
	}, set.URLs())
}

func TestFromThumbnailRailSourceAttributes(t *testing.T) {
	html := `<html><body><div id="imageBlockThumbs">
		<img src="https://m.media-amazon.com/images/I/a1._US40_.jpg"
			data-old-hires="https://m.media-amazon.com/images/I/a1-hires.jpg">
		<img data-src="https://m.media-amazon.com/images/I/b2._US40_.jpg">
		<img srcset="https://m.media-amazon.com/images/I/c3._SX342_.jpg 1x, https://m.media-amazon.com/images/I/c3._SX684_.jpg 2x">
		<img src="https://m.media-amazon.com/images/I/nav-sprite.png">
	</div></body></html>`

	set := FromThumbnailRail(docFrom(t, html))

	assert.Equal(t, []string{
		"https://m.media-amazon.com/images/I/a1.jpg",
		"https://m.media-amazon.com/images/I/a1-hires.jpg",
		"https://m.media-amazon.com/images/I/b2.jpg",
		"https://m.media-amazon.com/images/I/c3.jpg",
	}, set.URLs())
}

func TestFromThumbnailRailEmptyPage(t *testing.T) {
	set := FromThumbnailRail(docFrom(t, `<html><body><p>no gallery here</p></body></html>`))
	assert.True(t, set.Empty())
}

func TestFromImageBlockScriptsColorImages(t *testing.T) {
	html := `<html><head><script>
	P.register("ImageBlockATF", {
		"colorImages": { "initial": [
			{ "hiRes": "https://m.media-amazon.com/images/I/a1._SL1500_.jpg",
			  "large": "https://m.media-amazon.com/images/I/a1._SL500_.jpg" },
			{ "hiRes": null,
			  "large": "https://m.media-amazon.com/images/I/b2._SL500_.jpg",
			  "main": {"https://m.media-amazon.com/images/I/b2._SL300_.jpg": [300, 300]} },
			{ "mediaType": "VIDEO",
			  "hiRes": "https://m.media-amazon.com/images/I/videothumb._SL1500_.jpg" },
			{ "main": "https://m.media-amazon.com/images/I/c3._SL400_.jpg",
			  "variants": [
				{ "hiRes": "https://m.media-amazon.com/images/I/d4._SL1500_.jpg" }
			  ] }
		]}
	});
	</script></head><body></body></html>`

	set := FromImageBlockScripts(docFrom(t, html))

	assert.Equal(t, []string{
		// hiRes outranks large.
		"https://m.media-amazon.com/images/I/a1.jpg",
		// null hiRes falls through to large; the "main" size map is not a URL.
		"https://m.media-amazon.com/images/I/b2.jpg",
		// the VIDEO entry is skipped entirely; then "main" as a plain string.
		"https://m.media-amazon.com/images/I/c3.jpg",
		// nested variants are walked.
		"https://m.media-amazon.com/images/I/d4.jpg",
	}, set.URLs())
}

func TestFromImageBlockScriptsGalleryData(t *testing.T) {
	html := `<html><body><script>
	var obj = { "imageGalleryData" : [
		{"mainUrl": "https://m.media-amazon.com/images/I/a1._SL500_.jpg"},
		{"type": "videoBlockIngress", "url": "https://m.media-amazon.com/images/I/ignored.jpg"},
		{"url": "https://m.media-amazon.com/images/I/b2._SL500_.jpg"}
	] };
	</script></body></html>`

	set := FromImageBlockScripts(docFrom(t, html))

	assert.Equal(t, []string{
		"https://m.media-amazon.com/images/I/a1.jpg",
		"https://m.media-amazon.com/images/I/b2.jpg",
	}, set.URLs())
}

func TestFromImageBlockScriptsMalformedJSON(t *testing.T) {
	html := `<html><body><script>
	P.register("ImageBlockATF", { "colorImages": { "initial": [ { broken );
	</script></body></html>`

	set := FromImageBlockScripts(docFrom(t, html))
	assert.True(t, set.Empty())
}

func TestDynamicImageKeys(t *testing.T) {
	tests := []struct {
		name     string
		attr     string
		expected []string
	}{
		{
			name:     "document order preserved",
			attr:     `{"u3":[1,1],"u1":[2,2],"u2":[3,3]}`,
			expected: []string{"u3", "u1", "u2"},
		},
		{
			name:     "not an object",
			attr:     `["u1","u2"]`,
			expected: nil,
		},
		{
			name:     "garbage",
			attr:     `{{{`,
			expected: nil,
		},
		{
			name:     "empty object",
			attr:     `{}`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dynamicImageKeys(tt.attr))
		})
	}
}

func TestFirstSrcsetURL(t *testing.T) {
	assert.Equal(t, "https://x/images/I/a.jpg",
		firstSrcsetURL("https://x/images/I/a.jpg 1x, https://x/images/I/b.jpg 2x"))
	assert.Equal(t, "https://x/images/I/a.jpg", firstSrcsetURL(" https://x/images/I/a.jpg "))
	assert.Equal(t, "", firstSrcsetURL(""))
}
