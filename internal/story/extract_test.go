package story_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/storygrab/internal/story"
)

func newExtractor() *story.Extractor {
	return story.NewExtractor(story.DefaultSelectors(), nil)
}

func TestExtractRegion(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string // id of the expected spread, "" for none
	}{
		{
			name: "skips secondary and hidden spreads",
			html: `<div class="spread-container bottom-pages" id="a"></div>
				<div class="spread-container hide" id="b"></div>
				<div class="spread-container" id="c"></div>`,
			want: "c",
		},
		{
			name: "falls back to a hidden primary spread",
			html: `<div class="spread-container bottom-pages" id="a"></div>
				<div class="spread-container hide" id="b"></div>`,
			want: "b",
		},
		{
			name: "falls back to any spread",
			html: `<div class="spread-container bottom-pages" id="a"></div>`,
			want: "a",
		},
		{
			name: "no spread",
			html: `<div class="page"></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, err := newExtractor().Region(parse(t, tt.html))
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, region)
				return
			}
			require.NotNil(t, region)
			id, ok, err := region.Attribute("id")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestExtractReturnsNilWithoutSpread(t *testing.T) {
	snap, err := newExtractor().Extract(parse(t, `<p>nothing here</p>`))
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestExtractLabel(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "page indicator wins",
			html: `<span data-test-id="jump-to-page-button-page-label"> Page 4 </span>
				<div class="spread-container"><div class="footer-page-number">8</div></div>`,
			want: "Page 4",
		},
		{
			name: "footer inside the spread",
			html: `<div class="spread-container"><div class="page-number">9</div><div class="footer-page-number"> 8 </div></div>`,
			want: "8",
		},
		{
			name: "generic page number",
			html: `<div class="spread-container"><div class="page-number">9</div></div>`,
			want: "9",
		},
		{
			name: "footers outside the spread are ignored",
			html: `<div class="footer-page-number">1</div><div class="spread-container"></div>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.html)
			ex := newExtractor()
			region, err := ex.Region(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ex.Label(doc, region))
		})
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "content blocks in selector order, deduplicated",
			html: `<div class="spread-container"><div class="page-content main right">
				<div class="page-title">The Title</div>
				<div class="story-text"> First paragraph. </div>
				<div class="story-text">First paragraph.</div>
				<div class="cover-title">The Title</div>
				<div class="story-text">Second paragraph.</div>
			</div></div>`,
			want: "First paragraph.\n\nSecond paragraph.\n\nThe Title",
		},
		{
			name: "underneath and back pages are not text roots",
			html: `<div class="spread-container">
				<div class="page-content right underneath"><div class="story-text">old page</div></div>
				<div class="page-content right back"><div class="story-text">back page</div></div>
				<div class="page-content right"><div class="story-text">current page</div></div>
			</div>`,
			want: "current page",
		},
		{
			name: "whole root text when no content block matches",
			html: `<div class="spread-container"><div class="page-content main right"> Plain text page </div></div>`,
			want: "Plain text page",
		},
		{
			name: "spread text as last resort",
			html: `<div class="spread-container"><p> Loose text </p></div>`,
			want: "Loose text",
		},
		{
			name: "empty spread",
			html: `<div class="spread-container"></div>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.html)
			ex := newExtractor()
			region, err := ex.Region(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ex.Text(region))
		})
	}
}

func TestExtractImage(t *testing.T) {
	const (
		cover = "https://lh3.googleusercontent.com/cover"
		left  = "https://lh3.googleusercontent.com/left"
		right = "https://lh3.googleusercontent.com/right"
	)
	html := `<div class="cover"><img src="` + cover + `"></div>
		<div class="spread-container">
			<div class="page-content right"><img src="` + right + `"></div>
			<div class="page-content left"><img src="` + left + `"><img src="https://example.com/x.png"></div>
		</div>`

	tests := []struct {
		name  string
		html  string
		label string
		want  string
	}{
		{"cover label uses the cover image", html, "Cover", cover},
		{"empty label uses the cover image", html, "", cover},
		{"numbered page uses the left image", html, "3", left},
		{
			name:  "right image when no left image",
			html:  `<div class="spread-container"><div class="page-content right"><img src="` + right + `"></div></div>`,
			label: "2",
			want:  right,
		},
		{
			name:  "foreign hosts are ignored",
			html:  `<div class="spread-container"><img src="https://example.com/a.png"></div>`,
			label: "2",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.html)
			ex := newExtractor()
			region, err := ex.Region(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ex.Image(doc, region, tt.label))
		})
	}
}

func TestExtractSnapshot(t *testing.T) {
	doc := parse(t, spreadHTML(spec{label: "5", text: "A bear found honey.", image: imageURL(5)}))
	snap, err := newExtractor().Extract(doc)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "5", snap.Label)
	assert.Equal(t, "A bear found honey.", snap.Text)
	assert.Equal(t, imageURL(5), snap.ImageURL)
	assert.NotNil(t, snap.Region)
}
