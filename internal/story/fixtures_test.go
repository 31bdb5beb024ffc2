package story_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/v0xg/storygrab/internal/htmldoc"
	"github.com/v0xg/storygrab/internal/story"
)

// spec describes one spread of a fixture book.
type spec struct {
	label    string
	text     string
	image    string
	disabled bool
}

func imageURL(n int) string {
	return fmt.Sprintf("https://lh3.googleusercontent.com/page-%d", n)
}

// spreadHTML renders a storybook page the way the share page lays it out,
// including a hidden secondary spread that must never be read.
func spreadHTML(s spec) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	b.WriteString(`<div class="spread-container bottom-pages"><div class="page-content right">` +
		`<div class="story-text">Secondary spread that should be ignored</div></div></div>`)
	b.WriteString(`<div class="spread-container">`)
	if s.image != "" {
		fmt.Fprintf(&b, `<div class="page-content main left"><img src="%s"></div>`, s.image)
	}
	b.WriteString(`<div class="page-content main right">`)
	fmt.Fprintf(&b, `<div class="story-text">%s</div>`, s.text)
	if s.label != "" {
		fmt.Fprintf(&b, `<div class="footer-page-number">%s</div>`, s.label)
	}
	b.WriteString(`</div></div>`)
	if s.disabled {
		b.WriteString(`<button aria-label="Next page" disabled class="mat-mdc-button-disabled">next</button>`)
	} else {
		b.WriteString(`<button aria-label="Next page" class="mat-mdc-button">next</button>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func newDeck(t *testing.T, specs ...spec) *htmldoc.Deck {
	t.Helper()
	pages := make([]string, 0, len(specs))
	for _, s := range specs {
		pages = append(pages, spreadHTML(s))
	}
	deck, err := htmldoc.NewDeckFromStrings(story.DefaultSelectors(), pages...)
	require.NoError(t, err)
	return deck
}

func parse(t *testing.T, html string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(html)
	require.NoError(t, err)
	return doc
}

// testConfig keeps every wait short so walks over static fixtures finish
// quickly.
func testConfig() story.Config {
	cfg := story.DefaultConfig()
	cfg.SettleTimeout = 20 * time.Millisecond
	cfg.PollInterval = time.Millisecond
	cfg.ClickDelay = 0
	cfg.RewindDelay = 0
	cfg.ControlTimeout = 20 * time.Millisecond
	return cfg
}
