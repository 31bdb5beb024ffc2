package crawler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/v0xg/storygrab/internal/story"
)

// PageInfo is a structural summary of the loaded story page, used to tell
// a wrong URL or a logged-out session apart from a selector mismatch.
type PageInfo struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Spreads       int      `json:"spreads"`
	HiddenSpreads int      `json:"hiddenSpreads"`
	StoryTexts    int      `json:"storyTexts"`
	Samples       []string `json:"samples,omitempty"`
	Storybook     bool     `json:"storybook"`
	ShadowRoot    bool     `json:"shadowRoot"`
}

// Inspect collects a PageInfo from the live page using the spread and story
// text selectors of sel.
func (b *Browser) Inspect(ctx context.Context, sel story.Selectors) (*PageInfo, error) {
	text := ".story-text"
	if len(sel.TextContent) > 0 {
		text = sel.TextContent[0]
	}
	res, err := b.page.Context(ctx).Eval(`(spread, hidden, text) => {
		const spreads = Array.from(document.querySelectorAll(spread));
		const texts = Array.from(document.querySelectorAll(text));
		const book = document.querySelector('storybook');
		return {
			url: window.location.href,
			title: document.title,
			spreads: spreads.length,
			hiddenSpreads: spreads.filter(s => s.classList.contains(hidden)).length,
			storyTexts: texts.length,
			samples: texts.slice(0, 3).map(t => (t.innerText || '').trim().slice(0, 80)),
			storybook: !!book,
			shadowRoot: !!(book && book.shadowRoot),
		};
	}`, sel.Region, sel.HiddenClass, text)
	if err != nil {
		return nil, fmt.Errorf("inspect page: %w", err)
	}

	var info PageInfo
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &info); err != nil {
		return nil, fmt.Errorf("decode page info: %w", err)
	}
	return &info, nil
}
