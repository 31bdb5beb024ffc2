package story_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/storygrab/internal/htmldoc"
	"github.com/v0xg/storygrab/internal/story"
	"go.uber.org/goleak"
)

func numbered(n int) []spec {
	specs := make([]spec, 0, n)
	for i := 1; i <= n; i++ {
		specs = append(specs, spec{
			label: fmt.Sprint(i),
			text:  fmt.Sprintf("Page %d of the story goes here.", i),
			image: imageURL(i),
		})
	}
	return specs
}

func walk(t *testing.T, cfg story.Config, doc story.Document, opts ...story.Option) (*story.Story, error) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	return story.NewWalker(cfg, opts...).Walk(context.Background(), doc)
}

func TestWalkStaticDocument(t *testing.T) {
	defer goleak.VerifyNone(t)

	deck := newDeck(t, spec{label: "1", text: "The only page there is.", image: imageURL(1)})
	var steps []story.Step
	got, err := walk(t, testConfig(), deck, story.WithObserver(func(_ story.Document, s story.Step) {
		steps = append(steps, s)
	}))
	require.NoError(t, err)

	assert.Equal(t, []story.Page{{ID: 1, Text: "The only page there is.", ImageURL: imageURL(1)}}, got.Pages)
	require.Len(t, steps, 4, "iterations 2-4 re-observe the same spread")
	assert.Equal(t, story.Accepted, steps[0].Verdict)
	for _, s := range steps[1:] {
		assert.Equal(t, story.RejectedDuplicate, s.Verdict)
	}
	assert.Equal(t, 3, deck.Clicks(), "no click after the final rejection")
}

func TestWalkFiveSpreads(t *testing.T) {
	deck := newDeck(t, numbered(5)...)
	got, err := walk(t, testConfig(), deck)
	require.NoError(t, err)

	require.Len(t, got.Pages, 5)
	for i, p := range got.Pages {
		assert.Equal(t, i+1, p.ID)
		assert.Equal(t, fmt.Sprintf("Page %d of the story goes here.", i+1), p.Text)
		assert.Equal(t, imageURL(i+1), p.ImageURL)
	}
}

func TestWalkForcesDisabledControl(t *testing.T) {
	plain := numbered(5)
	disabled := numbered(5)
	disabled[2].disabled = true

	want, err := walk(t, testConfig(), newDeck(t, plain...))
	require.NoError(t, err)

	deck := newDeck(t, disabled...)
	got, err := walk(t, testConfig(), deck)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	html, err := deck.Page(2).HTML()
	require.NoError(t, err)
	assert.NotContains(t, html, "mat-mdc-button-disabled", "the walker cleared the disabled state")
	assert.NotContains(t, html, "disabled=")
}

func TestWalkStopsAtMaxPages(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPages = 4
	deck := newDeck(t, numbered(10)...)

	var iterations int
	got, err := walk(t, cfg, deck, story.WithObserver(func(story.Document, story.Step) { iterations++ }))
	require.NoError(t, err)
	assert.Len(t, got.Pages, 4)
	assert.Equal(t, 4, iterations)
	assert.Equal(t, 3, deck.Clicks())
}

func TestWalkStopsAfterConsecutiveRejections(t *testing.T) {
	specs := []spec{
		{label: "1", text: "Opening page of the tale."},
		{label: "2", text: "Cover"},
		{label: "3", text: "Hi"},
		{label: "4", text: "Listen"},
		{label: "5", text: "Never reached by the walk."},
	}
	got, err := walk(t, testConfig(), newDeck(t, specs...))
	require.NoError(t, err)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, "Opening page of the tale.", got.Pages[0].Text)
}

func TestWalkNoContent(t *testing.T) {
	tests := []struct {
		name  string
		specs []spec
	}{
		{"only boilerplate", []spec{{text: "Cover"}, {text: "Report content"}, {text: "Hi"}}},
		{"single short page", []spec{{label: "1", text: "Too short"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := walk(t, testConfig(), newDeck(t, tt.specs...))
			assert.ErrorIs(t, err, story.ErrNoContent)
			assert.Nil(t, got)
		})
	}

	_, err := walk(t, testConfig(), parse(t, `<p>not a storybook</p>`))
	assert.ErrorIs(t, err, story.ErrNoContent, "no spread at all")
}

func TestWalkStopsWhenSpreadDisappears(t *testing.T) {
	specs := numbered(2)
	deck, err := htmldoc.NewDeckFromStrings(story.DefaultSelectors(),
		spreadHTML(specs[0]),
		spreadHTML(specs[1]),
		`<html><body><p>The end</p><button aria-label="Next page">next</button></body></html>`,
	)
	require.NoError(t, err)

	got, err := walk(t, testConfig(), deck)
	require.NoError(t, err)
	assert.Len(t, got.Pages, 2)
	assert.Equal(t, 2, deck.Clicks())
}

type recordingCapturer struct {
	fail  map[int]bool
	calls []int
}

func (c *recordingCapturer) Capture(_ context.Context, p story.Page, region story.Element) (string, error) {
	c.calls = append(c.calls, p.ID)
	if region == nil {
		return "", errors.New("no region")
	}
	if c.fail[p.ID] {
		return "", errors.New("screenshot failed")
	}
	return fmt.Sprintf("images/page_%d.png", p.ID), nil
}

func TestWalkCapturesAcceptedPages(t *testing.T) {
	capt := &recordingCapturer{fail: map[int]bool{2: true}}
	got, err := walk(t, testConfig(), newDeck(t, numbered(3)...), story.WithCapturer(capt))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, capt.calls, "only accepted pages are captured")
	require.Len(t, got.Pages, 3)
	assert.Equal(t, "images/page_1.png", got.Pages[0].Image)
	assert.Empty(t, got.Pages[1].Image, "a failed capture keeps the page")
	assert.Equal(t, "images/page_3.png", got.Pages[2].Image)
}

func TestWalkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := story.NewWalker(testConfig()).Walk(ctx, newDeck(t, numbered(3)...))
	assert.ErrorIs(t, err, context.Canceled)
}

// TestWalkInvariants walks randomly generated books with repeated spreads,
// reused labels and boilerplate, and checks the output guarantees.
func TestWalkInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	texts := []string{
		"The moon rose over the hill.",
		"A small owl woke up hungry.",
		"It flew across the river.",
		"Cover",
		"Hi",
		"The owl found a quiet tree.",
	}
	for round := 0; round < 20; round++ {
		n := 3 + rng.Intn(12)
		specs := make([]spec, 0, n)
		for i := 0; i < n; i++ {
			s := spec{text: texts[rng.Intn(len(texts))]}
			if rng.Intn(3) > 0 {
				s.label = fmt.Sprint(1 + rng.Intn(n))
			}
			if rng.Intn(2) == 0 {
				s.image = imageURL(rng.Intn(4))
			}
			specs = append(specs, s)
		}

		cfg := testConfig()
		cfg.MaxPages = 1 + rng.Intn(2*n)

		var verdicts []story.Verdict
		var accepted []story.Step
		got, err := walk(t, cfg, newDeck(t, specs...), story.WithObserver(func(_ story.Document, s story.Step) {
			verdicts = append(verdicts, s.Verdict)
			if s.Verdict == story.Accepted {
				accepted = append(accepted, s)
			}
		}))
		assert.LessOrEqual(t, len(verdicts), cfg.MaxPages)
		run := 0
		for i, v := range verdicts {
			if v == story.Accepted {
				run = 0
				continue
			}
			run++
			if run == story.MaxConsecutiveRejections {
				assert.Equal(t, len(verdicts)-1, i, "walk continued past %d rejections", run)
			}
		}
		if errors.Is(err, story.ErrNoContent) {
			assert.Empty(t, accepted)
			continue
		}
		require.NoError(t, err)

		keys := map[string]bool{}
		labels := map[string]bool{}
		for i, p := range got.Pages {
			assert.Equal(t, i+1, p.ID, "ids are 1..N in order")

			snap := accepted[i].Snapshot
			key := story.Key(snap.Label, i, p.Text, p.ImageURL)
			assert.False(t, keys[key], "duplicate key %q", key)
			keys[key] = true
			if snap.Label != "" {
				assert.False(t, labels[snap.Label], "label %q accepted twice", snap.Label)
				labels[snap.Label] = true
			}
		}
	}
}
