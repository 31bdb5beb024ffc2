package narrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/v0xg/storygrab/internal/story"
)

// ErrEmptyStory is returned for a story without pages.
var ErrEmptyStory = errors.New("story has no pages")

// Options controls how pages are scheduled and where audio is written
type Options struct {
	OutDir      string
	Concurrency int     // parallel requests, at least 1
	Rate        float64 // requests per second, 0 for unlimited
	Logger      *zap.Logger
}

// Track is one narrated page.
type Track struct {
	Page int
	Path string
}

// Narrate synthesizes every page with text and writes
// <OutDir>/page_<id>.<format>. Pages with blank text are skipped. Tracks are
// returned in page order; the first synthesis failure cancels the rest.
func Narrate(ctx context.Context, s *story.Story, synth Synthesizer, opts Options) ([]Track, error) {
	if s == nil || len(s.Pages) == 0 {
		return nil, ErrEmptyStory
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	tracks := make([]Track, len(s.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, page := range s.Pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			opts.Logger.Debug("skipping page without text", zap.Int("page", page.ID))
			continue
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			audio, err := synth.Synthesize(gctx, text)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.ID, err)
			}

			path := filepath.Join(opts.OutDir, fmt.Sprintf("page_%d.%s", page.ID, synth.Format()))
			if err := os.WriteFile(path, audio, 0o644); err != nil {
				return fmt.Errorf("page %d: %w", page.ID, err)
			}
			opts.Logger.Info("narrated page", zap.Int("page", page.ID), zap.String("path", path))
			tracks[i] = Track{Page: page.ID, Path: path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := tracks[:0]
	for _, t := range tracks {
		if t.Path != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
