package story

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Outcome reports how a best-effort operation ended. Callers log it and
// carry on; none of these end a walk.
type Outcome int

const (
	Changed Outcome = iota
	TimedOut
	Interrupted
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Changed:
		return "changed"
	case TimedOut:
		return "timed-out"
	case Interrupted:
		return "interrupted"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Waiter blocks until the spread shows something different from a previous
// snapshot, or until its timeout passes.
type Waiter struct {
	sel      Selectors
	timeout  time.Duration
	interval time.Duration
	ex       *Extractor
	f        finder
}

// NewWaiter builds a waiter polling every cfg.PollInterval for at most
// cfg.SettleTimeout.
func NewWaiter(cfg Config, log *zap.Logger) *Waiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Waiter{
		sel:      cfg.Selectors,
		timeout:  cfg.SettleTimeout,
		interval: cfg.PollInterval,
		ex:       NewExtractor(cfg.Selectors, log),
		f:        finder{log: log},
	}
}

// Await polls doc until its text, label or image differs from prev. Empty
// fields never count as a change. prev.Text is expected to be normalized.
func (w *Waiter) Await(ctx context.Context, doc Document, prev Snapshot) Outcome {
	if w.timeout <= 0 {
		return Skipped
	}
	waitCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if w.changed(doc, prev) {
			return Changed
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return Interrupted
			}
			return TimedOut
		case <-ticker.C:
		}
	}
}

func (w *Waiter) changed(doc Document, prev Snapshot) bool {
	cur, ok := w.probe(doc)
	if !ok {
		return false
	}
	return (cur.Text != "" && cur.Text != prev.Text) ||
		(cur.Label != "" && cur.Label != prev.Label) ||
		(cur.ImageURL != "" && cur.ImageURL != prev.ImageURL)
}

// probe derives the minimal snapshot the waiter compares on.
func (w *Waiter) probe(doc Document) (Snapshot, bool) {
	region, err := w.ex.Region(doc)
	if err != nil || region == nil {
		return Snapshot{}, false
	}

	textChain := append(w.f.findEach(region, w.sel.SettleText),
		func() (Element, bool) { return region, true })
	textEl, _ := firstMatch(textChain...)

	var label string
	if el, ok := firstMatch(w.f.findEach(region, w.sel.SettleLabels)...); ok {
		label = strings.TrimSpace(w.f.text(el))
	}

	var image string
	if el, ok := firstMatch(w.f.findEach(region, w.sel.SettleImages)...); ok {
		image = w.f.source(el)
	}

	return Snapshot{
		Text:     NormalizeText(w.f.text(textEl)),
		Label:    label,
		ImageURL: image,
	}, true
}
