package story

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoContent is returned when a walk ends without accepting any page.
var ErrNoContent = errors.New("no story content captured; the page structure may have changed")

// Step describes one finished iteration of a walk.
type Step struct {
	Iteration int
	Snapshot  *Snapshot // nil when extraction failed
	Verdict   Verdict
	Page      Page // set when Verdict is Accepted
}

// Observer is called after every iteration, before the walker advances.
type Observer func(doc Document, step Step)

// Walker drives a document from spread to spread and collects pages.
type Walker struct {
	cfg      Config
	policy   *Policy
	ex       *Extractor
	waiter   *Waiter
	nav      *Navigator
	capturer Capturer
	observe  Observer
	log      *zap.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the walker's logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Walker) { w.log = log }
}

// WithCapturer enables image capture for every accepted page.
func WithCapturer(c Capturer) Option {
	return func(w *Walker) { w.capturer = c }
}

// WithObserver registers a per-iteration callback.
func WithObserver(o Observer) Option {
	return func(w *Walker) { w.observe = o }
}

// NewWalker returns a walker for cfg. cfg must pass Validate.
func NewWalker(cfg Config, opts ...Option) *Walker {
	w := &Walker{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	w.policy = NewPolicy(cfg)
	w.ex = NewExtractor(cfg.Selectors, w.log)
	w.waiter = NewWaiter(cfg, w.log)
	w.nav = NewNavigator(cfg, w.log)
	return w
}

// Walk reads the document spread by spread until the story ends and returns
// the accepted pages in order. Only ErrNoContent and context cancellation
// end a walk with an error.
func (w *Walker) Walk(ctx context.Context, doc Document) (*Story, error) {
	log := w.log
	log.Debug("rewind", zap.Stringer("outcome", w.nav.Rewind(ctx, doc)))
	log.Debug("await next control", zap.Stringer("outcome", w.nav.AwaitControl(ctx, doc)))
	w.logInitialRegion(doc)

	h := NewHistory(w.policy)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("walk interrupted after %d pages: %w", len(h.pages), err)
		}
		iter := h.Tick()

		snap, err := w.ex.Extract(doc)
		if err != nil {
			log.Warn("extract failed", zap.Int("iteration", iter), zap.Error(err))
			h.Reject()
			w.notify(doc, Step{Iteration: iter, Verdict: RejectedInvalid})
		} else if snap == nil {
			log.Debug("no spread on page, stopping", zap.Int("iteration", iter))
			break
		} else {
			page, verdict := h.Offer(*snap)
			log.Debug("snapshot",
				zap.Int("iteration", iter),
				zap.String("label", snap.Label),
				zap.String("image", truncate(snap.ImageURL, 60)),
				zap.String("text", NormalizeText(snap.Text)),
				zap.Stringer("verdict", verdict),
				zap.Int("rejections", h.Rejections()),
			)
			if verdict == Accepted {
				page = w.capture(ctx, h, page, snap.Region)
			}
			w.notify(doc, Step{Iteration: iter, Snapshot: snap, Verdict: verdict, Page: page})
		}

		if h.Exhausted(w.cfg.MaxPages) {
			log.Debug("walk bounds reached",
				zap.Int("iterations", h.Iterations()),
				zap.Int("rejections", h.Rejections()))
			break
		}

		w.advance(doc)

		var prev Snapshot
		if snap != nil {
			prev = Snapshot{Text: NormalizeText(snap.Text), Label: snap.Label, ImageURL: snap.ImageURL}
		}
		log.Debug("settle", zap.Stringer("outcome", w.waiter.Await(ctx, doc, prev)))
		_ = sleep(ctx, w.cfg.ClickDelay)
	}

	pages := h.Pages()
	if len(pages) == 0 {
		return nil, ErrNoContent
	}
	return &Story{Pages: pages}, nil
}

// advance moves to the next spread, forcing the control open first when it
// reports disabled. Failures are logged only; the settle wait and the
// rejection counter take care of a click that did nothing.
func (w *Walker) advance(doc Document) {
	ctrl, err := w.nav.Locate(doc)
	if err != nil {
		w.log.Debug("next control lookup failed", zap.Error(err))
	}
	if w.nav.Blocked(ctrl) {
		w.log.Debug("next control blocked, forcing")
		if err := w.nav.Unblock(ctrl); err != nil {
			w.log.Debug("unblock failed", zap.Error(err))
		}
	}
	if err := w.nav.Advance(ctrl); err != nil {
		w.log.Debug("advance failed", zap.Error(err))
	}
}

func (w *Walker) capture(ctx context.Context, h *History, page Page, region Element) Page {
	if w.capturer == nil {
		return page
	}
	path, err := w.capturer.Capture(ctx, page, region)
	if err != nil {
		w.log.Warn("capture failed", zap.Int("page", page.ID), zap.Error(err))
		return page
	}
	h.SetImage(page.ID, path)
	page.Image = path
	return page
}

func (w *Walker) notify(doc Document, step Step) {
	if w.observe != nil {
		w.observe(doc, step)
	}
}

func (w *Walker) logInitialRegion(doc Document) {
	if ce := w.log.Check(zap.DebugLevel, "initial spread"); ce != nil {
		region, err := w.ex.Region(doc)
		if err != nil || region == nil {
			ce.Write(zap.Bool("found", false))
			return
		}
		html, _ := region.HTML()
		ce.Write(zap.Bool("found", true), zap.String("html", truncate(html, 2000)))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
