package story

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const noImageKey = "no-image"

// NormalizeText collapses every whitespace run to a single space and trims
// the result.
func NormalizeText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Policy decides whether extracted text counts as story content.
type Policy struct {
	minLength int
	blocked   map[string]struct{}
}

// NewPolicy builds a policy from cfg. The empty string is always blocked.
func NewPolicy(cfg Config) *Policy {
	p := &Policy{
		minLength: cfg.MinTextLength,
		blocked:   map[string]struct{}{"": {}},
	}
	for _, b := range cfg.Blocklist {
		p.blocked[strings.ToLower(NormalizeText(b))] = struct{}{}
	}
	return p
}

// Valid reports whether normalized text is long enough and not boilerplate.
func (p *Policy) Valid(text string) bool {
	if utf8.RuneCountInString(text) < p.minLength {
		return false
	}
	_, blocked := p.blocked[strings.ToLower(text)]
	return !blocked
}

// Key is the dedup key of a snapshot. Unlabelled snapshots are keyed by the
// number of pages accepted so far.
func Key(label string, accepted int, text, imageURL string) string {
	if label == "" {
		label = strconv.Itoa(accepted)
	}
	if imageURL == "" {
		imageURL = noImageKey
	}
	return label + "|" + text + "|" + imageURL
}

// Verdict is the outcome of offering a snapshot to the history.
type Verdict int

const (
	Accepted Verdict = iota
	RejectedInvalid
	RejectedDuplicate
	RejectedLabel
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedInvalid:
		return "invalid"
	case RejectedDuplicate:
		return "duplicate"
	case RejectedLabel:
		return "label-seen"
	default:
		return "verdict(" + strconv.Itoa(int(v)) + ")"
	}
}

// History is the state of a single walk.
type History struct {
	policy     *Policy
	pages      []Page
	keys       map[string]struct{}
	labels     map[string]struct{}
	iterations int
	rejections int
}

// NewHistory starts an empty walk state.
func NewHistory(p *Policy) *History {
	return &History{
		policy: p,
		keys:   make(map[string]struct{}),
		labels: make(map[string]struct{}),
	}
}

// Tick records the start of an iteration and returns its 1-based number.
func (h *History) Tick() int {
	h.iterations++
	return h.iterations
}

// Offer applies the acceptance rule to snap. On acceptance the new page is
// appended and returned.
func (h *History) Offer(snap Snapshot) (Page, Verdict) {
	text := NormalizeText(snap.Text)
	key := Key(snap.Label, len(h.pages), text, snap.ImageURL)

	verdict := Accepted
	switch {
	case !h.policy.Valid(text):
		verdict = RejectedInvalid
	case h.seenKey(key):
		verdict = RejectedDuplicate
	case snap.Label != "" && h.seenLabel(snap.Label):
		verdict = RejectedLabel
	}
	if verdict != Accepted {
		h.rejections++
		return Page{}, verdict
	}

	page := Page{ID: len(h.pages) + 1, Text: text, ImageURL: snap.ImageURL}
	h.pages = append(h.pages, page)
	h.keys[key] = struct{}{}
	if snap.Label != "" {
		h.labels[snap.Label] = struct{}{}
	}
	h.rejections = 0
	return page, Accepted
}

// Reject counts an iteration that produced no snapshot to offer.
func (h *History) Reject() {
	h.rejections++
}

// SetImage records the captured image path of an accepted page.
func (h *History) SetImage(id int, path string) {
	if id < 1 || id > len(h.pages) {
		return
	}
	h.pages[id-1].Image = path
}

// Exhausted reports whether the walk has hit one of its bounds.
func (h *History) Exhausted(maxPages int) bool {
	return h.rejections >= MaxConsecutiveRejections || h.iterations >= maxPages
}

func (h *History) Rejections() int { return h.rejections }
func (h *History) Iterations() int { return h.iterations }

// Pages returns a copy of the accepted pages in order.
func (h *History) Pages() []Page {
	return append([]Page(nil), h.pages...)
}

func (h *History) seenKey(key string) bool {
	_, ok := h.keys[key]
	return ok
}

func (h *History) seenLabel(label string) bool {
	_, ok := h.labels[label]
	return ok
}
