package story

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Extractor reads a Snapshot off the active spread.
type Extractor struct {
	sel   Selectors
	cover *regexp.Regexp
	f     finder
}

// NewExtractor builds an extractor for sel. The cover pattern must compile;
// Selectors.Validate checks that.
func NewExtractor(sel Selectors, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		sel:   sel,
		cover: regexp.MustCompile(sel.CoverPattern),
		f:     finder{log: log},
	}
}

// Extract returns the snapshot of the active spread, or nil when the
// document has no spread at all.
func (e *Extractor) Extract(doc Document) (*Snapshot, error) {
	region, err := e.Region(doc)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, nil
	}
	label := e.Label(doc, region)
	return &Snapshot{
		Text:     e.Text(region),
		Label:    label,
		ImageURL: e.Image(doc, region, label),
		Region:   region,
	}, nil
}

// Region picks the visible primary spread: the first candidate that is
// neither secondary nor hidden, else the first non-secondary one, else the
// first of any kind.
func (e *Extractor) Region(doc Document) (Element, error) {
	candidates, err := doc.FindAll(e.sel.Region)
	if err != nil {
		return nil, fmt.Errorf("list spreads: %w", err)
	}
	secondary := func(el Element) bool { return e.f.hasClass(el, e.sel.SecondaryClass) }
	hidden := func(el Element) bool { return e.f.hasClass(el, e.sel.HiddenClass) }

	region, _ := firstMatch(
		func() (Element, bool) {
			for _, c := range candidates {
				if !secondary(c) && !hidden(c) {
					return c, true
				}
			}
			return nil, false
		},
		func() (Element, bool) {
			for _, c := range candidates {
				if !secondary(c) {
					return c, true
				}
			}
			return nil, false
		},
		func() (Element, bool) {
			if len(candidates) == 0 {
				return nil, false
			}
			return candidates[0], true
		},
	)
	return region, nil
}

// Label returns the trimmed page label, or "" when none is shown.
func (e *Extractor) Label(doc Document, region Element) string {
	chain := append(
		[]lookup[Element]{e.f.find(doc, e.sel.PageIndicator)},
		e.f.findEach(region, e.sel.RegionLabels)...,
	)
	el, ok := firstMatch(chain...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(e.f.text(el))
}

// Text collects the story text of the spread. Content blocks are read in
// selector order, deduplicated, and joined by blank lines; when none match,
// the whole text of the text root is used.
func (e *Extractor) Text(region Element) string {
	root, hasRoot := firstMatch(e.f.findEach(region, e.sel.TextRoots)...)
	scope := region
	if hasRoot {
		scope = root
	}

	var chunks []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		v := strings.TrimSpace(raw)
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		chunks = append(chunks, v)
	}

	for _, selector := range e.sel.TextContent {
		nodes, err := scope.FindAll(selector)
		if err != nil {
			e.f.log.Debug("query failed", zap.String("selector", selector), zap.Error(err))
			continue
		}
		for _, n := range nodes {
			add(e.f.text(n))
		}
	}

	if len(chunks) == 0 {
		fallback, _ := firstMatch(
			func() (Element, bool) { return root, hasRoot },
			e.f.find(region, e.sel.TextFallback),
			func() (Element, bool) { return region, true },
		)
		add(e.f.text(fallback))
	}
	return strings.Join(chunks, "\n\n")
}

// Image returns the resolved source of the page illustration, or "".
// Cover-like pages (label matches the cover pattern or is empty) look for
// the cover image first.
func (e *Extractor) Image(doc Document, region Element, label string) string {
	var chain []lookup[Element]
	if label == "" || e.cover.MatchString(label) {
		chain = append(chain, e.f.find(doc, e.sel.CoverImage))
	}
	chain = append(chain, e.f.findEach(region, e.sel.Images)...)

	for _, l := range chain {
		el, ok := l()
		if !ok {
			continue
		}
		if src := e.f.source(el); src != "" {
			return src
		}
	}
	return ""
}
