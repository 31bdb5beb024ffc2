package htmldoc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/v0xg/storygrab/internal/story"
)

// Deck is a sequence of documents standing in for a live storybook. A
// forced click on the next control shows the following document; a click on
// the start-over control shows the first. Clicking next on the last
// document leaves it in place, like a book at its back cover.
type Deck struct {
	pages     []*Document
	index     int
	next      string
	startOver string
	clicks    int
}

// NewDeck builds a deck from documents, flipped by the controls in sel.
func NewDeck(sel story.Selectors, pages ...*Document) *Deck {
	d := &Deck{pages: pages, next: sel.NextControl, startOver: sel.StartOver}
	for _, p := range pages {
		p.onClick = d.click
	}
	return d
}

// NewDeckFromStrings parses each HTML string into a page of the deck.
func NewDeckFromStrings(sel story.Selectors, pages ...string) (*Deck, error) {
	docs := make([]*Document, 0, len(pages))
	for i, html := range pages {
		doc, err := ParseString(html)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}
	return NewDeck(sel, docs...), nil
}

// LoadDeck reads every *.html file of dir, in name order.
func LoadDeck(dir string, sel story.Selectors) (*Deck, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .html files in %s", dir)
	}
	sort.Strings(files)

	docs := make([]*Document, 0, len(files))
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		doc, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
		}
		docs = append(docs, doc)
	}
	return NewDeck(sel, docs...), nil
}

// Len returns the number of documents in the deck.
func (d *Deck) Len() int { return len(d.pages) }

// Index returns the position of the document currently shown.
func (d *Deck) Index() int { return d.index }

// Clicks counts the forced clicks on the next control.
func (d *Deck) Clicks() int { return d.clicks }

// Page returns the i-th document of the deck.
func (d *Deck) Page(i int) *Document { return d.pages[i] }

// Current returns the document currently shown.
func (d *Deck) Current() *Document { return d.pages[d.index] }

func (d *Deck) click(selector string) error {
	switch selector {
	case d.next:
		d.clicks++
		if d.index < len(d.pages)-1 {
			d.index++
		}
	case d.startOver:
		d.index = 0
	}
	return nil
}

func (d *Deck) Find(selector string) (story.Element, error) {
	return d.Current().Find(selector)
}

func (d *Deck) FindAll(selector string) ([]story.Element, error) {
	return d.Current().FindAll(selector)
}

func (d *Deck) Text() (string, error) { return d.Current().Text() }
func (d *Deck) HasClass(class string) (bool, error) { return false, nil }
func (d *Deck) Source() (string, error) { return "", nil }
func (d *Deck) HTML() (string, error) { return d.Current().HTML() }

func (d *Deck) Attribute(name string) (string, bool, error) {
	return "", false, nil
}

func (d *Deck) Control(selector string) (story.Control, error) {
	return d.Current().Control(selector)
}
