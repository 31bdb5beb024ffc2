// Package htmldoc serves static HTML to the story walker: single parsed
// documents and decks of documents that flip when their next control is
// clicked. It backs offline replays of dumped walks and the walker's tests.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/storygrab/internal/story"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
	// onClick, when set, is called for every forced click with the
	// selector the control was located by.
	onClick func(selector string) error
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

func (d *Document) root() *element { return &element{sel: d.doc.Selection} }

func (d *Document) Find(selector string) (story.Element, error) {
	return d.root().Find(selector)
}

func (d *Document) FindAll(selector string) ([]story.Element, error) {
	return d.root().FindAll(selector)
}

func (d *Document) Text() (string, error) { return d.root().Text() }
func (d *Document) HasClass(class string) (bool, error) { return false, nil }
func (d *Document) Source() (string, error) { return "", nil }

func (d *Document) Attribute(name string) (string, bool, error) {
	return "", false, nil
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.Selection)
}

// Control returns the first element matching selector as a control.
func (d *Document) Control(selector string) (story.Control, error) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, nil
	}
	return &control{element: element{sel: sel}, selector: selector, doc: d}, nil
}

type element struct {
	sel *goquery.Selection
}

func (e *element) Find(selector string) (story.Element, error) {
	sel := e.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil, nil
	}
	return &element{sel: sel}, nil
}

func (e *element) FindAll(selector string) ([]story.Element, error) {
	var out []story.Element
	e.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s})
	})
	return out, nil
}

func (e *element) Text() (string, error) { return e.sel.Text(), nil }

func (e *element) HasClass(class string) (bool, error) { return e.sel.HasClass(class), nil }

func (e *element) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// Source has no layout engine to resolve srcset against, so it is the
// src attribute.
func (e *element) Source() (string, error) {
	return e.sel.AttrOr("src", ""), nil
}

func (e *element) HTML() (string, error) { return goquery.OuterHtml(e.sel) }

type control struct {
	element
	selector string
	doc      *Document
}

func (c *control) Disabled() (bool, error) {
	_, ok := c.sel.Attr("disabled")
	return ok, nil
}

func (c *control) RemoveAttribute(name string) error {
	c.sel.RemoveAttr(name)
	return nil
}

func (c *control) RemoveClass(class string) error {
	c.sel.RemoveClass(class)
	return nil
}

func (c *control) ForceClick() error {
	if c.doc.onClick == nil {
		return nil
	}
	return c.doc.onClick(c.selector)
}
