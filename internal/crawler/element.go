package crawler

import (
	"github.com/go-rod/rod"

	"github.com/v0xg/storygrab/internal/story"
)

// liveDocument implements story.Document on a Rod page. Queries use Has and
// Elements, which return immediately instead of waiting for a match.
type liveDocument struct {
	page *rod.Page
}

func (d *liveDocument) Find(selector string) (story.Element, error) {
	has, el, err := d.page.Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &liveElement{el: el}, nil
}

func (d *liveDocument) FindAll(selector string) ([]story.Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrap(els), nil
}

func (d *liveDocument) Text() (string, error) {
	res, err := d.page.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d *liveDocument) HasClass(string) (bool, error) { return false, nil }

func (d *liveDocument) Attribute(string) (string, bool, error) { return "", false, nil }

func (d *liveDocument) Source() (string, error) { return "", nil }

func (d *liveDocument) HTML() (string, error) { return d.page.HTML() }

func (d *liveDocument) Control(selector string) (story.Control, error) {
	has, el, err := d.page.Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &liveElement{el: el}, nil
}

// liveElement implements story.Control on a Rod element.
type liveElement struct {
	el *rod.Element
}

func wrap(els rod.Elements) []story.Element {
	out := make([]story.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &liveElement{el: el})
	}
	return out
}

func (e *liveElement) Find(selector string) (story.Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &liveElement{el: el}, nil
}

func (e *liveElement) FindAll(selector string) ([]story.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrap(els), nil
}

// Text is the element's innerText.
func (e *liveElement) Text() (string, error) { return e.el.Text() }

func (e *liveElement) HasClass(class string) (bool, error) {
	res, err := e.el.Eval(`(c) => this.classList.contains(c)`, class)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *liveElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *liveElement) Source() (string, error) {
	res, err := e.el.Eval(`() => this.currentSrc || this.src || ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *liveElement) HTML() (string, error) { return e.el.HTML() }

func (e *liveElement) Disabled() (bool, error) {
	v, err := e.el.Property("disabled")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (e *liveElement) RemoveAttribute(name string) error {
	_, err := e.el.Eval(`(n) => this.removeAttribute(n)`, name)
	return err
}

func (e *liveElement) RemoveClass(class string) error {
	_, err := e.el.Eval(`(c) => this.classList.remove(c)`, class)
	return err
}

// ForceClick dispatches a DOM click, skipping Rod's visibility and
// interactability checks; the control may be covered mid-flip.
func (e *liveElement) ForceClick() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}
