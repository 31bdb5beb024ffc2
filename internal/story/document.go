package story

import "context"

// Element is a node of the document being walked. Every call is a single
// round trip to the document; Find returns nil, nil when nothing matches.
type Element interface {
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	// Text returns the rendered text of the element, untrimmed.
	Text() (string, error)
	HasClass(class string) (bool, error)
	Attribute(name string) (string, bool, error)
	// Source returns the resolved media source (currentSrc, else src).
	Source() (string, error)
	HTML() (string, error)
}

// Control is an element the walker is allowed to act on.
type Control interface {
	Element
	Disabled() (bool, error)
	RemoveAttribute(name string) error
	RemoveClass(class string) error
	// ForceClick clicks without waiting for the element to become
	// visible or interactable.
	ForceClick() error
}

// Document is the whole page. Its Element methods are scoped to the
// document root.
type Document interface {
	Element
	// Control locates an actionable element, nil, nil when absent.
	Control(selector string) (Control, error)
}

// Capturer saves an image of the spread an accepted page was read from and
// returns where it was written.
type Capturer interface {
	Capture(ctx context.Context, page Page, region Element) (string, error)
}
