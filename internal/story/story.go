// Package story walks a page-flip storybook one spread at a time and turns
// what it sees into an ordered, deduplicated list of pages.
package story

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Snapshot is what the extractor saw on the active spread during one step.
type Snapshot struct {
	Text     string
	Label    string
	ImageURL string

	// Region is the spread the snapshot was read from.
	Region Element
}

// Page is an accepted unit of story content
type Page struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
	Image    string `json:"image,omitempty"` // path of a captured image, if any
}

// Story is the document written at the end of a successful walk
type Story struct {
	Pages []Page `json:"pages"`
}

// Encode writes the story to w as indented JSON.
func Encode(w io.Writer, s *Story) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode story: %w", err)
	}
	return nil
}

// WriteFile writes the story as indented JSON, creating parent directories.
func WriteFile(path string, s *Story) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a story previously written by WriteFile.
func ReadFile(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Story
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}
