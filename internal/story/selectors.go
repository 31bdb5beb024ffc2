package story

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Selectors describes where things live in the storybook UI. The defaults
// match the Gemini storybook share page.
type Selectors struct {
	// Spread candidates and the classes that disqualify them
	Region         string `yaml:"region"`
	SecondaryClass string `yaml:"secondary_class"`
	HiddenClass    string `yaml:"hidden_class"`

	// PageIndicator is searched in the whole document, RegionLabels only
	// inside the spread.
	PageIndicator string   `yaml:"page_indicator"`
	RegionLabels  []string `yaml:"region_labels"`

	TextRoots    []string `yaml:"text_roots"`
	TextContent  []string `yaml:"text_content"`
	TextFallback string   `yaml:"text_fallback"`

	CoverPattern string   `yaml:"cover_pattern"`
	CoverImage   string   `yaml:"cover_image"`
	Images       []string `yaml:"images"`

	// Used by the change waiter
	SettleText   []string `yaml:"settle_text"`
	SettleLabels []string `yaml:"settle_labels"`
	SettleImages []string `yaml:"settle_images"`

	NextControl   string `yaml:"next_control"`
	DisabledClass string `yaml:"disabled_class"`
	StartOver     string `yaml:"start_over"`
}

const hostedImage = "img[src*='googleusercontent.com']"

// DefaultSelectors returns the built-in selector profile.
func DefaultSelectors() Selectors {
	return Selectors{
		Region:         ".spread-container",
		SecondaryClass: "bottom-pages",
		HiddenClass:    "hide",

		PageIndicator: "[data-test-id='jump-to-page-button-page-label']",
		RegionLabels:  []string{".footer-page-number", ".page-number"},

		TextRoots: []string{
			".page-content.main.right",
			".page-content.right:not(.underneath):not(.back)",
		},
		TextContent: []string{
			".story-text",
			".story-text-container",
			".cover-title",
			".page-title",
		},
		TextFallback: ".page-content.right",

		CoverPattern: "(?i)cover",
		CoverImage:   ".cover " + hostedImage,
		Images: []string{
			".page-content.main.left " + hostedImage,
			".page-content.left " + hostedImage,
			".page-content.right " + hostedImage,
			hostedImage,
		},

		SettleText:   []string{".page-content.right .story-text", ".page-content.right"},
		SettleLabels: []string{".footer-page-number", ".page-number"},
		SettleImages: []string{".page-content.left " + hostedImage, hostedImage},

		NextControl:   "button[aria-label='Next page']",
		DisabledClass: "mat-mdc-button-disabled",
		StartOver:     "button.start-over-button",
	}
}

// LoadSelectors reads a YAML profile from path. Keys missing from the file
// keep their default value.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("read selectors: %w", err)
	}
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("parse selectors %s: %w", path, err)
	}
	if err := sel.Validate(); err != nil {
		return sel, fmt.Errorf("selectors %s: %w", path, err)
	}
	return sel, nil
}

// YAML renders the profile in the format LoadSelectors reads.
func (s Selectors) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate reports profiles the walker cannot run with.
func (s Selectors) Validate() error {
	if s.Region == "" {
		return fmt.Errorf("region selector is required")
	}
	if s.NextControl == "" {
		return fmt.Errorf("next_control selector is required")
	}
	if _, err := regexp.Compile(s.CoverPattern); err != nil {
		return fmt.Errorf("cover_pattern: %w", err)
	}
	return nil
}
