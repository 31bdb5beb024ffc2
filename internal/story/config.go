package story

import (
	"fmt"
	"time"
)

// MaxConsecutiveRejections ends a walk after this many snapshots in a row
// fail to produce a new page.
const MaxConsecutiveRejections = 3

// Config holds the walk policy. It is read-only once handed to NewWalker.
type Config struct {
	MinTextLength int
	Blocklist     []string
	MaxPages      int

	SettleTimeout  time.Duration // bound on each wait for the spread to change
	PollInterval   time.Duration
	ClickDelay     time.Duration // fixed pause after each settle wait
	RewindDelay    time.Duration
	ControlTimeout time.Duration // wait for the next control before walking

	Selectors Selectors
}

// DefaultBlocklist lists UI labels that are never story content.
var DefaultBlocklist = []string{
	"Cover",
	"Listen",
	"Report content",
	"Create a storybook",
	"Opens in a new window",
}

// DefaultConfig returns the policy used by the storygrab command.
func DefaultConfig() Config {
	return Config{
		MinTextLength:  12,
		Blocklist:      append([]string(nil), DefaultBlocklist...),
		MaxPages:       60,
		SettleTimeout:  45 * time.Second,
		PollInterval:   250 * time.Millisecond,
		ClickDelay:     500 * time.Millisecond,
		RewindDelay:    time.Second,
		ControlTimeout: 45 * time.Second,
		Selectors:      DefaultSelectors(),
	}
}

// Validate checks the values a walk depends on.
func (c Config) Validate() error {
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive, got %d", c.MaxPages)
	}
	if c.MinTextLength < 0 {
		return fmt.Errorf("min text length must not be negative, got %d", c.MinTextLength)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return c.Selectors.Validate()
}
