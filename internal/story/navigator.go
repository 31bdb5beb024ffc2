package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoControl is returned by Advance when the next control is missing.
var ErrNoControl = errors.New("next control not found")

// Navigator drives the "next page" control.
type Navigator struct {
	sel            Selectors
	rewindDelay    time.Duration
	controlTimeout time.Duration
	interval       time.Duration
	log            *zap.Logger
}

// NewNavigator builds a navigator from cfg.
func NewNavigator(cfg Config, log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{
		sel:            cfg.Selectors,
		rewindDelay:    cfg.RewindDelay,
		controlTimeout: cfg.ControlTimeout,
		interval:       cfg.PollInterval,
		log:            log,
	}
}

// Locate resolves the next control against the current document. A nil
// control with a nil error means it is not on the page.
func (n *Navigator) Locate(doc Document) (Control, error) {
	ctrl, err := doc.Control(n.sel.NextControl)
	if err != nil {
		return nil, fmt.Errorf("locate next control: %w", err)
	}
	return ctrl, nil
}

// Blocked reports whether the control is missing or disabled through the
// disabled property, aria-disabled, or the disabled style class. A check
// that cannot be made counts as blocked.
func (n *Navigator) Blocked(ctrl Control) bool {
	if ctrl == nil {
		return true
	}
	disabled, err := ctrl.Disabled()
	if err != nil {
		n.log.Debug("disabled check failed", zap.Error(err))
		return true
	}
	if disabled {
		return true
	}
	aria, ok, err := ctrl.Attribute("aria-disabled")
	if err != nil {
		n.log.Debug("aria-disabled check failed", zap.Error(err))
		return true
	}
	if ok && aria == "true" {
		return true
	}
	if n.sel.DisabledClass == "" {
		return false
	}
	hasClass, err := ctrl.HasClass(n.sel.DisabledClass)
	if err != nil {
		n.log.Debug("disabled class check failed", zap.Error(err))
		return true
	}
	return hasClass
}

// Unblock strips the disabled attribute and the disabled class so a forced
// click has a chance to go through. It does not check that it worked.
func (n *Navigator) Unblock(ctrl Control) error {
	if ctrl == nil {
		return ErrNoControl
	}
	if err := ctrl.RemoveAttribute("disabled"); err != nil {
		return fmt.Errorf("remove disabled attribute: %w", err)
	}
	if n.sel.DisabledClass != "" {
		if err := ctrl.RemoveClass(n.sel.DisabledClass); err != nil {
			return fmt.Errorf("remove disabled class: %w", err)
		}
	}
	return nil
}

// Advance clicks the control without waiting for it to be interactable;
// it may be covered or mid-transition.
func (n *Navigator) Advance(ctrl Control) error {
	if ctrl == nil {
		return ErrNoControl
	}
	if err := ctrl.ForceClick(); err != nil {
		return fmt.Errorf("click next: %w", err)
	}
	return nil
}

// Rewind clicks the start-over control when the book is not on its first
// spread, then pauses for the flip animation.
func (n *Navigator) Rewind(ctx context.Context, doc Document) Outcome {
	if n.sel.StartOver == "" {
		return Skipped
	}
	ctrl, err := doc.Control(n.sel.StartOver)
	if err != nil {
		n.log.Debug("start-over lookup failed", zap.Error(err))
	}
	if ctrl != nil {
		if err := ctrl.ForceClick(); err != nil {
			n.log.Debug("start-over click failed", zap.Error(err))
		}
	}
	if err := sleep(ctx, n.rewindDelay); err != nil {
		return Interrupted
	}
	if ctrl == nil {
		return Skipped
	}
	return Changed
}

// AwaitControl polls until the next control exists or the control timeout
// passes.
func (n *Navigator) AwaitControl(ctx context.Context, doc Document) Outcome {
	if n.controlTimeout <= 0 {
		return Skipped
	}
	waitCtx, cancel := context.WithTimeout(ctx, n.controlTimeout)
	defer cancel()

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		if ctrl, err := n.Locate(doc); err == nil && ctrl != nil {
			return Changed
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return Interrupted
			}
			return TimedOut
		case <-ticker.C:
		}
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
