// Package prefs persists the two durable overlay settings: the corner the
// overlay is docked to and whether its list is collapsed. Values live in a
// scoped key-value Store and are read fresh on each construction; the
// Adapter never caches them.
package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Store keys.
const (
	KeyCorner    = "pagetoc-position"
	KeyCollapsed = "pagetoc-collapsed"
)

// Store is a string key-value persistence capability, scoped by its owner
// (browser origin, database scope).
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Adapter reads and writes the overlay settings through a Store.
type Adapter struct {
	store  Store
	logger *slog.Logger
}

// NewAdapter wraps store.
func NewAdapter(store Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: store, logger: logger}
}

// Corner returns the persisted corner, or TopLeft when nothing valid is
// stored. Read errors are logged and fall back to the default.
func (a *Adapter) Corner(ctx context.Context) Corner {
	v, ok, err := a.store.Get(ctx, KeyCorner)
	if err != nil {
		a.logger.Warn("prefs: read corner failed", "error", err)
		return TopLeft
	}
	if !ok {
		return TopLeft
	}
	c, valid := ParseCorner(v)
	if !valid {
		a.logger.Debug("prefs: ignoring unknown corner", "value", v)
		return TopLeft
	}
	return c
}

// SetCorner persists c.
func (a *Adapter) SetCorner(ctx context.Context, c Corner) error {
	if !c.Valid() {
		return fmt.Errorf("prefs: invalid corner %q", c)
	}
	if err := a.store.Set(ctx, KeyCorner, string(c)); err != nil {
		return fmt.Errorf("prefs: write corner: %w", err)
	}
	return nil
}

// Collapsed returns the persisted collapsed flag. Only the exact string
// "true" counts as collapsed.
func (a *Adapter) Collapsed(ctx context.Context) bool {
	v, ok, err := a.store.Get(ctx, KeyCollapsed)
	if err != nil {
		a.logger.Warn("prefs: read collapsed failed", "error", err)
		return false
	}
	return ok && v == "true"
}

// SetCollapsed persists the collapsed flag as "true" or "false".
func (a *Adapter) SetCollapsed(ctx context.Context, collapsed bool) error {
	if err := a.store.Set(ctx, KeyCollapsed, strconv.FormatBool(collapsed)); err != nil {
		return fmt.Errorf("prefs: write collapsed: %w", err)
	}
	return nil
}
