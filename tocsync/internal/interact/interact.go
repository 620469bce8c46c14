// Package interact implements the user-facing gestures on the overlay:
// dragging, corner cycling, collapsing and entry navigation. Durable
// choices are written through to the preference adapter.
package interact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/internal/overlay"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

// Clamp bounds v to [0, limit]. A negative limit (overlay larger than the
// viewport) pins to 0.
func Clamp(v, limit float64) float64 {
	return max(0, min(v, limit))
}

// Drag moves the overlay with the pointer. The resulting pixel placement
// is never persisted.
type Drag struct{}

// Begin starts a gesture from a pointer-down at (x, y) on the header.
// Presses on a header control do not start a drag.
func (Drag) Begin(ctx context.Context, o *overlay.Overlay, x, y float64, onControl bool) (bool, error) {
	if onControl || o == nil || !o.Live() {
		return false, nil
	}
	g, err := o.Geometry(ctx)
	if err != nil {
		return false, fmt.Errorf("interact: drag begin: %w", err)
	}
	o.BeginDrag(overlay.Point{X: x - g.Left, Y: y - g.Top})
	return true, nil
}

// Move places the overlay under the pointer, fully inside the viewport.
func (Drag) Move(ctx context.Context, o *overlay.Overlay, x, y float64) error {
	if o == nil || !o.Live() {
		return nil
	}
	off, ok := o.DragOffset()
	if !ok {
		return nil
	}
	g, err := o.Geometry(ctx)
	if err != nil {
		return fmt.Errorf("interact: drag move: %w", err)
	}
	p := overlay.Point{
		X: Clamp(x-off.X, g.ViewportWidth-g.Width),
		Y: Clamp(y-off.Y, g.ViewportHeight-g.Height),
	}
	return o.PinTo(ctx, p)
}

// End releases the gesture. The overlay stays where it was dropped.
func (Drag) End(o *overlay.Overlay) {
	if o != nil {
		o.EndDrag()
	}
}

// Controls handles header controls and entry clicks.
type Controls struct {
	doc    dom.Document
	prefs  *prefs.Adapter
	logger *slog.Logger
}

// NewControls creates Controls over doc persisting through p.
func NewControls(doc dom.Document, p *prefs.Adapter, logger *slog.Logger) *Controls {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controls{doc: doc, prefs: p, logger: logger}
}

// CycleCorner docks the overlay to the next corner and persists it.
func (c *Controls) CycleCorner(ctx context.Context, o *overlay.Overlay) (prefs.Corner, error) {
	if o == nil || !o.Live() {
		return "", nil
	}
	next := o.State().Corner.Next()
	if err := o.ApplyCorner(ctx, next); err != nil {
		return "", fmt.Errorf("interact: corner: %w", err)
	}
	if err := c.prefs.SetCorner(ctx, next); err != nil {
		return next, err
	}
	c.logger.Debug("interact: corner", "corner", next)
	return next, nil
}

// ToggleCollapse flips the collapsed flag and persists it.
func (c *Controls) ToggleCollapse(ctx context.Context, o *overlay.Overlay) (bool, error) {
	if o == nil || !o.Live() {
		return false, nil
	}
	collapsed := !o.State().Collapsed
	if err := o.ApplyCollapsed(ctx, collapsed); err != nil {
		return !collapsed, fmt.Errorf("interact: collapse: %w", err)
	}
	if err := c.prefs.SetCollapsed(ctx, collapsed); err != nil {
		return collapsed, err
	}
	c.logger.Debug("interact: collapsed", "collapsed", collapsed)
	return collapsed, nil
}

// Navigate scrolls the page to the heading with id, top-aligned, and
// pushes the fragment once. An id that no longer resolves is a no-op.
func (c *Controls) Navigate(ctx context.Context, id string) (bool, error) {
	found, err := c.doc.ScrollIntoView(ctx, id, dom.AlignStart)
	if err != nil {
		return false, fmt.Errorf("interact: navigate %q: %w", id, err)
	}
	if !found {
		c.logger.Debug("interact: stale heading reference", "id", id)
		return false, nil
	}
	if err := c.doc.PushFragment(ctx, id); err != nil {
		return true, fmt.Errorf("interact: push fragment: %w", err)
	}
	return true, nil
}
