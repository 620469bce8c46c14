// Package dom is the boundary between the synchronization engine and the
// host document. The engine never holds element references: everything it
// knows about the page is addressed by heading id and re-resolved on use.
//
// Two implementations ship with pagetoc: the Chrome DevTools bridge in
// tocsync/internal/browser, and Memory, a static document backed by
// golang.org/x/net/html.
package dom

import (
	"context"
	"errors"
)

// ErrMissingControl is returned by Surface operations that address a
// control of the overlay which is not present in the page.
var ErrMissingControl = errors.New("dom: overlay control missing")

// Align selects where ScrollIntoView places the target element.
type Align string

const (
	AlignStart  Align = "start"
	AlignCenter Align = "center"
)

// Node is a qualifying heading as read from the document.
type Node struct {
	Tag  string // lower-case, h1..h6
	ID   string
	Text string // trimmed textContent
}

// Position is an element's vertical offset relative to the viewport top
// (getBoundingClientRect().top). Found is false when the id no longer
// resolves to an element.
type Position struct {
	Top   float64
	Found bool
}

// Geometry describes the viewport and the overlay box, in CSS pixels.
type Geometry struct {
	ViewportWidth  float64
	ViewportHeight float64
	Left           float64
	Top            float64
	Width          float64
	Height         float64
}

// ViewEntry is one link of the overlay list.
type ViewEntry struct {
	HeadingID string
	Level     int
	Text      string
}

// View is everything needed to insert an overlay instance.
type View struct {
	ID         string // singleton element id
	InstanceID string
	HTML       string // sanitized fragment, root element carries ID
	Entries    []ViewEntry
	Corner     string
	Collapsed  bool
}

// Document is the read and navigation surface of the host page.
type Document interface {
	// Headings returns h1..h6 elements carrying a non-empty id, in
	// document order.
	Headings(ctx context.Context) ([]Node, error)
	// HeadingText returns the trimmed live text of the element with id.
	HeadingText(ctx context.Context, id string) (text string, found bool, err error)
	// Positions returns rect.top for each id, in the order given.
	Positions(ctx context.Context, ids []string) ([]Position, error)
	// ScrollIntoView smoothly scrolls the page to the element with id.
	ScrollIntoView(ctx context.Context, id string, align Align) (found bool, err error)
	// PushFragment records #id as the address fragment with a single
	// pushed history state.
	PushFragment(ctx context.Context, id string) error
}

// Surface is where the overlay lives. Index arguments address entries in
// the order of the attached View.
type Surface interface {
	OverlayPresent(ctx context.Context, id string) (bool, error)
	Attach(ctx context.Context, v View) error
	Detach(ctx context.Context, id string) error
	SetLabel(ctx context.Context, index int, text string) error
	// SetActive marks entry index active and clears every other entry.
	// A negative index clears all.
	SetActive(ctx context.Context, index int) error
	// EntryClipped reports whether the entry's box is cut by the overlay's
	// scrollable list.
	EntryClipped(ctx context.Context, index int) (bool, error)
	ScrollEntryIntoView(ctx context.Context, index int) error
	SetCorner(ctx context.Context, corner string) error
	SetCollapsed(ctx context.Context, collapsed bool) error
	MoveTo(ctx context.Context, x, y float64) error
	Geometry(ctx context.Context) (Geometry, error)
}

// Page is a live document: readable, hosting an overlay, and emitting
// events.
type Page interface {
	Document
	Surface
	Events() <-chan Event
}
