package dom

import "github.com/hazyhaar/pagetoc/tocsync/mutation"

// Event is something the page reports to the engine.
type Event interface {
	Kind() string
}

// Scroll is a window scroll.
type Scroll struct{}

// HashChange is a navigation to a new address fragment.
type HashChange struct {
	Fragment string
}

// PointerDown is a primary-button press on the overlay header.
type PointerDown struct {
	X, Y      float64
	OnControl bool // target is (inside) one of the header controls
}

// PointerMove is a pointer move anywhere in the document.
type PointerMove struct {
	X, Y float64
}

// PointerUp is a button release anywhere in the document.
type PointerUp struct{}

// EntryClick is a click on an overlay entry. Default navigation has
// already been prevented by the page.
type EntryClick struct {
	HeadingID string
}

// CornerClick is a click on the position control.
type CornerClick struct{}

// CollapseClick is a click on the collapse control.
type CollapseClick struct{}

// Mutations carries one observed batch.
type Mutations struct {
	Batch mutation.Batch
}

func (Scroll) Kind() string        { return "scroll" }
func (HashChange) Kind() string    { return "hashchange" }
func (PointerDown) Kind() string   { return "pointerdown" }
func (PointerMove) Kind() string   { return "pointermove" }
func (PointerUp) Kind() string     { return "pointerup" }
func (EntryClick) Kind() string    { return "entry" }
func (CornerClick) Kind() string   { return "corner" }
func (CollapseClick) Kind() string { return "collapse" }
func (Mutations) Kind() string     { return "mutations" }
