// Package overlay builds and owns the TOC overlay instance. Build is the
// only path that inserts the singleton element into the page; Destroy is
// the only path that removes it.
package overlay

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/heading"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

// SingletonID is the reserved element id of the overlay container.
const SingletonID = "pagetoc-overlay"

var (
	// ErrNoHeadings means the snapshot is empty; nothing was attached.
	ErrNoHeadings = errors.New("overlay: no headings with ids")
	// ErrExists means an overlay element is already in the page; nothing
	// was attached.
	ErrExists = errors.New("overlay: instance already present")
)

// Point is a pixel position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is the placement state of an instance. Corner and Collapsed are
// durable; DragOffset lives for one gesture, Pinned until a named corner
// is applied again.
type State struct {
	Corner     prefs.Corner `json:"corner"`
	Collapsed  bool         `json:"collapsed"`
	DragOffset *Point       `json:"drag_offset,omitempty"`
	Pinned     *Point       `json:"pinned,omitempty"`
}

// Entry is one TOC line.
type Entry struct {
	HeadingID string `json:"heading_id"`
	Level     int    `json:"level"`
	Text      string `json:"text"`
	Active    bool   `json:"active"`
}

// Settings are the construction inputs read from preferences.
type Settings struct {
	InstanceID string
	Title      string
	Corner     prefs.Corner
	Collapsed  bool
}

// Overlay is a live TOC instance bound to one heading snapshot.
type Overlay struct {
	id      string
	surface dom.Surface
	index   *heading.Index
	state   State
	active  int
	dead    bool
}

// Build constructs an overlay for ix and attaches it to s.
func Build(ctx context.Context, s dom.Surface, ix *heading.Index, set Settings) (*Overlay, error) {
	if ix == nil || ix.Empty() {
		return nil, ErrNoHeadings
	}
	present, err := s.OverlayPresent(ctx, SingletonID)
	if err != nil {
		return nil, fmt.Errorf("overlay: probe: %w", err)
	}
	if present {
		return nil, ErrExists
	}

	corner := set.Corner
	if !corner.Valid() {
		corner = prefs.TopLeft
	}
	o := &Overlay{
		id:      set.InstanceID,
		surface: s,
		index:   ix,
		state:   State{Corner: corner, Collapsed: set.Collapsed},
		active:  -1,
	}

	view, err := o.view(set.Title)
	if err != nil {
		return nil, err
	}
	if err := s.Attach(ctx, view); err != nil {
		return nil, fmt.Errorf("overlay: attach: %w", err)
	}
	return o, nil
}

func (o *Overlay) view(title string) (dom.View, error) {
	entries := make([]dom.ViewEntry, o.index.Len())
	for i, r := range o.index.Records() {
		entries[i] = dom.ViewEntry{HeadingID: r.ID, Level: r.Level, Text: r.Text}
	}
	fragment, err := Render(RenderInput{
		ID:         SingletonID,
		InstanceID: o.id,
		Title:      title,
		Corner:     o.state.Corner,
		Collapsed:  o.state.Collapsed,
		Entries:    entries,
	})
	if err != nil {
		return dom.View{}, err
	}
	return dom.View{
		ID:         SingletonID,
		InstanceID: o.id,
		HTML:       fragment,
		Entries:    entries,
		Corner:     string(o.state.Corner),
		Collapsed:  o.state.Collapsed,
	}, nil
}

// Destroy detaches the instance and its listeners. Further calls on the
// instance are no-ops.
func (o *Overlay) Destroy(ctx context.Context) error {
	if o.dead {
		return nil
	}
	o.dead = true
	if err := o.surface.Detach(ctx, SingletonID); err != nil {
		return fmt.Errorf("overlay: detach: %w", err)
	}
	return nil
}

// Live reports whether the instance has not been destroyed.
func (o *Overlay) Live() bool { return !o.dead }

// ID returns the instance id.
func (o *Overlay) ID() string { return o.id }

// Index returns the heading snapshot owned by the instance.
func (o *Overlay) Index() *heading.Index { return o.index }

// Active returns the active entry, or -1.
func (o *Overlay) Active() int { return o.active }

// State returns a copy of the placement state.
func (o *Overlay) State() State {
	s := o.state
	if s.DragOffset != nil {
		p := *s.DragOffset
		s.DragOffset = &p
	}
	if s.Pinned != nil {
		p := *s.Pinned
		s.Pinned = &p
	}
	return s
}

// Entries returns the TOC lines in document order.
func (o *Overlay) Entries() []Entry {
	out := make([]Entry, o.index.Len())
	for i, r := range o.index.Records() {
		out[i] = Entry{HeadingID: r.ID, Level: r.Level, Text: r.Text, Active: i == o.active}
	}
	return out
}

// SetLabel changes the displayed text of entry i in the snapshot and the
// page. It reports whether anything changed.
// The snapshot only takes the new text once the page accepted it, so a
// failed write is retried by the next sync.
func (o *Overlay) SetLabel(ctx context.Context, i int, text string) (bool, error) {
	if o.dead || i < 0 || i >= o.index.Len() || o.index.At(i).Text == text {
		return false, nil
	}
	if err := o.surface.SetLabel(ctx, i, text); err != nil {
		return false, fmt.Errorf("overlay: set label %d: %w", i, err)
	}
	o.index.SetText(i, text)
	return true, nil
}

// SetActive marks entry i active, clearing the others. i < 0 clears all.
func (o *Overlay) SetActive(ctx context.Context, i int) error {
	if o.dead {
		return nil
	}
	if i < 0 || i >= o.index.Len() {
		i = -1
	}
	o.active = i
	if err := o.surface.SetActive(ctx, i); err != nil {
		return fmt.Errorf("overlay: set active: %w", err)
	}
	return nil
}

// Reveal scrolls the overlay's own list so entry i is visible, only when
// it is currently clipped. It reports whether a scroll was issued.
func (o *Overlay) Reveal(ctx context.Context, i int) (bool, error) {
	if o.dead || i < 0 {
		return false, nil
	}
	clipped, err := o.surface.EntryClipped(ctx, i)
	if err != nil {
		return false, fmt.Errorf("overlay: clip check: %w", err)
	}
	if !clipped {
		return false, nil
	}
	if err := o.surface.ScrollEntryIntoView(ctx, i); err != nil {
		return false, fmt.Errorf("overlay: reveal: %w", err)
	}
	return true, nil
}

// ApplyCorner docks the overlay to c, dropping any pixel placement.
func (o *Overlay) ApplyCorner(ctx context.Context, c prefs.Corner) error {
	if o.dead {
		return nil
	}
	o.state.Corner = c
	o.state.Pinned = nil
	o.state.DragOffset = nil
	return o.surface.SetCorner(ctx, string(c))
}

// ApplyCollapsed shows or hides the entry list. The header stays visible.
func (o *Overlay) ApplyCollapsed(ctx context.Context, collapsed bool) error {
	if o.dead {
		return nil
	}
	o.state.Collapsed = collapsed
	return o.surface.SetCollapsed(ctx, collapsed)
}

// Geometry returns the current viewport and overlay box.
func (o *Overlay) Geometry(ctx context.Context) (dom.Geometry, error) {
	return o.surface.Geometry(ctx)
}

// BeginDrag records the pointer offset inside the overlay box.
func (o *Overlay) BeginDrag(offset Point) {
	o.state.DragOffset = &offset
}

// Dragging reports whether a drag gesture is in progress.
func (o *Overlay) Dragging() bool { return o.state.DragOffset != nil }

// DragOffset returns the pointer offset of the gesture in progress.
func (o *Overlay) DragOffset() (Point, bool) {
	if o.state.DragOffset == nil {
		return Point{}, false
	}
	return *o.state.DragOffset, true
}

// PinTo places the overlay at pixel position p.
func (o *Overlay) PinTo(ctx context.Context, p Point) error {
	if o.dead {
		return nil
	}
	o.state.Pinned = &p
	return o.surface.MoveTo(ctx, p.X, p.Y)
}

// EndDrag ends the gesture; the pixel placement stays.
func (o *Overlay) EndDrag() {
	o.state.DragOffset = nil
}
