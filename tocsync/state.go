package tocsync

import (
	"context"
	"time"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/heading"
	"github.com/hazyhaar/pagetoc/tocsync/internal/overlay"
)

// Entry is one TOC line.
type Entry = overlay.Entry

// Placement is the overlay corner, collapsed flag and transient pixel
// placement.
type Placement = overlay.State

// State is an immutable view of the engine, published after every event
// the loop handles. Readers on other goroutines never touch the overlay.
type State struct {
	InstanceID string    `json:"instance_id,omitempty"`
	Live       bool      `json:"live"`
	Title      string    `json:"title"`
	Entries    []Entry   `json:"entries"`
	Active     int       `json:"active"`
	Placement  Placement `json:"placement"`
	Builds     uint64    `json:"builds"`
	Updated    time.Time `json:"updated"`
}

// State returns the latest published state.
func (e *Engine) State() *State {
	return e.state.Load()
}

func (e *Engine) publish() {
	s := &State{
		Title:   e.title,
		Active:  -1,
		Builds:  e.builds,
		Updated: time.Now(),
	}
	if e.ov != nil && e.ov.Live() {
		s.InstanceID = e.ov.ID()
		s.Live = true
		s.Entries = e.ov.Entries()
		s.Active = e.ov.Active()
		s.Placement = e.ov.State()
	}
	e.state.Store(s)
}

// Fragment renders the overlay markup for s, sanitized.
func (s *State) Fragment() (string, error) {
	entries := make([]dom.ViewEntry, len(s.Entries))
	for i, en := range s.Entries {
		entries[i] = dom.ViewEntry{HeadingID: en.HeadingID, Level: en.Level, Text: en.Text}
	}
	return overlay.Render(overlay.RenderInput{
		ID:         overlay.SingletonID,
		InstanceID: s.InstanceID,
		Title:      s.Title,
		Corner:     s.Placement.Corner,
		Collapsed:  s.Placement.Collapsed,
		Entries:    entries,
	})
}

// Markdown renders the entries of s as a nested markdown list.
func (s *State) Markdown() (string, error) {
	return overlay.Markdown(s.Entries)
}

// Outline scans src once and returns the entries an overlay would list,
// without attaching anything. The result is not live.
func Outline(ctx context.Context, src heading.Source, title string) (*State, error) {
	ix, err := heading.Build(ctx, src)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = overlay.DefaultTitle
	}
	s := &State{Title: title, Active: -1, Updated: time.Now()}
	for _, r := range ix.Records() {
		s.Entries = append(s.Entries, Entry{HeadingID: r.ID, Level: r.Level, Text: r.Text})
	}
	return s, nil
}
