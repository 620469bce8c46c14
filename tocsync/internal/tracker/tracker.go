// CLAUDE:SUMMARY Reading-position heuristic: scores every heading by its viewport offset and marks the minimum as active.
// Package tracker decides which heading the reader is on.
//
// The score is a heuristic, not a visibility computation. Headings within
// 100px of the viewport top score their distance to it; headings further
// below pay a 1000 penalty and headings further above pay 500, so a heading
// just scrolled past beats one about to come into view.
package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/heading"
)

const (
	band         = 100
	belowPenalty = 1000
	abovePenalty = 500
)

// Score returns the reading-position score of a heading whose top edge is
// top pixels below the viewport top. Lower is better.
func Score(top float64) float64 {
	switch {
	case top >= -band && top <= band:
		return abs(top)
	case top > band:
		return top + belowPenalty
	default:
		return abs(top) + abovePenalty
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Select returns the index of the best-scoring resolvable position, or -1
// when none resolves. Ties go to the earliest in document order.
func Select(positions []dom.Position) int {
	best := -1
	var bestScore float64
	for i, p := range positions {
		if !p.Found {
			continue
		}
		s := Score(p.Top)
		if best < 0 || s < bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// Target is the live overlay the tracker reflects its choice into.
type Target interface {
	Live() bool
	Index() *heading.Index
	SetActive(ctx context.Context, i int) error
	Reveal(ctx context.Context, i int) (bool, error)
}

// Tracker measures heading offsets on a document.
type Tracker struct {
	doc    dom.Document
	logger *slog.Logger
}

// New creates a Tracker reading geometry from doc.
func New(doc dom.Document, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{doc: doc, logger: logger}
}

// Update recomputes the active entry of t's snapshot and reflects it. The
// overlay list is scrolled only when the active entry is clipped there.
// It returns the selected entry, or -1.
func (tr *Tracker) Update(ctx context.Context, t Target) (int, error) {
	if t == nil || !t.Live() {
		return -1, nil
	}
	positions, err := tr.doc.Positions(ctx, t.Index().IDs())
	if err != nil {
		return -1, fmt.Errorf("tracker: positions: %w", err)
	}
	i := Select(positions)
	if err := t.SetActive(ctx, i); err != nil {
		return i, err
	}
	if i < 0 {
		return -1, nil
	}
	revealed, err := t.Reveal(ctx, i)
	if err != nil {
		return i, err
	}
	if revealed {
		tr.logger.Debug("tracker: revealed entry", "index", i, "id", t.Index().At(i).ID)
	}
	return i, nil
}
