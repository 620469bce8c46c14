// CLAUDE:SUMMARY Two independent watches over one mutation feed: structural (rebuild request) and text (in-place label patch).
// Package reconcile classifies mutation batches. Each Watch has its own
// predicate and action; the Reconciler hands every batch to every watch.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/heading"
	"github.com/hazyhaar/pagetoc/tocsync/mutation"
)

// Watch reacts to the batches its predicate accepts.
type Watch interface {
	Name() string
	Matches(b mutation.Batch) bool
	Apply(ctx context.Context, b mutation.Batch) error
}

// Reconciler fans batches out to its watches.
type Reconciler struct {
	watches []Watch
	logger  *slog.Logger
}

// New creates a Reconciler over watches, in order.
func New(logger *slog.Logger, watches ...Watch) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{watches: watches, logger: logger}
}

// Dispatch offers b to every watch. A failing watch does not stop the
// others. It returns the names of the watches that fired.
func (r *Reconciler) Dispatch(ctx context.Context, b mutation.Batch) ([]string, error) {
	var fired []string
	var errs []error
	for _, w := range r.watches {
		if !w.Matches(b) {
			continue
		}
		fired = append(fired, w.Name())
		if err := w.Apply(ctx, b); err != nil {
			r.logger.Warn("reconcile: watch failed", "watch", w.Name(), "batch", b.ID, "error", err)
			errs = append(errs, fmt.Errorf("reconcile: %s: %w", w.Name(), err))
		}
	}
	return fired, errors.Join(errs...)
}

// Structural requests a rebuild when a batch inserts a qualifying heading.
type Structural struct {
	rebuild func(ctx context.Context) error
}

// NewStructural creates the structural watch. rebuild is called at most
// once per batch, however many headings the batch inserts.
func NewStructural(rebuild func(ctx context.Context) error) *Structural {
	return &Structural{rebuild: rebuild}
}

func (s *Structural) Name() string { return "structural" }

// Matches reports whether any inserted element is itself a qualifying
// heading.
func (s *Structural) Matches(b mutation.Batch) bool {
	for _, rec := range b.Inserted() {
		if heading.Qualifies(rec.Tag, rec.ID) {
			return true
		}
	}
	return false
}

func (s *Structural) Apply(ctx context.Context, _ mutation.Batch) error {
	return s.rebuild(ctx)
}

// LabelTarget is the live overlay whose labels follow the page.
type LabelTarget interface {
	Live() bool
	Index() *heading.Index
	SetLabel(ctx context.Context, i int, text string) (bool, error)
}

// Text patches entry labels in place when heading text changes.
type Text struct {
	doc     dom.Document
	current func() LabelTarget
}

// NewText creates the text watch. current returns the live overlay, or
// nil when none is attached.
func NewText(doc dom.Document, current func() LabelTarget) *Text {
	return &Text{doc: doc, current: current}
}

func (t *Text) Name() string { return "text" }

// Matches accepts every non-empty batch. Heading text can change through
// character data or through element swaps inside the heading, and
// SyncLabels only writes labels that differ.
func (t *Text) Matches(b mutation.Batch) bool {
	return len(b.Records) > 0
}

func (t *Text) Apply(ctx context.Context, _ mutation.Batch) error {
	_, err := SyncLabels(ctx, t.doc, t.current())
	return err
}

// SyncLabels sets every entry label of target to the live trimmed text of
// its heading when they differ. Entries whose heading no longer resolves
// are left alone. It returns the number of labels changed.
func SyncLabels(ctx context.Context, doc dom.Document, target LabelTarget) (int, error) {
	if target == nil || !target.Live() {
		return 0, nil
	}
	changed := 0
	for i, rec := range target.Index().Records() {
		text, found, err := doc.HeadingText(ctx, rec.ID)
		if err != nil {
			return changed, fmt.Errorf("text %q: %w", rec.ID, err)
		}
		if !found {
			continue
		}
		text = strings.TrimSpace(text)
		if text == rec.Text {
			continue
		}
		ok, err := target.SetLabel(ctx, i, text)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}
