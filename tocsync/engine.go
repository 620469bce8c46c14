// Package tocsync keeps a table-of-contents overlay in sync with a live
// document. One Engine drives one page: it builds the overlay from the
// page headings, tracks the reading position, reconciles DOM mutations
// and applies user gestures, all from a single event loop goroutine.
package tocsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/pagetoc/idgen"
	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/heading"
	"github.com/hazyhaar/pagetoc/tocsync/internal/interact"
	"github.com/hazyhaar/pagetoc/tocsync/internal/overlay"
	"github.com/hazyhaar/pagetoc/tocsync/internal/reconcile"
	"github.com/hazyhaar/pagetoc/tocsync/internal/tracker"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

var (
	// ErrRunning is returned by Run when the engine loop is already running.
	ErrRunning = errors.New("tocsync: engine already running")
	// ErrStopped is returned by calls submitted after the loop exited.
	ErrStopped = errors.New("tocsync: engine stopped")
)

// Options configure an Engine.
type Options struct {
	Page   dom.Page
	Store  prefs.Store
	Timing TimingConfig
	Title  string
	IDs    idgen.Generator
	Logger *slog.Logger
}

// Engine owns the overlay of one page.
type Engine struct {
	page   dom.Page
	prefs  *prefs.Adapter
	title  string
	ids    idgen.Generator
	logger *slog.Logger

	tracker    *tracker.Tracker
	reconciler *reconcile.Reconciler
	controls   *interact.Controls
	drag       interact.Drag

	// Loop-owned.
	ov     *overlay.Overlay
	builds uint64
	timers *timers

	cmds    chan command
	done    chan struct{}
	running atomic.Bool
	state   atomic.Pointer[State]
}

type command struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// New creates an Engine. The overlay is not built until Run.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IDs == nil {
		opts.IDs = idgen.Prefixed("toc_", idgen.Default)
	}
	if opts.Title == "" {
		opts.Title = overlay.DefaultTitle
	}
	if opts.Store == nil {
		opts.Store = prefs.NewMemory()
	}

	e := &Engine{
		page:    opts.Page,
		prefs:   prefs.NewAdapter(opts.Store, opts.Logger),
		title:   opts.Title,
		ids:     opts.IDs,
		logger:  opts.Logger,
		tracker: tracker.New(opts.Page, opts.Logger),
		timers:  newTimers(opts.Timing),
		cmds:    make(chan command),
		done:    make(chan struct{}),
	}
	e.controls = interact.NewControls(opts.Page, e.prefs, opts.Logger)
	e.reconciler = reconcile.New(opts.Logger,
		reconcile.NewStructural(e.scheduleRebuild),
		reconcile.NewText(opts.Page, e.labelTarget),
	)
	e.state.Store(&State{Title: e.title, Active: -1})
	return e
}

// Run builds the overlay and processes page events until ctx is done or
// the page event stream closes. The overlay is destroyed on return.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(e.done)
	defer e.timers.stopAll()
	defer e.shutdown(ctx)

	if err := e.build(ctx); err != nil {
		return fmt.Errorf("tocsync: initial build: %w", err)
	}
	e.publish()

	events := e.page.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handle(ctx, ev)

		case <-e.timers.scroll.C():
			e.timers.scroll.clear()
			e.track(ctx)

		case <-e.timers.hash.C():
			e.timers.hash.clear()
			e.track(ctx)

		case <-e.timers.seed.C():
			e.timers.seed.clear()
			e.track(ctx)

		case <-e.timers.rebuild.C():
			e.timers.rebuild.clear()
			if err := e.build(ctx); err != nil {
				e.logger.Warn("tocsync: rebuild failed", "error", err)
			}

		case cmd := <-e.cmds:
			cmd.fn(ctx)
			close(cmd.done)
		}
		e.publish()
	}
}

// shutdown removes the overlay on exit, outliving a cancelled ctx briefly.
func (e *Engine) shutdown(ctx context.Context) {
	if e.ov == nil {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := e.ov.Destroy(dctx); err != nil {
		e.logger.Debug("tocsync: destroy on exit", "error", err)
	}
	e.ov = nil
	e.publish()
}

// build scans the page and attaches a fresh overlay. No headings and an
// overlay already present are both silent no-ops.
func (e *Engine) build(ctx context.Context) error {
	ix, err := heading.Build(ctx, e.page)
	if err != nil {
		return err
	}
	if ix.Empty() {
		e.logger.Info("tocsync: no headings with ids, overlay not built")
		return nil
	}

	ov, err := overlay.Build(ctx, e.page, ix, overlay.Settings{
		InstanceID: e.ids(),
		Title:      e.title,
		Corner:     e.prefs.Corner(ctx),
		Collapsed:  e.prefs.Collapsed(ctx),
	})
	switch {
	case errors.Is(err, overlay.ErrExists):
		e.logger.Debug("tocsync: overlay already present, build skipped")
		return nil
	case err != nil:
		return err
	}

	e.ov = ov
	e.builds++
	e.logger.Info("tocsync: overlay built", "instance", ov.ID(), "headings", ix.Len())
	e.timers.seed.arm()
	return nil
}

// scheduleRebuild destroys the live overlay now and builds again once the
// mutation burst settles.
func (e *Engine) scheduleRebuild(ctx context.Context) error {
	if e.ov != nil {
		if err := e.ov.Destroy(ctx); err != nil {
			e.logger.Warn("tocsync: destroy before rebuild", "error", err)
		}
		e.ov = nil
	}
	e.timers.rebuild.arm()
	return nil
}

func (e *Engine) labelTarget() reconcile.LabelTarget {
	if e.ov == nil {
		return nil
	}
	return e.ov
}

func (e *Engine) track(ctx context.Context) {
	if e.ov == nil {
		return
	}
	if _, err := e.tracker.Update(ctx, e.ov); err != nil {
		e.logFailure("tocsync: track", err)
	}
}

// handle applies one page event. Errors are logged; nothing propagates to
// the page.
func (e *Engine) handle(ctx context.Context, ev dom.Event) {
	var err error
	switch ev := ev.(type) {
	case dom.Scroll:
		e.timers.scroll.arm()
	case dom.HashChange:
		e.timers.hash.arm()
	case dom.PointerDown:
		_, err = e.drag.Begin(ctx, e.ov, ev.X, ev.Y, ev.OnControl)
	case dom.PointerMove:
		err = e.drag.Move(ctx, e.ov, ev.X, ev.Y)
	case dom.PointerUp:
		e.drag.End(e.ov)
	case dom.EntryClick:
		_, err = e.controls.Navigate(ctx, ev.HeadingID)
	case dom.CornerClick:
		_, err = e.controls.CycleCorner(ctx, e.ov)
	case dom.CollapseClick:
		_, err = e.controls.ToggleCollapse(ctx, e.ov)
	case dom.Mutations:
		_, err = e.reconciler.Dispatch(ctx, ev.Batch)
	default:
		e.logger.Debug("tocsync: ignoring event", "kind", ev.Kind())
	}
	if err != nil {
		e.logFailure("tocsync: "+ev.Kind(), err)
	}
}

func (e *Engine) logFailure(msg string, err error) {
	if errors.Is(err, dom.ErrMissingControl) {
		e.logger.Debug(msg+": control missing, skipped", "error", err)
		return
	}
	e.logger.Warn(msg, "error", err)
}

// do runs fn on the loop goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func(ctx context.Context)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case e.cmds <- cmd:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Navigate scrolls the page to the heading with id, as an entry click
// would. It reports false when the id no longer resolves.
func (e *Engine) Navigate(ctx context.Context, id string) (bool, error) {
	var ok bool
	var err error
	if derr := e.do(ctx, func(lctx context.Context) {
		ok, err = e.controls.Navigate(lctx, id)
	}); derr != nil {
		return false, derr
	}
	return ok, err
}

// CycleCorner advances the overlay to the next corner, as the position
// control would.
func (e *Engine) CycleCorner(ctx context.Context) (prefs.Corner, error) {
	var c prefs.Corner
	var err error
	if derr := e.do(ctx, func(lctx context.Context) {
		c, err = e.controls.CycleCorner(lctx, e.ov)
	}); derr != nil {
		return "", derr
	}
	return c, err
}

// ToggleCollapse flips the collapsed state, as the collapse control would.
func (e *Engine) ToggleCollapse(ctx context.Context) (bool, error) {
	var collapsed bool
	var err error
	if derr := e.do(ctx, func(lctx context.Context) {
		collapsed, err = e.controls.ToggleCollapse(lctx, e.ov)
	}); derr != nil {
		return false, derr
	}
	return collapsed, err
}
