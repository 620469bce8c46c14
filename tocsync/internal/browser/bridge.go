package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/pagetoc/idgen"
	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/mutation"
)

//go:embed bridge.js
var bridgeJS string

const bindingName = "__pagetoc_binding"

// Page is a dom.Page over a live Chrome tab. Reads and overlay updates go
// through window.__pagetoc; page events come back through a Runtime
// binding.
type Page struct {
	page   *rod.Page
	logger *slog.Logger
	ids    idgen.Generator
	events chan dom.Event
	cancel context.CancelFunc
}

// NewPage installs the page bridge in tab and starts forwarding events.
// The bridge is also registered for future documents of the tab.
func NewPage(ctx context.Context, tab *Tab, logger *slog.Logger) (*Page, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rp := tab.Page

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(rp); err != nil {
		logger.Warn("browser: addBinding failed (may already exist)", "error", err)
	}
	if _, err := rp.EvalOnNewDocument(bridgeJS); err != nil {
		return nil, fmt.Errorf("browser: register bridge: %w", err)
	}
	if _, err := rp.Context(ctx).Eval(`() => {` + bridgeJS + `}`); err != nil {
		return nil, fmt.Errorf("browser: inject bridge: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	p := &Page{
		page:   rp,
		logger: logger,
		ids:    idgen.Prefixed("mb_", idgen.Default),
		events: make(chan dom.Event, 1024),
		cancel: cancel,
	}
	go p.listenBinding(lctx)

	logger.Debug("browser: bridge injected", "url", tab.PageURL)
	return p, nil
}

// Close stops event forwarding. Events is closed once the listener exits.
func (p *Page) Close() {
	p.cancel()
}

// Events implements dom.Page.
func (p *Page) Events() <-chan dom.Event { return p.events }

// wireEvent is the JSON message the bridge sends through the binding.
type wireEvent struct {
	Kind      string          `json:"kind"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	OnControl bool            `json:"on_control"`
	Fragment  string          `json:"fragment"`
	HeadingID string          `json:"heading_id"`
	Batch     json.RawMessage `json:"batch"`
}

// listenBinding receives bridge events via Runtime.bindingCalled.
func (p *Page) listenBinding(ctx context.Context) {
	defer close(p.events)
	p.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		ev, err := p.decode([]byte(e.Payload))
		if err != nil {
			p.logger.Warn("browser: parse binding payload", "error", err)
			return
		}
		select {
		case p.events <- ev:
		case <-ctx.Done():
		}
	})()
}

func (p *Page) decode(payload []byte) (dom.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case "scroll":
		return dom.Scroll{}, nil
	case "hashchange":
		return dom.HashChange{Fragment: w.Fragment}, nil
	case "pointerdown":
		return dom.PointerDown{X: w.X, Y: w.Y, OnControl: w.OnControl}, nil
	case "pointermove":
		return dom.PointerMove{X: w.X, Y: w.Y}, nil
	case "pointerup":
		return dom.PointerUp{}, nil
	case "entry":
		return dom.EntryClick{HeadingID: w.HeadingID}, nil
	case "corner":
		return dom.CornerClick{}, nil
	case "collapse":
		return dom.CollapseClick{}, nil
	case "mutations":
		b, err := mutation.UnmarshalBatch(w.Batch)
		if err != nil {
			return nil, err
		}
		b.ID = p.ids()
		return dom.Mutations{Batch: *b}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", w.Kind)
	}
}

// call invokes window.__pagetoc.call(method, args) and decodes its JSON
// result into out (which may be nil).
func (p *Page) call(ctx context.Context, out any, method string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	res, err := p.page.Context(ctx).Eval(`(m, a) => window.__pagetoc.call(m, a)`, method, args)
	if err != nil {
		return fmt.Errorf("browser: %s: %w", method, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), out); err != nil {
		return fmt.Errorf("browser: %s: decode: %w", method, err)
	}
	return nil
}

// control invokes a method that reports false when the overlay control it
// addresses is missing.
func (p *Page) control(ctx context.Context, method string, args ...any) error {
	var ok bool
	if err := p.call(ctx, &ok, method, args...); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("browser: %s: %w", method, dom.ErrMissingControl)
	}
	return nil
}

// --- dom.Document ---

func (p *Page) Headings(ctx context.Context) ([]dom.Node, error) {
	var raw []struct {
		Tag  string `json:"tag"`
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := p.call(ctx, &raw, "headings"); err != nil {
		return nil, err
	}
	out := make([]dom.Node, len(raw))
	for i, r := range raw {
		out[i] = dom.Node{Tag: r.Tag, ID: r.ID, Text: r.Text}
	}
	return out, nil
}

func (p *Page) HeadingText(ctx context.Context, id string) (string, bool, error) {
	var r struct {
		Text  string `json:"text"`
		Found bool   `json:"found"`
	}
	if err := p.call(ctx, &r, "headingText", id); err != nil {
		return "", false, err
	}
	return r.Text, r.Found, nil
}

func (p *Page) Positions(ctx context.Context, ids []string) ([]dom.Position, error) {
	var raw []struct {
		Top   float64 `json:"top"`
		Found bool    `json:"found"`
	}
	if err := p.call(ctx, &raw, "positions", ids); err != nil {
		return nil, err
	}
	if len(raw) != len(ids) {
		return nil, errors.New("browser: positions: length mismatch")
	}
	out := make([]dom.Position, len(raw))
	for i, r := range raw {
		out[i] = dom.Position{Top: r.Top, Found: r.Found}
	}
	return out, nil
}

func (p *Page) ScrollIntoView(ctx context.Context, id string, align dom.Align) (bool, error) {
	var found bool
	err := p.call(ctx, &found, "scrollIntoView", id, string(align))
	return found, err
}

func (p *Page) PushFragment(ctx context.Context, id string) error {
	return p.call(ctx, nil, "pushFragment", id)
}

// --- dom.Surface ---

func (p *Page) OverlayPresent(ctx context.Context, id string) (bool, error) {
	var present bool
	err := p.call(ctx, &present, "present", id)
	return present, err
}

// wireView is the attach payload. HTML is already sanitized.
type wireView struct {
	ID        string `json:"id"`
	Instance  string `json:"instance"`
	HTML      string `json:"html"`
	Corner    string `json:"corner"`
	Collapsed bool   `json:"collapsed"`
}

func (p *Page) Attach(ctx context.Context, v dom.View) error {
	var ok bool
	err := p.call(ctx, &ok, "attach", wireView{
		ID:        v.ID,
		Instance:  v.InstanceID,
		HTML:      v.HTML,
		Corner:    v.Corner,
		Collapsed: v.Collapsed,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("browser: attach %s: element already present", v.ID)
	}
	return nil
}

func (p *Page) Detach(ctx context.Context, id string) error {
	return p.call(ctx, nil, "detach", id)
}

func (p *Page) SetLabel(ctx context.Context, index int, text string) error {
	return p.control(ctx, "setLabel", index, text)
}

func (p *Page) SetActive(ctx context.Context, index int) error {
	return p.control(ctx, "setActive", index)
}

func (p *Page) EntryClipped(ctx context.Context, index int) (bool, error) {
	var clipped bool
	err := p.call(ctx, &clipped, "entryClipped", index)
	return clipped, err
}

func (p *Page) ScrollEntryIntoView(ctx context.Context, index int) error {
	return p.control(ctx, "scrollEntry", index)
}

func (p *Page) SetCorner(ctx context.Context, corner string) error {
	return p.control(ctx, "setCorner", corner)
}

func (p *Page) SetCollapsed(ctx context.Context, collapsed bool) error {
	return p.control(ctx, "setCollapsed", collapsed)
}

func (p *Page) MoveTo(ctx context.Context, x, y float64) error {
	return p.control(ctx, "moveTo", x, y)
}

func (p *Page) Geometry(ctx context.Context) (dom.Geometry, error) {
	var g struct {
		ViewportWidth  float64 `json:"viewport_width"`
		ViewportHeight float64 `json:"viewport_height"`
		Left           float64 `json:"left"`
		Top            float64 `json:"top"`
		Width          float64 `json:"width"`
		Height         float64 `json:"height"`
	}
	if err := p.call(ctx, &g, "geometry"); err != nil {
		return dom.Geometry{}, err
	}
	return dom.Geometry(g), nil
}
