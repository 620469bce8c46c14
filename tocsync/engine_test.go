package tocsync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/pagetoc/idgen"
	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/mutation"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

const article = `<!doctype html><html><body>
<h2 id="a">Alpha</h2>
<p>lorem</p>
<h1 id="b">Beta</h1>
<h3 id="c">Gamma</h3>
</body></html>`

func newTestEngine(t *testing.T, src string, store prefs.Store) (*Engine, *dom.Memory) {
	t.Helper()
	m, err := dom.ParseMemory(src)
	if err != nil {
		t.Fatal(err)
	}
	e := New(Options{Page: m, Store: store, IDs: idgen.Prefixed("toc_", idgen.Sequence())})
	return e, m
}

func TestEngine_NoHeadingsNoOverlay(t *testing.T) {
	e, m := newTestEngine(t, `<html><body><h1>untitled</h1><p>x</p></body></html>`, nil)
	if err := e.build(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.publish()
	if m.OverlayCount() != 0 {
		t.Errorf("overlay count: got %d, want 0", m.OverlayCount())
	}
	if e.State().Live {
		t.Error("State.Live: got true")
	}
	if e.timers.seed.armed() {
		t.Error("seed timer armed without overlay")
	}
}

func TestEngine_IdempotentBuild(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := e.build(ctx); err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
	}
	if m.OverlayCount() != 1 {
		t.Errorf("overlay count: got %d, want 1", m.OverlayCount())
	}
	if got := len(m.Labels()); got != 3 {
		t.Errorf("entries: got %d, want 3", got)
	}
	if e.builds != 1 {
		t.Errorf("builds: got %d, want 1", e.builds)
	}
}

func TestEngine_OrderPreserved(t *testing.T) {
	e, _ := newTestEngine(t, article, nil)
	if err := e.build(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.publish()
	var ids []string
	for _, en := range e.State().Entries {
		ids = append(ids, en.HeadingID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("order: got %v, want [a b c]", ids)
	}
}

func TestEngine_FiveInsertionsOneRebuild(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()
	if err := e.build(ctx); err != nil {
		t.Fatal(err)
	}
	first := e.ov.ID()

	b := m.InsertHeadings(
		dom.Node{Tag: "h2", ID: "n1", Text: "One"},
		dom.Node{Tag: "h2", ID: "n2", Text: "Two"},
		dom.Node{Tag: "h2", ID: "n3", Text: "Three"},
		dom.Node{Tag: "h2", ID: "n4", Text: "Four"},
		dom.Node{Tag: "h2", ID: "n5", Text: "Five"},
	)
	e.handle(ctx, dom.Mutations{Batch: b})

	if m.OverlayCount() != 0 {
		t.Fatalf("old overlay still attached: count %d", m.OverlayCount())
	}
	if !e.timers.rebuild.armed() {
		t.Fatal("rebuild timer not armed")
	}

	// A second burst inside the settle window re-arms the same timer.
	e.handle(ctx, dom.Mutations{Batch: m.InsertHeadings(dom.Node{Tag: "h3", ID: "n6", Text: "Six"})})

	e.timers.rebuild.clear()
	if err := e.build(ctx); err != nil {
		t.Fatal(err)
	}
	if m.OverlayCount() != 1 {
		t.Errorf("overlay count: got %d, want 1", m.OverlayCount())
	}
	if e.builds != 2 {
		t.Errorf("builds: got %d, want 2", e.builds)
	}
	if got := len(m.Labels()); got != 9 {
		t.Errorf("entries: got %d, want 9", got)
	}
	if e.ov.ID() == first {
		t.Error("rebuild reused the old instance")
	}
}

func TestEngine_NonHeadingInsertIgnored(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()
	_ = e.build(ctx)

	e.handle(ctx, dom.Mutations{Batch: m.InsertElement("div", "ad banner")})
	if e.timers.rebuild.armed() {
		t.Error("rebuild armed for a non-heading insertion")
	}
	if m.OverlayCount() != 1 {
		t.Errorf("overlay count: got %d, want 1", m.OverlayCount())
	}
}

func TestEngine_TextSyncWithoutRebuild(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()
	_ = e.build(ctx)

	b, _ := m.SetText("b", "Bêta")
	e.handle(ctx, dom.Mutations{Batch: b})
	e.publish()

	if e.timers.rebuild.armed() {
		t.Error("text change armed a rebuild")
	}
	want := []string{"Alpha", "Bêta", "Gamma"}
	got := m.Labels()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if s := e.State(); len(s.Entries) != 3 || s.Entries[1].Text != "Bêta" || s.Builds != 1 {
		t.Errorf("state: got %+v", s)
	}
}

func TestEngine_ElementSwapSyncsLabel(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()
	_ = e.build(ctx)

	// The page replaced a span inside the heading: only element records.
	m.SetText("b", "Bêta")
	e.handle(ctx, dom.Mutations{Batch: mutation.Batch{Records: []mutation.Record{
		{Op: mutation.OpRemove, NodeType: mutation.NodeElement, Tag: "span"},
		{Op: mutation.OpInsert, NodeType: mutation.NodeElement, Tag: "span"},
	}}})
	e.publish()

	if got := m.Labels()[1]; got != "Bêta" {
		t.Errorf("label: got %q, want Bêta", got)
	}
	if e.timers.rebuild.armed() {
		t.Error("element swap armed a rebuild")
	}
	if s := e.State(); s.Builds != 1 || s.Entries[1].Text != "Bêta" {
		t.Errorf("state: got %+v", s)
	}
}

func TestEngine_PositionPersistsAcrossReload(t *testing.T) {
	store := prefs.NewMemory()
	ctx := context.Background()

	e, m := newTestEngine(t, article, store)
	_ = e.build(ctx)
	e.handle(ctx, dom.CornerClick{})
	e.handle(ctx, dom.CornerClick{})
	if m.Corner() != string(prefs.BottomRight) {
		t.Fatalf("corner: got %s, want %s", m.Corner(), prefs.BottomRight)
	}

	// Reload: fresh page, same store.
	e2, m2 := newTestEngine(t, article, store)
	_ = e2.build(ctx)
	if m2.Corner() != string(prefs.BottomRight) {
		t.Errorf("corner after reload: got %s, want %s", m2.Corner(), prefs.BottomRight)
	}
	if got := e2.ov.State().Corner; got != prefs.BottomRight {
		t.Errorf("overlay corner after reload: got %s", got)
	}
}

func TestEngine_CollapsedPersistsAcrossReload(t *testing.T) {
	store := prefs.NewMemory()
	ctx := context.Background()

	e, _ := newTestEngine(t, article, store)
	_ = e.build(ctx)
	e.handle(ctx, dom.CollapseClick{})

	e2, m2 := newTestEngine(t, article, store)
	_ = e2.build(ctx)
	if !m2.Collapsed() {
		t.Error("collapsed after reload: got false")
	}
}

func TestEngine_ScrollDebounce(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()
	_ = e.build(ctx)
	m.SetOffset("a", -50)
	m.SetOffset("b", 5)
	m.SetOffset("c", 300)

	for i := 0; i < 5; i++ {
		e.handle(ctx, dom.Scroll{})
	}
	if !e.timers.scroll.armed() {
		t.Fatal("scroll timer not armed")
	}
	if m.ActiveEntry() != -1 {
		t.Errorf("active before debounce expiry: got %d", m.ActiveEntry())
	}
	e.timers.scroll.clear()
	e.track(ctx)
	if m.ActiveEntry() != 1 {
		t.Errorf("active: got %d, want 1", m.ActiveEntry())
	}
}

func TestEngine_EntryClickNavigates(t *testing.T) {
	e, m := newTestEngine(t, article, nil)
	ctx := context.Background()
	_ = e.build(ctx)

	e.handle(ctx, dom.EntryClick{HeadingID: "c"})
	if frag, pushes := m.Fragment(); frag != "c" || pushes != 1 {
		t.Errorf("fragment: got %q x%d", frag, pushes)
	}

	m.Remove("a")
	e.handle(ctx, dom.EntryClick{HeadingID: "a"})
	if frag, pushes := m.Fragment(); frag != "c" || pushes != 1 {
		t.Errorf("stale click changed fragment: got %q x%d", frag, pushes)
	}
}

func TestEngine_DragNotPersisted(t *testing.T) {
	store := prefs.NewMemory()
	e, m := newTestEngine(t, article, store)
	ctx := context.Background()
	_ = e.build(ctx)

	e.handle(ctx, dom.PointerDown{X: 25, Y: 25})
	e.handle(ctx, dom.PointerMove{X: 305, Y: 205})
	e.handle(ctx, dom.PointerUp{})
	if x, y, ok := m.Pinned(); !ok || x != 300 || y != 200 {
		t.Errorf("pinned: got (%v, %v, %v), want (300, 200)", x, y, ok)
	}
	if _, ok, _ := store.Get(ctx, prefs.KeyCorner); ok {
		t.Error("drag persisted a corner")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func fastTiming() TimingConfig {
	return TimingConfig{
		ScrollDebounce: 5 * time.Millisecond,
		HashSettle:     5 * time.Millisecond,
		InitialSeed:    5 * time.Millisecond,
		RebuildSettle:  10 * time.Millisecond,
	}
}

func startEngine(t *testing.T, src string) (*Engine, *dom.Memory, context.CancelFunc, <-chan error) {
	t.Helper()
	m, err := dom.ParseMemory(src)
	if err != nil {
		t.Fatal(err)
	}
	e := New(Options{Page: m, Timing: fastTiming(), IDs: idgen.Prefixed("toc_", idgen.Sequence())})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	t.Cleanup(cancel)
	waitFor(t, "overlay", func() bool { return e.State().Live })
	return e, m, cancel, errc
}

func TestEngine_Run(t *testing.T) {
	e, m, cancel, errc := startEngine(t, article)
	ctx := context.Background()

	// Seed timer picks an active entry without any scroll.
	waitFor(t, "seeded active entry", func() bool { return e.State().Active == 0 })

	m.Emit(dom.Mutations{Batch: m.InsertHeadings(dom.Node{Tag: "h2", ID: "d", Text: "Delta"})})
	waitFor(t, "rebuild", func() bool {
		s := e.State()
		return s.Builds == 2 && s.Live && len(s.Entries) == 4
	})
	if m.OverlayCount() != 1 {
		t.Errorf("overlay count: got %d, want 1", m.OverlayCount())
	}

	ok, err := e.Navigate(ctx, "c")
	if err != nil || !ok {
		t.Fatalf("Navigate: ok=%v err=%v", ok, err)
	}
	waitFor(t, "active follows navigation", func() bool { return e.State().Active == 2 })

	corner, err := e.CycleCorner(ctx)
	if err != nil || corner != prefs.TopRight {
		t.Errorf("CycleCorner: got %s, %v", corner, err)
	}
	collapsed, err := e.ToggleCollapse(ctx)
	if err != nil || !collapsed {
		t.Errorf("ToggleCollapse: got %v, %v", collapsed, err)
	}
	if s := e.State(); s.Placement.Corner != prefs.TopRight || !s.Placement.Collapsed {
		t.Errorf("placement: got %+v", s.Placement)
	}

	if err := e.Run(ctx); !errors.Is(err, ErrRunning) {
		t.Errorf("second Run: got %v, want ErrRunning", err)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run: %v", err)
	}
	if m.OverlayCount() != 0 {
		t.Errorf("overlay left attached after Run: %d", m.OverlayCount())
	}
	if _, err := e.CycleCorner(ctx); !errors.Is(err, ErrStopped) {
		t.Errorf("CycleCorner after stop: got %v, want ErrStopped", err)
	}
}

func TestOutline(t *testing.T) {
	m, err := dom.ParseMemory(article)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Outline(context.Background(), m, "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Live || s.Active != -1 || s.Title != "Contents" {
		t.Errorf("state: got live=%v active=%d title=%q", s.Live, s.Active, s.Title)
	}
	if len(s.Entries) != 3 || s.Entries[1].HeadingID != "b" || s.Entries[1].Level != 1 {
		t.Fatalf("entries: got %+v", s.Entries)
	}
	if m.OverlayCount() != 0 {
		t.Errorf("overlay count: got %d, want 0", m.OverlayCount())
	}
	md, err := s.Markdown()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "[Beta](#b)") {
		t.Errorf("markdown: got %q", md)
	}
}
