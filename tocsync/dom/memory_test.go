package dom

import (
	"context"
	"testing"

	"github.com/hazyhaar/pagetoc/tocsync/mutation"
)

const page = `<!doctype html><html><body>
<h1 id="top">  Title </h1>
<p>intro</p>
<h2>No id</h2>
<h2 id="">Empty id</h2>
<section><h3 id="deep">Deep <em>nested</em></h3></section>
<div id="plain">not a heading</div>
</body></html>`

func TestMemoryHeadings(t *testing.T) {
	m, err := ParseMemory(page)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Headings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Headings: got %d, want 2 (%+v)", len(got), got)
	}
	if got[0] != (Node{Tag: "h1", ID: "top", Text: "Title"}) {
		t.Errorf("Headings[0]: got %+v", got[0])
	}
	if got[1].ID != "deep" || got[1].Text != "Deep nested" {
		t.Errorf("Headings[1]: got %+v", got[1])
	}
}

func TestMemoryPositionsFollowScroll(t *testing.T) {
	m, _ := ParseMemory(page)
	ctx := context.Background()

	m.ScrollTo(150)
	pos, err := m.Positions(ctx, []string{"top", "deep", "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if pos[0] != (Position{Top: -150, Found: true}) {
		t.Errorf("top: got %+v", pos[0])
	}
	if pos[1] != (Position{Top: 50, Found: true}) {
		t.Errorf("deep: got %+v", pos[1])
	}
	if pos[2].Found {
		t.Errorf("gone: got %+v, want not found", pos[2])
	}
}

func TestMemoryScrollIntoView(t *testing.T) {
	m, _ := ParseMemory(page)
	ctx := context.Background()

	found, err := m.ScrollIntoView(ctx, "deep", AlignStart)
	if err != nil || !found {
		t.Fatalf("ScrollIntoView: found=%v err=%v", found, err)
	}
	if m.ScrollY() != 200 {
		t.Errorf("ScrollY: got %v, want 200", m.ScrollY())
	}

	found, _ = m.ScrollIntoView(ctx, "missing", AlignStart)
	if found {
		t.Error("ScrollIntoView(missing): got found")
	}
}

func TestMemorySetText(t *testing.T) {
	m, _ := ParseMemory(page)
	ctx := context.Background()

	b, ok := m.SetText("top", "Titel")
	if !ok {
		t.Fatal("SetText: not found")
	}
	if len(b.Records) != 1 || b.Records[0].Op != mutation.OpText {
		t.Errorf("batch: got %+v", b.Records)
	}
	text, _, _ := m.HeadingText(ctx, "top")
	if text != "Titel" {
		t.Errorf("HeadingText: got %q, want %q", text, "Titel")
	}
}

func TestMemoryInsertHeadings(t *testing.T) {
	m, _ := ParseMemory(page)
	b := m.InsertHeadings(Node{Tag: "H2", ID: "late", Text: "Late"})
	if len(b.Records) != 1 || b.Records[0].Tag != "h2" || b.Records[0].ID != "late" {
		t.Fatalf("batch: got %+v", b.Records)
	}
	hs, _ := m.Headings(context.Background())
	if len(hs) != 3 || hs[2].ID != "late" {
		t.Errorf("Headings: got %+v", hs)
	}
}

func TestMemoryOverlayLifecycle(t *testing.T) {
	m, _ := ParseMemory(page)
	ctx := context.Background()

	if err := m.SetCorner(ctx, "top-right"); err != ErrMissingControl {
		t.Errorf("SetCorner without overlay: got %v, want ErrMissingControl", err)
	}

	v := View{ID: "toc", Entries: []ViewEntry{{HeadingID: "top", Text: "Title"}}, Corner: "bottom-left"}
	if err := m.Attach(ctx, v); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.OverlayPresent(ctx, "toc"); !ok {
		t.Fatal("OverlayPresent: got false")
	}
	g, _ := m.Geometry(ctx)
	if g.Left != 20 || g.Top != 800-400-20 {
		t.Errorf("Geometry bottom-left: got %+v", g)
	}
	if err := m.Detach(ctx, "toc"); err != nil {
		t.Fatal(err)
	}
	if m.OverlayCount() != 0 {
		t.Errorf("OverlayCount: got %d, want 0", m.OverlayCount())
	}
}
