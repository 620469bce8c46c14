// CLAUDE:SUMMARY Static in-process Page backed by an x/net/html tree with synthetic layout, used for offline outlines and tests.
package dom

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/pagetoc/tocsync/mutation"
)

// Memory is a Page over a parsed HTML document. Layout is synthetic: the
// n-th qualifying heading sits LineHeight*n pixels from the top of the
// page unless an explicit offset was set, and the viewport is scrolled by
// ScrollY. The overlay is not inserted into the tree; its state is kept
// beside it.
type Memory struct {
	mu sync.Mutex

	doc  *html.Node
	body *html.Node

	// LineHeight is the synthetic distance between consecutive headings.
	LineHeight float64
	// VisibleEntries is how many overlay entries fit in the list before it
	// scrolls.
	VisibleEntries int

	viewportW, viewportH float64
	overlayW, overlayH   float64
	scrollY              float64
	offsets              map[string]float64

	views      []View
	labels     []string
	active     int
	listScroll int
	corner     string
	collapsed  bool
	pinned     *[2]float64

	fragment string
	pushes   int
	seq      uint64

	events chan Event
}

// NewMemory parses an HTML document.
func NewMemory(r io.Reader) (*Memory, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	m := &Memory{
		doc:            doc,
		LineHeight:     200,
		VisibleEntries: 10,
		viewportW:      1280,
		viewportH:      800,
		overlayW:       280,
		overlayH:       400,
		offsets:        make(map[string]float64),
		active:         -1,
		events:         make(chan Event, 256),
	}
	m.body = findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if m.body == nil {
		m.body = doc
	}
	return m, nil
}

// ParseMemory is NewMemory over a string.
func ParseMemory(src string) (*Memory, error) {
	return NewMemory(strings.NewReader(src))
}

// --- test and CLI controls ---

// SetViewport sets the viewport size.
func (m *Memory) SetViewport(w, h float64) {
	m.mu.Lock()
	m.viewportW, m.viewportH = w, h
	m.mu.Unlock()
}

// SetOverlaySize sets the rendered overlay box size.
func (m *Memory) SetOverlaySize(w, h float64) {
	m.mu.Lock()
	m.overlayW, m.overlayH = w, h
	m.mu.Unlock()
}

// SetOffset pins the page offset of the element with id, overriding the
// synthetic layout.
func (m *Memory) SetOffset(id string, y float64) {
	m.mu.Lock()
	m.offsets[id] = y
	m.mu.Unlock()
}

// ScrollTo scrolls the viewport to page offset y.
func (m *Memory) ScrollTo(y float64) {
	m.mu.Lock()
	m.scrollY = y
	m.mu.Unlock()
}

// ScrollY returns the current viewport scroll offset.
func (m *Memory) ScrollY() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scrollY
}

// Emit queues an event for Events consumers. Events are dropped when the
// queue is full.
func (m *Memory) Emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// InsertHeadings appends headings to the body and returns the batch a
// MutationObserver would have reported.
func (m *Memory) InsertHeadings(nodes ...Node) mutation.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	var recs []mutation.Record
	for _, n := range nodes {
		tag := strings.ToLower(n.Tag)
		el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
		if n.ID != "" {
			el.Attr = []html.Attribute{{Key: "id", Val: n.ID}}
		}
		el.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text})
		m.body.AppendChild(el)
		recs = append(recs, mutation.Record{
			Op: mutation.OpInsert, NodeType: mutation.NodeElement, Tag: tag, ID: n.ID,
		})
	}
	return m.batchLocked(recs)
}

// InsertElement appends a non-heading element, as third-party widgets do.
func (m *Memory) InsertElement(tag, text string) mutation.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	m.body.AppendChild(el)
	return m.batchLocked([]mutation.Record{{Op: mutation.OpInsert, NodeType: mutation.NodeElement, Tag: tag}})
}

// SetText replaces the text content of the element with id in place, the
// way page translators rewrite character data.
func (m *Memory) SetText(id, text string) (mutation.Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el := m.byIDLocked(id)
	if el == nil {
		return mutation.Batch{}, false
	}
	old := strings.TrimSpace(textContent(el))
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return m.batchLocked([]mutation.Record{{
		Op: mutation.OpText, NodeType: mutation.NodeText, Value: text, OldValue: old,
	}}), true
}

// Remove detaches the element with id from the tree.
func (m *Memory) Remove(id string) (mutation.Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el := m.byIDLocked(id)
	if el == nil || el.Parent == nil {
		return mutation.Batch{}, false
	}
	el.Parent.RemoveChild(el)
	return m.batchLocked([]mutation.Record{{
		Op: mutation.OpRemove, NodeType: mutation.NodeElement, Tag: el.Data, ID: id,
	}}), true
}

func (m *Memory) batchLocked(recs []mutation.Record) mutation.Batch {
	m.seq++
	return mutation.Batch{
		ID:        fmt.Sprintf("mem-%d", m.seq),
		Seq:       m.seq,
		Records:   recs,
		Timestamp: time.Now().UnixMilli(),
	}
}

// --- overlay inspection ---

// OverlayCount returns how many overlay instances are attached.
func (m *Memory) OverlayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Overlay returns the attached overlay view.
func (m *Memory) Overlay() (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.views) == 0 {
		return View{}, false
	}
	return m.views[len(m.views)-1], true
}

// Labels returns the overlay entry labels as currently displayed.
func (m *Memory) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.labels...)
}

// ActiveEntry returns the index of the entry marked active, or -1.
func (m *Memory) ActiveEntry() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ListScroll returns the first visible entry of the overlay list.
func (m *Memory) ListScroll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listScroll
}

// Corner returns the applied overlay corner.
func (m *Memory) Corner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.corner
}

// Collapsed reports whether the overlay list is hidden.
func (m *Memory) Collapsed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collapsed
}

// Pinned returns the pixel placement of the overlay, if any.
func (m *Memory) Pinned() (x, y float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pinned == nil {
		return 0, 0, false
	}
	return m.pinned[0], m.pinned[1], true
}

// Fragment returns the current address fragment and how many history
// states were pushed.
func (m *Memory) Fragment() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fragment, m.pushes
}

// --- Document ---

func (m *Memory) Headings(_ context.Context) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Node
	for _, el := range m.headingsLocked() {
		out = append(out, Node{
			Tag:  el.Data,
			ID:   attr(el, "id"),
			Text: strings.TrimSpace(textContent(el)),
		})
	}
	return out, nil
}

func (m *Memory) HeadingText(_ context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el := m.byIDLocked(id)
	if el == nil {
		return "", false, nil
	}
	return strings.TrimSpace(textContent(el)), true, nil
}

func (m *Memory) Positions(_ context.Context, ids []string) ([]Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	layout := m.layoutLocked()
	out := make([]Position, len(ids))
	for i, id := range ids {
		if y, ok := layout[id]; ok {
			out[i] = Position{Top: y - m.scrollY, Found: true}
		}
	}
	return out, nil
}

func (m *Memory) ScrollIntoView(_ context.Context, id string, align Align) (bool, error) {
	m.mu.Lock()
	y, ok := m.layoutLocked()[id]
	if ok {
		if align == AlignCenter {
			y -= m.viewportH / 2
		}
		m.scrollY = y
	}
	m.mu.Unlock()
	if ok {
		m.Emit(Scroll{})
	}
	return ok, nil
}

func (m *Memory) PushFragment(_ context.Context, id string) error {
	m.mu.Lock()
	m.fragment = id
	m.pushes++
	m.mu.Unlock()
	return nil
}

// --- Surface ---

func (m *Memory) OverlayPresent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.views {
		if v.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Attach(_ context.Context, v View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, v)
	m.labels = m.labels[:0]
	for _, e := range v.Entries {
		m.labels = append(m.labels, e.Text)
	}
	m.active = -1
	m.listScroll = 0
	m.corner = v.Corner
	m.collapsed = v.Collapsed
	m.pinned = nil
	return nil
}

func (m *Memory) Detach(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.views[:0]
	for _, v := range m.views {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	m.views = kept
	if len(m.views) == 0 {
		m.labels = nil
		m.active = -1
	}
	return nil
}

func (m *Memory) SetLabel(_ context.Context, index int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.labels) {
		return fmt.Errorf("dom: entry %d out of range", index)
	}
	m.labels[index] = text
	return nil
}

func (m *Memory) SetActive(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= len(m.labels) {
		return fmt.Errorf("dom: entry %d out of range", index)
	}
	if index < 0 {
		index = -1
	}
	m.active = index
	return nil
}

func (m *Memory) EntryClipped(_ context.Context, index int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collapsed {
		return false, nil
	}
	return index < m.listScroll || index >= m.listScroll+m.VisibleEntries, nil
}

func (m *Memory) ScrollEntryIntoView(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listScroll = max(0, index-m.VisibleEntries/2)
	return nil
}

func (m *Memory) SetCorner(_ context.Context, corner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.views) == 0 {
		return ErrMissingControl
	}
	m.corner = corner
	m.pinned = nil
	return nil
}

func (m *Memory) SetCollapsed(_ context.Context, collapsed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.views) == 0 {
		return ErrMissingControl
	}
	m.collapsed = collapsed
	return nil
}

func (m *Memory) MoveTo(_ context.Context, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = &[2]float64{x, y}
	return nil
}

func (m *Memory) Geometry(_ context.Context) (Geometry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := Geometry{
		ViewportWidth:  m.viewportW,
		ViewportHeight: m.viewportH,
		Width:          m.overlayW,
		Height:         m.overlayH,
	}
	if m.pinned != nil {
		g.Left, g.Top = m.pinned[0], m.pinned[1]
		return g, nil
	}
	const margin = 20
	switch m.corner {
	case "top-right":
		g.Left, g.Top = m.viewportW-m.overlayW-margin, margin
	case "bottom-right":
		g.Left, g.Top = m.viewportW-m.overlayW-margin, m.viewportH-m.overlayH-margin
	case "bottom-left":
		g.Left, g.Top = margin, m.viewportH-m.overlayH-margin
	default:
		g.Left, g.Top = margin, margin
	}
	return g, nil
}

func (m *Memory) Events() <-chan Event { return m.events }

// --- tree helpers ---

func (m *Memory) headingsLocked() []*html.Node {
	var out []*html.Node
	walk(m.doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if attr(n, "id") != "" {
				out = append(out, n)
			}
		}
	})
	return out
}

// layoutLocked maps element id to page offset. The first element carrying
// an id wins, like getElementById.
func (m *Memory) layoutLocked() map[string]float64 {
	layout := make(map[string]float64)
	for i, el := range m.headingsLocked() {
		id := attr(el, "id")
		if _, dup := layout[id]; dup {
			continue
		}
		layout[id] = float64(i) * m.LineHeight
	}
	for id, y := range m.offsets {
		if m.byIDLocked(id) != nil {
			layout[id] = y
		}
	}
	return layout
}

func (m *Memory) byIDLocked(id string) *html.Node {
	if id == "" {
		return nil
	}
	return findFirst(m.doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}
