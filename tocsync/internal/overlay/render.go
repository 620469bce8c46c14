package overlay

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

// Control glyphs of the collapse toggle.
const (
	GlyphExpanded  = "−"
	GlyphCollapsed = "+"
	glyphPosition  = "⌖"
)

// DefaultTitle is the header title when none is configured.
const DefaultTitle = "Contents"

// RenderInput is the data rendered into the overlay fragment.
type RenderInput struct {
	ID         string
	InstanceID string
	Title      string
	Corner     prefs.Corner
	Collapsed  bool
	Entries    []dom.ViewEntry
}

// Glyph returns the collapse control glyph for collapsed.
func Glyph(collapsed bool) string {
	if collapsed {
		return GlyphCollapsed
	}
	return GlyphExpanded
}

var fragmentTmpl = template.Must(template.New("overlay").Funcs(template.FuncMap{
	"glyph": Glyph,
}).Parse(`<div id="{{.ID}}" class="pagetoc-container pos-{{.Corner}}{{if .Collapsed}} collapsed{{end}}" data-instance="{{.InstanceID}}">` +
	`<div class="pagetoc-header">` +
	`<span class="pagetoc-title">{{.Title}}</span>` +
	`<div class="pagetoc-controls">` +
	`<button type="button" class="pagetoc-position" title="Change position">` + glyphPosition + `</button>` +
	`<button type="button" class="pagetoc-toggle" title="Collapse or expand">{{glyph .Collapsed}}</button>` +
	`</div></div>` +
	`<div class="pagetoc-content"{{if .Collapsed}} data-hidden="true"{{end}}><ul class="pagetoc-list">` +
	`{{range .Entries}}<li><a class="pagetoc-link pagetoc-h{{.Level}}" href="#{{.HeadingID}}" data-heading-id="{{.HeadingID}}">{{.Text}}</a></li>{{end}}` +
	`</ul></div></div>`))

// policy admits exactly the markup the fragment template produces. Heading
// text comes from arbitrary third-party pages, so the fragment is filtered
// once more before it is handed to the page.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "span", "button", "ul", "li", "a")
	p.AllowAttrs("id", "class").Globally()
	p.AllowAttrs("type", "title").OnElements("button")
	p.AllowAttrs("href").OnElements("a")
	p.AllowDataAttributes()
	p.AllowRelativeURLs(true)
	return p
}()

// Render produces the sanitized overlay fragment.
func Render(in RenderInput) (string, error) {
	if in.Title == "" {
		in.Title = DefaultTitle
	}
	var buf bytes.Buffer
	if err := fragmentTmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("overlay: render: %w", err)
	}
	return Sanitize(buf.String()), nil
}

// Sanitize filters markup through the overlay policy.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}
