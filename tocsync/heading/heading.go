// Package heading builds the heading snapshot a TOC instance is derived
// from. A snapshot is immutable in structure: entries and their order are
// fixed at build time and only the display text follows the live page.
package heading

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
)

// Record is one heading of the snapshot. The source element is reached
// through its ID only, resolved against the live document at use time.
type Record struct {
	ID    string `json:"id"`
	Level int    `json:"level"` // 1..6
	Text  string `json:"text"`
}

// LevelOf returns the heading level of tag (h1..h6, any case).
func LevelOf(tag string) (int, bool) {
	if len(tag) != 2 || (tag[0] != 'h' && tag[0] != 'H') {
		return 0, false
	}
	if tag[1] < '1' || tag[1] > '6' {
		return 0, false
	}
	return int(tag[1] - '0'), true
}

// Qualifies reports whether an element with this tag and id attribute is
// indexed: h1..h6 carrying a non-empty identifier.
func Qualifies(tag, id string) bool {
	if id == "" {
		return false
	}
	_, ok := LevelOf(tag)
	return ok
}

// Source is anything that can list headings in document order.
type Source interface {
	Headings(ctx context.Context) ([]dom.Node, error)
}

// Build scans src and returns a fresh snapshot. An empty snapshot is not
// an error; callers decide what to do with it.
func Build(ctx context.Context, src Source) (*Index, error) {
	nodes, err := src.Headings(ctx)
	if err != nil {
		return nil, fmt.Errorf("heading: scan: %w", err)
	}
	ix := &Index{records: make([]Record, 0, len(nodes))}
	for _, n := range nodes {
		if !Qualifies(n.Tag, n.ID) {
			continue
		}
		level, _ := LevelOf(n.Tag)
		ix.records = append(ix.records, Record{
			ID:    n.ID,
			Level: level,
			Text:  strings.TrimSpace(n.Text),
		})
	}
	return ix, nil
}
