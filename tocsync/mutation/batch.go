// Package mutation defines the change feed the page reports to the engine.
// A Batch is what a single MutationObserver callback delivered: every record
// in it was observed together, and reconciliation decisions are taken per
// batch.
package mutation

// Op is the type of DOM mutation observed.
type Op string

const (
	OpInsert Op = "insert" // childList addition
	OpRemove Op = "remove" // childList removal
	OpText   Op = "text"   // characterData change
)

// Node types as reported by the DOM.
const (
	NodeElement = 1
	NodeText    = 3
)

// Record is a single DOM mutation.
type Record struct {
	Op       Op     `json:"op"`
	NodeType int    `json:"node_type,omitempty"`
	Tag      string `json:"tag,omitempty"` // lower-case tag name for elements
	ID       string `json:"id,omitempty"`  // id attribute of an element node
	Value    string `json:"value,omitempty"`
	OldValue string `json:"old_value,omitempty"`
}

// IsElement reports whether the record concerns an element node.
func (r Record) IsElement() bool { return r.NodeType == NodeElement }

// Batch is the atomic unit of observation.
type Batch struct {
	ID        string   `json:"id"`
	Seq       uint64   `json:"seq"` // monotonically increasing per page
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
}

// Inserted returns the element insertions in the batch, in observation order.
func (b Batch) Inserted() []Record {
	var out []Record
	for _, r := range b.Records {
		if r.Op == OpInsert && r.IsElement() {
			out = append(out, r)
		}
	}
	return out
}
