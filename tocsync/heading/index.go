package heading

// Index is a heading snapshot. It is owned by one overlay instance and is
// only mutated from the engine loop.
type Index struct {
	records []Record
}

// NewIndex wraps records as a snapshot, copying them.
func NewIndex(records []Record) *Index {
	return &Index{records: append([]Record(nil), records...)}
}

// Len returns the number of headings.
func (ix *Index) Len() int { return len(ix.records) }

// Empty reports whether the snapshot holds no heading.
func (ix *Index) Empty() bool { return len(ix.records) == 0 }

// At returns the i-th record.
func (ix *Index) At(i int) Record { return ix.records[i] }

// Records returns a copy of all records in document order.
func (ix *Index) Records() []Record {
	return append([]Record(nil), ix.records...)
}

// IDs returns the heading ids in document order.
func (ix *Index) IDs() []string {
	ids := make([]string, len(ix.records))
	for i, r := range ix.records {
		ids[i] = r.ID
	}
	return ids
}

// Lookup returns the position of the first record with id. Duplicate ids
// resolve to the first occurrence.
func (ix *Index) Lookup(id string) (int, bool) {
	for i, r := range ix.records {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}

// SetText updates the display text of record i and reports whether it
// changed.
func (ix *Index) SetText(i int, text string) bool {
	if i < 0 || i >= len(ix.records) || ix.records[i].Text == text {
		return false
	}
	ix.records[i].Text = text
	return true
}
