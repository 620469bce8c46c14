package mutation

import (
	"encoding/json"
	"fmt"
)

// MarshalBatch serialises a Batch to JSON.
func MarshalBatch(b *Batch) ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBatch deserialises a Batch from JSON. Records with an unknown
// op are rejected so a newer page script cannot silently feed the
// reconciler records it does not understand.
func UnmarshalBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	for i, r := range b.Records {
		switch r.Op {
		case OpInsert, OpRemove, OpText:
		default:
			return nil, fmt.Errorf("mutation: record %d: unknown op %q", i, r.Op)
		}
	}
	return &b, nil
}
