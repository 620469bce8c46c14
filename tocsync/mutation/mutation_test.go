package mutation

import (
	"strings"
	"testing"
)

func TestUnmarshalBatch(t *testing.T) {
	data := []byte(`{"id":"b1","seq":7,"timestamp":1708700000000,"records":[
		{"op":"insert","node_type":1,"tag":"h2","id":"intro"},
		{"op":"text","node_type":3,"value":"Einleitung","old_value":"Introduction"},
		{"op":"remove","node_type":3}
	]}`)

	got, err := UnmarshalBatch(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 7 {
		t.Errorf("Seq: got %d, want 7", got.Seq)
	}
	if len(got.Records) != 3 {
		t.Fatalf("Records: got %d, want 3", len(got.Records))
	}
	if got.Records[0].ID != "intro" || got.Records[0].Tag != "h2" {
		t.Errorf("Record[0]: got %+v", got.Records[0])
	}
}

func TestUnmarshalBatch_UnknownOp(t *testing.T) {
	_, err := UnmarshalBatch([]byte(`{"records":[{"op":"attr"}]}`))
	if err == nil || !strings.Contains(err.Error(), "unknown op") {
		t.Fatalf("got %v, want unknown op error", err)
	}
}

func TestBatchInserted(t *testing.T) {
	b := Batch{Records: []Record{
		{Op: OpInsert, NodeType: NodeElement, Tag: "h2", ID: "a"},
		{Op: OpInsert, NodeType: NodeText, Value: "x"},
		{Op: OpRemove, NodeType: NodeElement, Tag: "p"},
		{Op: OpInsert, NodeType: NodeElement, Tag: "p"},
	}}
	got := b.Inserted()
	if len(got) != 2 {
		t.Fatalf("Inserted: got %d, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].Tag != "p" {
		t.Errorf("Inserted: got %+v", got)
	}
}
