package heading

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
)

type staticSource struct {
	nodes []dom.Node
	err   error
}

func (s staticSource) Headings(context.Context) ([]dom.Node, error) { return s.nodes, s.err }

func TestQualifies(t *testing.T) {
	cases := []struct {
		tag, id string
		want    bool
	}{
		{"h1", "a", true},
		{"H6", "a", true},
		{"h2", "", false},
		{"h7", "a", false},
		{"h0", "a", false},
		{"header", "a", false},
		{"p", "a", false},
		{"", "a", false},
	}
	for _, tc := range cases {
		if got := Qualifies(tc.tag, tc.id); got != tc.want {
			t.Errorf("Qualifies(%q, %q): got %v, want %v", tc.tag, tc.id, got, tc.want)
		}
	}
}

func TestBuild_PreservesDocumentOrder(t *testing.T) {
	src := staticSource{nodes: []dom.Node{
		{Tag: "h2", ID: "a", Text: "Alpha"},
		{Tag: "h1", ID: "b", Text: " Beta "},
		{Tag: "h3", ID: "c", Text: "Gamma"},
	}}

	ix, err := Build(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	got := ix.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs: got %v, want %v", got, want)
		}
	}
	if r := ix.At(1); r.Level != 1 || r.Text != "Beta" {
		t.Errorf("At(1): got %+v", r)
	}
}

func TestBuild_SkipsNonQualifying(t *testing.T) {
	src := staticSource{nodes: []dom.Node{
		{Tag: "h2", ID: "", Text: "no id"},
		{Tag: "div", ID: "x", Text: "not a heading"},
	}}
	ix, err := Build(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if !ix.Empty() {
		t.Errorf("Len: got %d, want 0", ix.Len())
	}
}

func TestBuild_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(context.Background(), staticSource{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
}

func TestIndexLookupDuplicate(t *testing.T) {
	ix := NewIndex([]Record{{ID: "x", Text: "first"}, {ID: "y"}, {ID: "x", Text: "second"}})
	i, ok := ix.Lookup("x")
	if !ok || i != 0 {
		t.Errorf("Lookup(x): got %d,%v, want 0,true", i, ok)
	}
	if _, ok := ix.Lookup("z"); ok {
		t.Error("Lookup(z): got found")
	}
}

func TestIndexSetText(t *testing.T) {
	ix := NewIndex([]Record{{ID: "x", Text: "Hello"}})
	if ix.SetText(0, "Hello") {
		t.Error("SetText same text: got changed")
	}
	if !ix.SetText(0, "Bonjour") {
		t.Error("SetText new text: got unchanged")
	}
	if ix.SetText(3, "x") {
		t.Error("SetText out of range: got changed")
	}
	if ix.At(0).Text != "Bonjour" {
		t.Errorf("Text: got %q", ix.At(0).Text)
	}
}
