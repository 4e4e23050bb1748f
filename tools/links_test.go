package tools

import (
	"reflect"
	"testing"

	"github.com/Comcast/tale/story"
)

func TestSplitLink(t *testing.T) {
	for in, want := range map[string][2]string{
		"Attic":                      {"Attic", ""},
		"Go down|Cellar":             {"Cellar", ""},
		"Go down->Cellar":            {"Cellar", ""},
		"Cellar<-Go down":            {"Cellar", ""},
		"~Cellar":                    {"Cellar", ""},
		"Go|Cellar][$gold to 1":      {"Cellar", "$gold to 1"},
		"Home|https://example.com/x": {"", ""},
	} {
		to, setter := splitLink(in)
		if to != want[0] || setter != want[1] {
			t.Fatalf("%q: got (%q, %q), wanted %v", in, to, setter, want)
		}
	}
}

func TestRefs(t *testing.T) {
	p := &story.Passage{
		Title: "Start",
		Text:  `[[Go down|Cellar][$gold to $gold - 1]] [[Attic]] <<goto "Vault">> <<display 'Note'>> <<goto $x>>`,
	}
	want := []Ref{
		{From: "Start", To: "Cellar", Kind: "link", Setter: "$gold to $gold - 1"},
		{From: "Start", To: "Attic", Kind: "link"},
		{From: "Start", To: "Vault", Kind: "goto"},
		{From: "Start", To: "Note", Kind: "display"},
	}
	if got := Refs(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}

func TestAllRefs(t *testing.T) {
	refs := AllRefs(cellar(t))
	if len(refs) != 5 {
		t.Fatalf("got %d refs: %#v", len(refs), refs)
	}
	if refs[0].From != "Cellar" || refs[0].To != "Note" {
		t.Fatalf("unexpected first ref %#v", refs[0])
	}
}
