package tools

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Comcast/tale/story"
)

func TestAnalysis(t *testing.T) {
	a, err := Analyze(cellar(t), "")
	if err != nil {
		t.Fatal(err)
	}

	if a.Start != "Start" {
		t.Fatal(a.Start)
	}
	if a.OK() {
		t.Fatal("missing Vault should be an error")
	}
	if want := []BrokenRef{{From: "Cellar", To: "Vault", Kind: "goto"}}; !reflect.DeepEqual(a.Broken, want) {
		t.Fatalf("broken: %#v", a.Broken)
	}
	if a.PassageCount != 8 || a.Links != 3 || a.Setters != 1 || a.Gotos != 1 || a.Displays != 1 {
		t.Fatalf("counts: %#v", a)
	}
	if want := []string{"Lost"}; !reflect.DeepEqual(a.Orphans, want) {
		t.Fatalf("orphans: %#v", a.Orphans)
	}
	if want := []string{"Hidden"}; !reflect.DeepEqual(a.Unreachable, want) {
		t.Fatalf("unreachable: %#v", a.Unreachable)
	}
	if want := []string{"Attic", "Hidden", "Note"}; !reflect.DeepEqual(a.DeadEnds, want) {
		t.Fatalf("dead ends: %#v", a.DeadEnds)
	}
	if want := []string{"StoryInit"}; !reflect.DeepEqual(a.Special, want) {
		t.Fatalf("special: %#v", a.Special)
	}
	if want := []string{"hat"}; !reflect.DeepEqual(a.Widgets, want) {
		t.Fatalf("widgets: %#v", a.Widgets)
	}
	if want := []string{"cold", "dark", "widget"}; !reflect.DeepEqual(a.Tags, want) {
		t.Fatalf("tags: %#v", a.Tags)
	}

	report, err := a.YAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report, "to: Vault") {
		t.Fatal(report)
	}
}

func TestAnalysisMissingStart(t *testing.T) {
	st := story.New("empty")
	if err := st.Add(&story.Passage{Title: "Elsewhere", Text: "Hi."}); err != nil {
		t.Fatal(err)
	}
	a, err := Analyze(st, "Beginning")
	if err != nil {
		t.Fatal(err)
	}
	if a.OK() || !strings.Contains(a.Errors[0], `"Beginning"`) {
		t.Fatalf("%#v", a.Errors)
	}
	if a.Unreachable != nil {
		t.Fatal(a.Unreachable)
	}
}
