package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Comcast/tale/config"
	"github.com/Comcast/tale/engine"
	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/storage"
	. "github.com/Comcast/tale/util/testutil"
)

func testEngine(t *testing.T, out *bytes.Buffer) *engine.Engine {
	cfg = config.Default()
	logger = logs.Discard()

	e, err := newEngine(context.Background(), StoryOf(t, "Start", "Hello.\n[[Onward|Next]]", "Next", "Done."), storage.NewMemorySessions(), nil, "test",
		func(ctx context.Context, p *engine.Page) error {
			return printPage(out, p)
		})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestPlayLoop(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(t, &out)

	if !strings.Contains(out.String(), "  1. Onward\n") {
		t.Fatal(out.String())
	}

	in := strings.NewReader("1\nb\nf\nf\nh\nwhat\nq\nnever\n")
	if err := playLoop(context.Background(), e, in, &out); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{
		"== Next ==\n\nDone.",
		"(nowhere to go)",
		"  1 Start\n  2 Next\n",
		`(what's "what"?)`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in\n%s", want, got)
		}
	}
	if n := strings.Count(got, "== Start =="); n != 2 {
		t.Fatalf("start shown %d times", n)
	}
}

func TestServeOps(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(t, &out)
	s := &server{story: e.Story, sessions: storage.NewMemorySessions()}
	ctx := context.Background()

	if _, _, err := s.do(ctx, e, "test", &Op{Op: "follow", Action: 0}); err != nil {
		t.Fatal(err)
	}
	if e.Page().Title != "Next" {
		t.Fatal(e.Page().Title)
	}

	reply, _, err := s.do(ctx, e, "test", &Op{Op: "save"})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != "state" || reply.State == nil {
		t.Fatalf("%#v", reply)
	}

	if _, _, err = s.do(ctx, e, "test", &Op{Op: "forward"}); err == nil {
		t.Fatal("should not be able to go forward")
	}
	if _, _, err = s.do(ctx, e, "test", &Op{Op: "back"}); err != nil {
		t.Fatal(err)
	}
	if e.Page().Title != "Start" {
		t.Fatal(e.Page().Title)
	}

	if _, _, err = s.do(ctx, e, "test", &Op{Op: "load", State: reply.State}); err != nil {
		t.Fatal(err)
	}
	if e.Page().Title != "Next" {
		t.Fatal(e.Page().Title)
	}

	if _, _, err = s.do(ctx, e, "test", &Op{Op: "load"}); err == nil {
		t.Fatal("load without a state")
	}
	if _, _, err = s.do(ctx, e, "test", &Op{Op: "dance"}); err == nil {
		t.Fatal("unknown op")
	}
	if _, done, err := s.do(ctx, e, "test", &Op{Op: "end"}); err != nil || !done {
		t.Fatal(done, err)
	}
}

func TestTerminalText(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(t, &out)
	if got := strings.TrimSpace(terminalText(e.Page().Node)); !strings.HasPrefix(got, "Hello.\nOnward") {
		t.Fatalf("%q", got)
	}
}
