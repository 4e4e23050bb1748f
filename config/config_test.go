package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.History.MaxStates != 150 {
		t.Fatalf("didn't want %d", c.History.MaxStates)
	}
	if !c.IfAssignmentError {
		t.Fatal("wanted ifAssignmentError by default")
	}
	if c.MaxLoopIterations != 1000 {
		t.Fatalf("didn't want %d", c.MaxLoopIterations)
	}
	if c.Session.Backend != Memory {
		t.Fatalf("didn't want %q", c.Session.Backend)
	}
	if c.Evaluator != "goja" {
		t.Fatalf("didn't want %q", c.Evaluator)
	}
}

func TestParse(t *testing.T) {
	src := `
start: Cellar
nobr: true
ifAssignmentError: false
history:
  maxStates: -3
prng:
  enabled: true
  seed: tacos
session:
  backend: bolt
  path: /tmp/tale.db
`
	c, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if c.Start != "Cellar" || !c.Nobr || c.IfAssignmentError {
		t.Fatalf("didn't want %#v", c)
	}
	if c.History.MaxStates != 0 {
		t.Fatalf("wanted a clamped maxStates, not %d", c.History.MaxStates)
	}
	if !c.PRNG.Enabled || c.PRNG.Seed != "tacos" {
		t.Fatalf("didn't want %#v", c.PRNG)
	}
	if c.MaxLoopIterations != 1000 {
		t.Fatalf("lost default: %d", c.MaxLoopIterations)
	}
}

func TestParseBad(t *testing.T) {
	for _, src := range []string{
		"session:\n  backend: floppy\n",
		"session:\n  backend: sqlite\n",
		"mqtt:\n  broker: tcp://localhost:1883\n  topic: \"\"\n",
	} {
		_, err := Parse([]byte(src))
		var bad *BadSetting
		if !errors.As(err, &bad) {
			t.Fatalf("%q: surprised by %v", src, err)
		}
	}

	if _, err := Parse([]byte("likes: tacos\n")); err == nil {
		t.Fatal("didn't protest about an unknown field")
	}
}

func TestLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tale.yaml")
	if err := os.WriteFile(filename, []byte("debug: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Debug {
		t.Fatal("lost debug")
	}

	if _, err = Load(filename + ".nope"); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := Default()
	c.Start = "Attic"
	bs, err := c.YAML()
	if err != nil {
		t.Fatal(err)
	}
	d, err := Parse(bs)
	if err != nil {
		t.Fatal(err)
	}
	if d.Start != "Attic" || d.History.MaxStates != 150 {
		t.Fatalf("didn't want %#v", d)
	}
}
