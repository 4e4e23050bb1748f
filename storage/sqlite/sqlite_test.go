package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s, err := New(filepath.Join(t.TempDir(), "tale.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	a, _ := s.Session(ctx, "a")
	b, _ := s.Session(ctx, "b")

	if err := a.Set(ctx, "state", []interface{}{"x", 1}); err != nil {
		t.Fatal(err)
	}
	// Overwrite.
	if err := a.Set(ctx, "state", []interface{}{"y", 2}); err != nil {
		t.Fatal(err)
	}

	var got []interface{}
	have, err := a.Get(ctx, "state", &got)
	if err != nil || !have {
		t.Fatal(have, err)
	}
	if len(got) != 2 || got[0] != "y" || got[1] != 2.0 {
		t.Fatalf("%#v", got)
	}

	if have, _ := b.Has(ctx, "state"); have {
		t.Fatal("sessions share keys")
	}

	if err := s.RemSession(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if have, err := a.Has(ctx, "state"); err != nil || have {
		t.Fatal(have, err)
	}
}
