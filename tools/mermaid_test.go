package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMermaid(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "g.mermaid")

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	if err := Mermaid(cellar(t), out, nil); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	m := string(bs)

	for _, want := range []string{
		"graph TB\n",
		`n1["StoryInit"]`,
		"style n1 fill:#bcf2db",
		`n2("Start")`,
		`n2 -- "<code>$gold to $gold - 1</code>" --> n3`,
		`n3 -.-> n5`,
		`>"Vault"]`,
	} {
		if !strings.Contains(m, want) {
			t.Fatalf("missing %q in\n%s", want, m)
		}
	}
}
