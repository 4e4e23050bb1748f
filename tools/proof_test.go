package tools

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderProofHTML(t *testing.T) {
	out := bytes.NewBuffer(make([]byte, 0, 1024*16))
	if err := RenderProofPage(cellar(t), out, []string{"proof.css"}); err != nil {
		t.Fatal(err)
	}
	page := out.String()

	for _, want := range []string{
		"<title>The Cellar</title>",
		`<link href="proof.css" rel="stylesheet">`,
		"<em>short</em>",
		"<strong>wine</strong>",
		`<span id="passage-cellar" class="passageName">Cellar</span>`,
		`<span class="tag">dark</span>`,
		`&lt;&lt;set $gold to 5&gt;&gt;`,
		`<a href="#passage-attic"><code>Attic</code></a>`,
		`<code class="broken">Vault</code>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("missing %q in\n%s", want, page)
		}
	}

	// The start passage comes first.
	if strings.Index(page, `id="passage-start"`) > strings.Index(page, `id="passage-storyinit"`) {
		t.Fatal("start isn't first")
	}
}

func TestReadAndRenderProofPage(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "cellar.yaml")
	if err := os.WriteFile(filename, []byte(cellarYAML), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := ReadAndRenderProofPage(filename, nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "/static/proof.css") {
		t.Fatal(out.String())
	}
}
