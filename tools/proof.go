package tools

import (
	"fmt"
	"io"

	"github.com/Comcast/tale/story"

	md "github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

// RenderProofHTML writes every passage of the story as HTML for
// proofreading.  Passage text appears as source, and references link
// to their targets within the document.
func RenderProofHTML(st *story.Story, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	if st.Doc != "" {
		f(`<div class="storyDoc doc">%s</div>`, md.Run([]byte(st.Doc)))
	}

	refs := make(map[string][]Ref)
	for _, r := range AllRefs(st) {
		refs[r.From] = append(refs[r.From], r)
	}

	fn := func(p *story.Passage) {
		f(`<tr class="passage"><td><span id="%s" class="passageName">%s</span>`,
			p.DomID(), html.EscapeString(p.Title))
		for _, t := range p.Tags {
			f(`<span class="tag">%s</span>`, html.EscapeString(t))
		}
		f(`</td><td>`)

		if p.Doc != "" {
			f(`<div class="passageDoc doc">%s</div>`, md.Run([]byte(p.Doc)))
		}
		f(`<div class="code"><pre>%s</pre></div>`, html.EscapeString(p.Text))

		if rs := refs[p.Title]; len(rs) > 0 {
			f(`<div class="refs"><table>`)
			for _, r := range rs {
				f(`<tr><td>%s</td><td>`, r.Kind)
				if st.Has(r.To) {
					f(`<a href="#passage-%s"><code>%s</code></a>`, story.Slugify(r.To), html.EscapeString(r.To))
				} else {
					f(`<code class="broken">%s</code>`, html.EscapeString(r.To))
				}
				if r.Setter != "" {
					f(`<code class="setter">%s</code>`, html.EscapeString(r.Setter))
				}
				f(`</td></tr>`)
			}
			f(`</table></div>`)
		}
		f(`</td></tr>`)
	}

	f(`<div class="passages"><table>`)
	start := st.Start
	if p := st.Get(start); p != nil {
		fn(p)
	}
	for _, p := range st.Passages() {
		if p.Title == start {
			continue
		}
		fn(p)
	}
	f(`</table></div>`)

	return nil
}

// RenderProofPage writes a complete HTML page around
// RenderProofHTML.
func RenderProofPage(st *story.Story, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/proof.css"}
	}

	title := html.EscapeString(st.Title)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderProofHTML(st, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderProofPage loads the story file and renders its proofing
// page.
func ReadAndRenderProofPage(filename string, cssFiles []string, out io.Writer) error {
	st, err := story.Load(filename)
	if err != nil {
		return err
	}
	return RenderProofPage(st, out, cssFiles)
}
