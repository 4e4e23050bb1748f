package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/tale/story"

	"gopkg.in/yaml.v2"
)

// DotOpts controls the graph that Dot writes.
type DotOpts struct {
	// Start is the first passage.  It's drawn in bold.
	Start string

	// Current, if not empty, is drawn in red, and so is the edge
	// from Previous to Current.
	Previous, Current string

	// Setters puts link setters on edge labels.
	Setters bool

	// Tags puts passage tags in node labels.
	Tags bool
}

var specialPassages = map[string]bool{
	story.StoryInit:     true,
	story.PassageReady:  true,
	story.PassageDone:   true,
	story.PassageHeader: true,
	story.PassageFooter: true,
}

// IsSpecial reports whether the passage is run by the engine rather
// than reached by the player.
func IsSpecial(p *story.Passage) bool {
	return specialPassages[p.Title] || p.HasTag("widget") || p.HasTag("script") || p.HasTag("Twine.image")
}

// Dot makes a Graphviz dot file for the given story.
//
// Passages reached only through runtime expressions show up as
// orphans.  Broken targets are drawn dashed and gray.
func Dot(st *story.Story, w io.WriteCloser, opts *DotOpts) error {
	if opts == nil {
		opts = &DotOpts{}
	}
	start := opts.Start
	if start == "" {
		start = st.Start
	}

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	ids := make(map[string]string)
	id := func(title string) string {
		if x, have := ids[title]; have {
			return x
		}
		x := fmt.Sprintf("p%d", len(ids))
		ids[title] = x
		return x
	}

	node := func(p *story.Passage) {
		label := escape(p.Title)
		if excerpt := story.Excerpt(p.Text); excerpt != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + escape(excerpt) + "</FONT>"
		}
		if opts.Tags && len(p.Tags) > 0 {
			bs, err := yaml.Marshal(p.Tags)
			if err != nil {
				bs = []byte(err.Error())
			}
			label += `<FONT POINT-SIZE="6"><BR/>` +
				strings.Replace(escape(string(bs)), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}

		var (
			color     = "black"
			fillcolor = "#99ddc8"
			shape     = "record"
			style     = "filled"
		)
		switch {
		case IsSpecial(p):
			shape = "note"
			fillcolor = "#52aa5e"
		case len(Refs(p)) == 0:
			style += ",dashed"
		}
		if p.Title == opts.Current {
			color = "red"
			fillcolor = "#f98b8b"
		}
		if p.Title == start {
			style += ",bold"
		}
		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			id(p.Title), shape, style, color, fillcolor, label)
	}

	for _, p := range st.Passages() {
		node(p)
	}

	broken := make(map[string]bool)
	for _, r := range AllRefs(st) {
		if !st.Has(r.To) && !broken[r.To] {
			broken[r.To] = true
			fmt.Fprintf(w, "  %s [style=\"dashed\", color=\"gray\", label=<%s> ]\n",
				id(r.To), escape(r.To))
		}

		label := ""
		if r.Kind != "link" {
			label = r.Kind
		}
		if opts.Setters && r.Setter != "" {
			if label != "" {
				label += `<BR ALIGN="LEFT"/>`
			}
			label += `<FONT POINT-SIZE="8">` + escape(r.Setter) + `</FONT>`
		}
		color := "black"
		if r.From == opts.Previous && r.To == opts.Current {
			color = "red"
		}
		fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" label = <%s> ]\n",
			id(r.From), id(r.To), color, label)
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(st *story.Story, basename string, opts *DotOpts) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(st, dotfile, opts); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-Gstart=1", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	return s
}
