/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/tale/story"
)

type MermaidOpts struct {
	// ShowSetters will label a link with its setter (if any).
	ShowSetters bool `json:"showSetters"`

	// SpecialFill is the fill color for special passages.  Does
	// not apply if SpecialClass is set.
	SpecialFill string `json:"specialFill,omitempty"`

	// SpecialClass will be the CSS class for special passages.
	SpecialClass string `json:"specialClass,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given story.
func Mermaid(st *story.Story, w io.WriteCloser, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowSetters: true,
			SpecialFill: "#bcf2db",
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	nids := make(map[string]string)

	node := func(title string) string {
		if nid, already := nids[title]; already {
			return nid
		}
		nid := fmt.Sprintf("n%d", len(nids)+1)
		nids[title] = nid

		p := st.Get(title)
		switch {
		case p == nil:
			fmt.Fprintf(w, "  %s>\"%s\"]\n", nid, quote(title))
		case IsSpecial(p):
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, quote(title))
			switch {
			case opts.SpecialClass != "":
				fmt.Fprintf(w, "  class %s %s\n", nid, opts.SpecialClass)
			case opts.SpecialFill != "":
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.SpecialFill)
			}
		default:
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, quote(title))
		}
		return nid
	}

	for _, p := range st.Passages() {
		node(p.Title)
	}

	for _, r := range AllRefs(st) {
		from, to := node(r.From), node(r.To)
		label := ""
		switch {
		case opts.ShowSetters && r.Setter != "":
			label = fmt.Sprintf(`-- "<code>%s</code>"`, quote(r.Setter))
		case r.Kind == "goto":
			label = `-- "goto"`
		}
		arrow := "-->"
		if r.Kind == "display" {
			arrow = "-.->"
		}
		if label != "" {
			fmt.Fprintf(w, "  %s %s %s %s\n", from, label, arrow, to)
		} else {
			fmt.Fprintf(w, "  %s %s %s\n", from, arrow, to)
		}
	}

	fmt.Fprintf(w, "\n")

	return w.Close()
}

func quote(s string) string {
	return strings.Replace(s, `"`, "#quot;", -1)
}
