package markup

import (
	"strings"

	"golang.org/x/net/html"
)

var inlineCSS = mustCompile(InlineCSS)

// styleMarks is what an inline style prefix asks for.
type styleMarks struct {
	Classes []string
	ID      string
	Styles  [][2]string
}

func (c *styleMarks) empty() bool {
	return len(c.Classes) == 0 && c.ID == "" && len(c.Styles) == 0
}

func (c *styleMarks) set(prop, val string) {
	for i, s := range c.Styles {
		if s[0] == prop {
			c.Styles[i][1] = val
			return
		}
	}
	c.Styles = append(c.Styles, [2]string{prop, val})
}

// apply writes the classes, id and styles onto an element.
func (c *styleMarks) apply(n *html.Node) {
	AddClass(n, c.Classes...)
	if c.ID != "" {
		SetAttr(n, "id", c.ID)
	}
	SetStyle(n, c.Styles)
}

// inlineCSS consumes consecutive style, class, and id declarations
// at NextMatch.
func (w *Wikifier) inlineCSS() *styleMarks {
	css := &styleMarks{}
	for {
		m := matchAt(inlineCSS, w.Source, w.NextMatch)
		if m == nil {
			return css
		}
		switch {
		case participated(m, 1):
			css.set(group(m, 1), strings.TrimSpace(group(m, 2)))
		case participated(m, 3):
			css.set(group(m, 3), strings.TrimSpace(group(m, 4)))
		case participated(m, 5):
			css.Classes = append(css.Classes, strings.Split(group(m, 5)[1:], ".")...)
		case participated(m, 6):
			ids := strings.Split(group(m, 6)[1:], "#")
			css.ID = ids[len(ids)-1]
		}
		w.NextMatch = end(m)
	}
}
