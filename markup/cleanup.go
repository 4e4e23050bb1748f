package markup

import (
	"golang.org/x/net/html"
)

// convertBreaks groups the children of n into paragraphs.  A pair of
// <br>s ends a paragraph, block elements stand alone, and <br>s that
// would start a paragraph are dropped.
func convertBreaks(n *html.Node) {
	var acc []*html.Node
	para := NewElement("p")

	for c := n.FirstChild; c != nil; c = n.FirstChild {
		if c.Type == html.ElementNode {
			switch {
			case c.Data == "br":
				if next := c.NextSibling; IsElement(next, "br") {
					n.RemoveChild(next)
					n.RemoveChild(c)
					acc = append(acc, para)
					para = NewElement("p")
					continue
				}
				if para.FirstChild == nil {
					n.RemoveChild(c)
					continue
				}
			case blockElements[c.Data]:
				if para.FirstChild != nil {
					acc = append(acc, para)
					para = NewElement("p")
				}
				n.RemoveChild(c)
				acc = append(acc, c)
				continue
			}
		}
		n.RemoveChild(c)
		para.AppendChild(c)
	}
	if para.FirstChild != nil {
		acc = append(acc, para)
	}

	for _, c := range acc {
		n.AppendChild(c)
	}
}
