package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewFragment makes an empty output sink.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// NewElement makes a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// AppendElement makes an element and appends it to parent.
func AppendElement(parent *html.Node, tag string, attrs ...html.Attribute) *html.Node {
	n := NewElement(tag, attrs...)
	parent.AppendChild(n)
	return n
}

// AppendText appends text to parent, merging with a trailing text
// node.
func AppendText(parent *html.Node, s string) {
	if s == "" {
		return
	}
	if last := parent.LastChild; last != nil && last.Type == html.TextNode {
		last.Data += s
		return
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the element carries the class.
func HasClass(n *html.Node, class string) bool {
	v, _ := Attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds classes to an element's class attribute.
func AddClass(n *html.Node, classes ...string) {
	v, _ := Attr(n, "class")
	have := strings.Fields(v)
	for _, c := range classes {
		if c == "" || HasClass(n, c) {
			continue
		}
		have = append(have, c)
		SetAttr(n, "class", strings.Join(have, " "))
	}
}

// SetStyle merges CSS properties into the style attribute.  Keys are
// written in the given order.
func SetStyle(n *html.Node, props [][2]string) {
	if len(props) == 0 {
		return
	}
	v, _ := Attr(n, "style")
	var b strings.Builder
	b.WriteString(v)
	for _, p := range props {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
			b.WriteString(" ")
		}
		b.WriteString(p[0] + ": " + p[1] + ";")
	}
	SetAttr(n, "style", b.String())
}

// IsElement reports whether n is an element with the given tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// Text returns the text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// HTML renders the children of n.
func HTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// Find returns the first descendant, in document order, that
// satisfies f.
func Find(n *html.Node, f func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f(c) {
			return c
		}
		if found := Find(c, f); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant that satisfies f.
func FindAll(n *html.Node, f func(*html.Node) bool) []*html.Node {
	var acc []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f(c) {
			acc = append(acc, c)
		}
		acc = append(acc, FindAll(c, f)...)
	}
	return acc
}

// MoveChildren moves every child of from to the end of to.
func MoveChildren(to, from *html.Node) {
	for c := from.FirstChild; c != nil; c = from.FirstChild {
		from.RemoveChild(c)
		to.AppendChild(c)
	}
}

// AppendError renders an inline error.
func AppendError(parent *html.Node, msg, source string) {
	if msg == "" {
		msg = "unknown error"
	}
	span := AppendElement(parent, "span",
		html.Attribute{Key: "class", Val: "error"},
		html.Attribute{Key: "title", Val: source})
	AppendText(span, "Error: "+msg)
}

// FirstError returns the message of the first inline error in n.
func FirstError(n *html.Node) (string, bool) {
	e := Find(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasClass(n, "error")
	})
	if e == nil {
		return "", false
	}
	return Text(e), true
}

// Errors returns the messages of every inline error in n.
func Errors(n *html.Node) []string {
	var acc []string
	for _, e := range FindAll(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasClass(n, "error")
	}) {
		acc = append(acc, Text(e))
	}
	return acc
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"center": true, "dd": true, "details": true, "dialog": true, "dir": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "frameset": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "li": true, "main": true,
	"menu": true, "nav": true, "noframes": true, "ol": true, "p": true,
	"pre": true, "section": true, "summary": true, "table": true, "ul": true,
}

// hasBlockContext reports whether a block-level construct may start
// after the current last child of parent: at the start of the
// parent, after a line break, or after a block element.
func hasBlockContext(parent *html.Node) bool {
	for n := parent.LastChild; n != nil; n = n.PrevSibling {
		switch n.Type {
		case html.CommentNode:
			continue
		case html.ElementNode:
			if n.Data == "br" {
				return true
			}
			if style, _ := Attr(n, "style"); strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
				continue
			}
			return blockElements[n.Data]
		default:
			return false
		}
	}
	return true
}
