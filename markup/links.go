package markup

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Comcast/tale/core"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"
)

// Link is a macro argument written as [[text|link][setter]].
type Link struct {
	// Count is 2 if the markup gave text separately and 1
	// otherwise.
	Count    int
	Text     string
	Link     string
	External bool

	// SetFn, if not nil, runs the setter.
	SetFn func(ctx context.Context) error
}

// Image is a macro argument written as [img[title|source][link][setter]].
type Image struct {
	Source string
	Title  string
	Align  string
	Link   string

	// Passage is the title of the image passage that supplied
	// Source, if any.
	Passage  string
	External bool

	SetFn func(ctx context.Context) error
}

// bracketed is the result of scanning square-bracketed markup.
type bracketed struct {
	IsLink        bool
	IsImage       bool
	ForceInternal bool
	Align         string

	// parts holds the components that were present: text, title,
	// link, source, setter.
	parts map[string]string

	// Pos is just past the markup.
	Pos int

	Err string
}

func (b *bracketed) has(part string) bool {
	_, have := b.parts[part]
	return have
}

func (b *bracketed) get(part string) string {
	return b.parts[part]
}

const eof = -1

// parseSquareBracketed scans link or image markup that starts at
// start:
//
//	[[text|~link][setter]]
//	[<>img[title|source][~link][setter]]
//
// The Twine 2 arrows text->link and link<-text also separate text
// from link.
func parseSquareBracketed(src []rune, start int) *bracketed {
	var (
		item   = &bracketed{parts: make(map[string]string)}
		pos    = start + 1
		depth  int
		cid    int // 0 title, 1 link or source, 2 setter or image link, 3 image setter
		isLink bool
		what   = "image"
	)

	fail := func(msg string) *bracketed {
		return &bracketed{Err: msg, Pos: pos}
	}
	next := func() rune {
		if pos >= len(src) {
			return eof
		}
		pos++
		return src[pos-1]
	}
	peek := func() rune {
		if pos >= len(src) {
			return eof
		}
		return src[pos]
	}
	peekAhead := func(n int) rune {
		if n < 1 || pos+n >= len(src) {
			return eof
		}
		return src[pos+n]
	}
	emit := func(kind string) error {
		text := strings.TrimSpace(string(src[start:pos]))
		if text == "" {
			return errors.New("malformed wiki " + what + ", empty " + kind + " component")
		}
		if kind == "link" && text[0] == '~' {
			item.ForceInternal = true
			item.parts["link"] = text[1:]
		} else {
			item.parts[kind] = text
		}
		start = pos
		return nil
	}
	slurpQuote := func(endQuote rune) bool {
		pos++
		for {
			switch peek() {
			case '\\':
				pos++
				if ch := peek(); ch != eof && ch != '\n' {
					break
				}
				return false
			case eof, '\n':
				return false
			case endQuote:
				return true
			}
			pos++
		}
	}

	if peek() == '[' {
		isLink = true
		what = "link"
		item.IsLink = true
	} else {
		switch peek() {
		case '<':
			item.Align = "left"
			pos++
		case '>':
			item.Align = "right"
			pos++
		}
		if pos+3 > len(src) || !strings.EqualFold(string(src[pos:pos+3]), "img") {
			return fail("malformed square-bracketed wiki markup")
		}
		pos += 3
		item.IsImage = true
	}

	if next() != '[' {
		return fail("malformed wiki " + what)
	}

	depth = 1
	start = pos

	textPart, linkPart := "title", "source"
	if isLink {
		textPart, linkPart = "text", "link"
	}

loop:
	for {
		switch ch := peek(); ch {
		case eof, '\n':
			return fail("unterminated wiki " + what)

		case '"':
			if !slurpQuote(ch) {
				return fail("unterminated double quoted string in wiki " + what)
			}

		case '\'':
			if cid == 4 || (cid == 3 && isLink) {
				if !slurpQuote(ch) {
					return fail("unterminated single quoted string in wiki " + what)
				}
			}

		case '|':
			if cid == 0 {
				if err := emit(textPart); err != nil {
					return fail(err.Error())
				}
				start++
				cid = 1
			}

		case '-':
			if cid == 0 && peekAhead(1) == '>' {
				if err := emit(textPart); err != nil {
					return fail(err.Error())
				}
				pos++
				start += 2
				cid = 1
			}

		case '<':
			if cid == 0 && peekAhead(1) == '-' {
				if err := emit(linkPart); err != nil {
					return fail(err.Error())
				}
				pos++
				start += 2
				cid = 2
			}

		case '[':
			if cid == -1 {
				return fail("unexpected left square bracket '['")
			}
			depth++
			if depth == 1 {
				start = pos + 1
			}

		case ']':
			depth--
			if depth == 0 {
				var err error
				switch cid {
				case 0, 1:
					err = emit(linkPart)
					cid = 3
				case 2:
					err = emit(textPart)
					cid = 3
				case 3:
					if isLink {
						err = emit("setter")
						cid = -1
					} else {
						err = emit("link")
						cid = 4
					}
				case 4:
					err = emit("setter")
					cid = -1
				}
				if err != nil {
					return fail(err.Error())
				}

				pos++
				if peek() == ']' {
					pos++
					break loop
				}
				pos--
			}
		}
		pos++
	}

	item.Pos = pos
	return item
}

var urlStart = regexp2.MustCompile(`^`+URL, regexp2.IgnoreCase|regexp2.Multiline)

// IsExternalLink reports whether link is probably a URL rather than a
// passage title.
func (e *Env) IsExternalLink(link string) bool {
	if e.hasPassage(link) {
		return false
	}
	if ok, err := urlStart.MatchString(link); err == nil && ok {
		return true
	}
	return strings.ContainsAny(link, "/.?#")
}

var opaque = regexp2.MustCompile(`\[(?:object(?:\s+[^\]]+)?|native\s+code)\]`, regexp2.None)

// EvalText evaluates text as TwineScript and returns the result as a
// string.  If evaluation fails or produces nothing printable, the
// text itself is the result.
func (e *Env) EvalText(ctx context.Context, text string) string {
	x, err := e.Eval(ctx, text)
	if err != nil || core.IsNullish(x) {
		return text
	}
	if _, is := x.(core.Callable); is {
		return text
	}
	s := core.ToString(x)
	if ok, err := opaque.MatchString(s); err == nil && ok {
		return text
	}
	return s
}

// EvalPassageID returns passage if it names a passage and evaluates
// it otherwise.
func (e *Env) EvalPassageID(ctx context.Context, passage string) string {
	if e.hasPassage(passage) {
		return passage
	}
	return e.EvalText(ctx, passage)
}

// imageSource replaces the name of an image passage with its data.
// It returns the passage title when it does so.
func (e *Env) imageSource(source string) (string, string) {
	if strings.HasPrefix(source, "data:") || !e.hasPassage(source) {
		return source, ""
	}
	p := e.passage(source)
	if p == nil || !p.HasTag("Twine.image") {
		return source, ""
	}
	return p.Text, p.Title
}

// InternalLink appends a link to a passage.
func (e *Env) InternalLink(dest *html.Node, passage, text string, setter func(context.Context) error) *html.Node {
	a := NewElement("a")
	if passage != "" {
		SetAttr(a, "data-passage", passage)
		if e.hasPassage(passage) {
			AddClass(a, "link-internal")
			if e.AddVisitedLinkClass && e.played(passage) {
				AddClass(a, "link-visited")
			}
		} else {
			AddClass(a, "link-broken")
		}
		if id := e.addAction(passage, setter); id >= 0 {
			SetAttr(a, "data-action", strconv.Itoa(id))
		}
	}
	AppendText(a, text)
	if dest != nil {
		dest.AppendChild(a)
	}
	return a
}

// ExternalLink appends a link to a URL.
func (e *Env) ExternalLink(dest *html.Node, url, text string) *html.Node {
	a := NewElement("a",
		html.Attribute{Key: "target", Val: "_blank"},
		html.Attribute{Key: "class", Val: "link-external"})
	AppendText(a, text)
	if url != "" {
		SetAttr(a, "href", url)
		SetAttr(a, "tabindex", "0")
	}
	if dest != nil {
		dest.AppendChild(a)
	}
	return a
}

// linkArg converts scanned markup into a macro argument.
func (e *Env) linkArg(ctx context.Context, markup *bracketed) interface{} {
	if markup.IsLink {
		l := &Link{
			Count: 1,
			Link:  e.EvalPassageID(ctx, markup.get("link")),
		}
		l.Text = l.Link
		if markup.has("text") {
			l.Count = 2
			l.Text = e.EvalText(ctx, markup.get("text"))
		}
		l.External = !markup.ForceInternal && e.IsExternalLink(l.Link)
		if markup.has("setter") {
			l.SetFn = e.Setter(markup.get("setter"))
		}
		return l
	}

	img := &Image{
		Align: markup.Align,
	}
	img.Source, img.Passage = e.imageSource(e.EvalPassageID(ctx, markup.get("source")))
	if markup.has("title") {
		img.Title = e.EvalText(ctx, markup.get("title"))
	}
	if markup.has("link") {
		img.Link = e.EvalPassageID(ctx, markup.get("link"))
		img.External = !markup.ForceInternal && e.IsExternalLink(img.Link)
	}
	if markup.has("setter") {
		img.SetFn = e.Setter(markup.get("setter"))
	}
	return img
}
