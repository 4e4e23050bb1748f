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

package markup

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/vars"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StandardRegistry makes a Registry holding the standard rules in
// their standard order.
func StandardRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range StandardRules() {
		if err := r.Add(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// StandardRules returns new copies of the standard rules.
func StandardRules() []*Rule {
	block := []string{ProfileBlock}
	inline := []string{ProfileCore}

	return []*Rule{
		{Name: "quoteByBlock", Profiles: block, Match: `^<<<\n`, Handler: quoteByBlock},
		{Name: "quoteByLine", Profiles: block, Match: `^>+`, Handler: quoteByLine},
		{Name: "macro", Profiles: inline, Match: `<<`, Handler: macroRule},
		{Name: "prettyLink", Profiles: inline, Match: `\[\[[^\[]`, Handler: prettyLink},
		{Name: "urlLink", Profiles: inline, Match: URL, Handler: urlLink},
		{Name: "image", Profiles: inline, Match: `\[[<>]?[Ii][Mm][Gg]\[`, Handler: image},
		{Name: "monospacedByBlock", Profiles: block, Match: `^\{\{\{\n`, Handler: monospacedByBlock},
		{Name: "formatByChar", Profiles: inline, Match: `''|//|__|\^\^|~~|==|\{\{\{`, Handler: formatByChar},
		{Name: "customStyle", Profiles: inline, Match: `@@`, Handler: customStyle},
		{Name: "verbatimText", Profiles: inline, Match: `"{3}|<nowiki>`, Handler: verbatimText},
		{Name: "horizontalRule", Profiles: inline, Match: `^----+$\n?|<hr\s*/?>\n?`, Handler: horizontalRule},
		{Name: "emdash", Profiles: inline, Match: `--`, Handler: emdash},
		{Name: "doubleDollarSign", Profiles: inline, Match: `\${2}`, Handler: doubleDollarSign},
		{Name: "nakedVariable", Profiles: inline, Match: nakedVariablePattern, Handler: nakedVariable},
		{Name: "heading", Profiles: block, Match: `^!{1,6}`, Handler: heading},
		{Name: "table", Profiles: block, Match: `^\|(?:[^\n]*)\|(?:[fhck]?)$`, Handler: table},
		{Name: "list", Profiles: block, Match: `^(?:(?:\*+)|(?:#+))`, Handler: list},
		{Name: "html", Profiles: inline, Match: `<[Hh][Tt][Mm][Ll]>`, Handler: htmlBlock},
		{Name: "commentByBlock", Profiles: inline, Match: `(?:/(?:%|\*))|(?:<!--)`, Handler: commentByBlock},
		{Name: "lineContinuation", Profiles: inline, Match: `\\` + SpaceNoTerminator + `*(?:\n|$)|(?:^|\n)` + SpaceNoTerminator + `*\\`, Handler: lineContinuation},
		{Name: "lineBreak", Profiles: inline, Match: `\n|<br\s*/?>`, Handler: lineBreak},
		{Name: "htmlCharacterReference", Profiles: inline, Match: htmlCharacterReferencePattern, Handler: htmlCharacterReference},
		{Name: "xmlProlog", Profiles: inline, Match: `<\?[Xx][Mm][Ll][^>]*\?>`, Handler: skip},
		{Name: "svg", Profiles: inline, Match: `<[Ss][Vv][Gg][^>]*>`, Handler: svg},
		{Name: "htmlTag", Profiles: inline, Match: htmlTagPattern, Handler: htmlTag},
	}
}

const (
	nakedVariablePattern = Variable + `(?:(?:\.` + Identifier + `)|(?:\[\d+\])|(?:\["(?:\\.|[^"\\])+"\])|(?:\['(?:\\.|[^'\\])+'\])|(?:\[` + Variable + `\]))*`

	htmlCharacterReferencePattern = `(?:(?:&#?[0-9A-Za-z]{2,8};|.)(?:&#?(?:x0*(?:3[0-6][0-9A-Fa-f]|1D[C-Fc-f][0-9A-Fa-f]|20[D-Fd-f][0-9A-Fa-f]|FE2[0-9A-Fa-f])|0*(?:76[89]|7[7-9][0-9]|8[0-7][0-9]|761[6-9]|76[2-7][0-9]|84[0-3][0-9]|844[0-7]|6505[6-9]|6506[0-9]|6507[0-1]));)+|&#?[0-9A-Za-z]{2,8};)`

	htmlTagPattern = `<\w+(?:\s+[^\u0000-\u001F\u007F-\u009F\s"'>\/=]+(?:\s*=\s*(?:"[^"]*?"|'[^']*?'|[^\s"'=<>` + "`" + `]+))?)*\s*\/?>`
)

var (
	quoteLevel     = mustCompile(`^>+`)
	monospaceBlock = mustCompile(`^\{\{\{\n((?:^[^\n]*\n)+?)(^\}\}\}$\n?)`)
	monospaceChars = mustCompile(`\{\{\{((?:.|\n)*?)\}\}\}`)
	styleBlock     = mustCompile(`\s*\n`)
	verbatim       = mustCompile(`(?:"{3}((?:.|\n)*?)"{3})|(?:<nowiki>((?:.|\n)*?)<\/nowiki>)`)
	tableRow       = mustCompile(`^\|([^\n]*)\|([fhck]?)$`)
	tableCell      = mustCompile(`(?:\|([^\n\|]*)\|)|(\|[cfhk]?$\n?)`)
	listItem       = mustCompile(`^(?:(\*+)|(#+))`)
	htmlContent    = mustCompile(`<[Hh][Tt][Mm][Ll]>((?:.|\n)*?)<\/[Hh][Tt][Mm][Ll]>`)
	comment        = mustCompile(`(?:\/(%|\*)(?:(?:.|\n)*?)\1\/)|(?:<!--(?:(?:.|\n)*?)-->)`)
	svgContent     = mustCompile(`(<[Ss][Vv][Gg][^>]*>(?:.|\n)*?<\/[Ss][Vv][Gg]>)`)
	tagName        = regexp2.MustCompile(`<(\w+)`, regexp2.None)
)

// emitMatch writes the matched text as plain text.  Block rules do
// this when they aren't at the start of a block.
func emitMatch(w *Wikifier) {
	AppendText(w.Output, w.MatchText)
}

func quoteByBlock(ctx context.Context, w *Wikifier) error {
	if !hasBlockContext(w.Output) {
		emitMatch(w)
		return nil
	}
	return w.SubWikify(ctx, AppendElement(w.Output, "blockquote"), `^<<<\n`)
}

func quoteByLine(ctx context.Context, w *Wikifier) error {
	if !hasBlockContext(w.Output) {
		emitMatch(w)
		return nil
	}

	stack := []*html.Node{w.Output}
	level := 0
	next := w.MatchLength

	for {
		for ; level < next; level++ {
			stack = append(stack, AppendElement(stack[len(stack)-1], "blockquote"))
		}
		for ; level > next; level-- {
			stack = stack[:len(stack)-1]
		}

		top := stack[len(stack)-1]
		if err := w.SubWikify(ctx, top, `\n`); err != nil {
			return err
		}
		AppendElement(top, "br")

		m := matchAt(quoteLevel, w.Source, w.NextMatch)
		if m == nil {
			return nil
		}
		next = m.Length
		w.NextMatch += m.Length
	}
}

func prettyLink(ctx context.Context, w *Wikifier) error {
	markup := parseSquareBracketed(w.Source, w.MatchStart)
	if markup.Err != "" {
		w.OutputText(w.Output, w.MatchStart, w.NextMatch)
		return nil
	}
	w.NextMatch = markup.Pos

	env := w.Env
	link := env.EvalPassageID(ctx, markup.get("link"))
	text := link
	if markup.has("text") {
		text = env.EvalText(ctx, markup.get("text"))
	}
	var setter func(context.Context) error
	if markup.has("setter") {
		setter = env.Setter(markup.get("setter"))
	}

	if markup.ForceInternal || !env.IsExternalLink(link) {
		env.InternalLink(w.Output, link, text, setter)
	} else {
		env.ExternalLink(w.Output, link, text)
	}
	return nil
}

func urlLink(ctx context.Context, w *Wikifier) error {
	w.Env.ExternalLink(w.Output, w.MatchText, w.MatchText)
	return nil
}

func image(ctx context.Context, w *Wikifier) error {
	markup := parseSquareBracketed(w.Source, w.MatchStart)
	if markup.Err != "" {
		w.OutputText(w.Output, w.MatchStart, w.NextMatch)
		return nil
	}
	w.NextMatch = markup.Pos

	env := w.Env
	var setter func(context.Context) error
	if markup.has("setter") {
		setter = env.Setter(markup.get("setter"))
	}

	parent := w.Output
	if markup.has("link") {
		link := env.EvalPassageID(ctx, markup.get("link"))
		var a *html.Node
		if markup.ForceInternal || !env.IsExternalLink(link) {
			a = env.InternalLink(parent, link, "", setter)
		} else {
			a = env.ExternalLink(parent, link, "")
		}
		AddClass(a, "link-image")
		parent = a
	}

	img := AppendElement(parent, "img")
	source, passage := env.imageSource(env.EvalPassageID(ctx, markup.get("source")))
	if passage != "" {
		SetAttr(img, "data-passage", passage)
	}
	SetAttr(img, "src", source)
	if markup.has("title") {
		SetAttr(img, "title", env.EvalText(ctx, markup.get("title")))
	}
	if markup.Align != "" {
		SetAttr(img, "align", markup.Align)
	}
	return nil
}

func monospacedByBlock(ctx context.Context, w *Wikifier) error {
	m := matchAt(monospaceBlock, w.Source, w.MatchStart)
	if m == nil {
		emitMatch(w)
		return nil
	}
	pre := AppendElement(w.Output, "pre")
	AppendText(pre, group(m, 1))
	w.NextMatch = end(m)
	return nil
}

var charFormats = map[string]struct {
	tag        string
	terminator string
}{
	"''": {"strong", "''"},
	"//": {"em", "//"},
	"__": {"u", "__"},
	"^^": {"sup", `\^\^`},
	"~~": {"sub", "~~"},
	"==": {"s", "=="},
}

func formatByChar(ctx context.Context, w *Wikifier) error {
	if f, have := charFormats[w.MatchText]; have {
		return w.SubWikify(ctx, AppendElement(w.Output, f.tag), f.terminator)
	}

	// {{{monospaced}}}
	m := matchAt(monospaceChars, w.Source, w.MatchStart)
	if m == nil {
		emitMatch(w)
		return nil
	}
	code := AppendElement(w.Output, "code")
	AppendText(code, group(m, 1))
	w.NextMatch = end(m)
	return nil
}

func customStyle(ctx context.Context, w *Wikifier) error {
	css := w.inlineCSS()

	bm := matchAt(styleBlock, w.Source, w.NextMatch)
	tag := "span"
	if bm != nil {
		tag = "div"
	}
	el := AppendElement(w.Output, tag)

	if css.empty() {
		AddClass(el, "marked")
	} else {
		css.apply(el)
	}

	if bm != nil {
		// Skip the leading and any trailing newline.
		w.NextMatch += bm.Length
		return w.SubWikify(ctx, el, `\n?@@`)
	}
	return w.SubWikify(ctx, el, `@@`)
}

func verbatimText(ctx context.Context, w *Wikifier) error {
	m := matchAt(verbatim, w.Source, w.MatchStart)
	if m == nil {
		emitMatch(w)
		return nil
	}
	span := AppendElement(w.Output, "span", html.Attribute{Key: "class", Val: "verbatim"})
	text := group(m, 1)
	if text == "" {
		text = group(m, 2)
	}
	AppendText(span, text)
	w.NextMatch = end(m)
	return nil
}

func horizontalRule(ctx context.Context, w *Wikifier) error {
	AppendElement(w.Output, "hr")
	return nil
}

func emdash(ctx context.Context, w *Wikifier) error {
	AppendText(w.Output, "\u2014")
	return nil
}

func doubleDollarSign(ctx context.Context, w *Wikifier) error {
	AppendText(w.Output, "$")
	return nil
}

func nakedVariable(ctx context.Context, w *Wikifier) error {
	s, ok := Printable(vars.Get(w.Env.Scope, w.MatchText))
	if !ok {
		emitMatch(w)
		return nil
	}
	return w.Wikify(ctx, w.Output, s)
}

func heading(ctx context.Context, w *Wikifier) error {
	if !hasBlockContext(w.Output) {
		emitMatch(w)
		return nil
	}
	h := AppendElement(w.Output, "h"+string(rune('0'+w.MatchLength)))
	return w.SubWikify(ctx, h, `\n`)
}

var rowTypes = map[string]string{
	"c": "caption",
	"f": "tfoot",
	"h": "thead",
	"":  "tbody",
}

// tableCellRef is a cell that later ~ cells may extend downward.
type tableCellRef struct {
	rows int
	el   *html.Node
}

func table(ctx context.Context, w *Wikifier) error {
	if !hasBlockContext(w.Output) {
		emitMatch(w)
		return nil
	}

	tbl := AppendElement(w.Output, "table")
	var (
		prev      []*tableCellRef
		rowType   = "-"
		container *html.Node
		rows      int
	)

	w.NextMatch = w.MatchStart

	for {
		m := matchAt(tableRow, w.Source, w.NextMatch)
		if m == nil {
			return nil
		}

		next := group(m, 2)
		if next == "k" {
			SetAttr(tbl, "class", group(m, 1))
			w.NextMatch += m.Length + 1
			continue
		}

		if next != rowType {
			rowType = next
			container = AppendElement(tbl, rowTypes[next])
		}

		if rowType == "c" {
			side := "bottom"
			if rows == 0 {
				side = "top"
			}
			SetStyle(container, [][2]string{{"caption-side", side}})
			w.NextMatch++
			if err := w.SubWikify(ctx, container, `\|(?:[cfhk]?)$\n?`); err != nil {
				return err
			}
		} else {
			var err error
			if prev, err = w.tableRow(ctx, AppendElement(container, "tr"), prev); err != nil {
				return err
			}
		}
		rows++
	}
}

func (w *Wikifier) tableRow(ctx context.Context, row *html.Node, prev []*tableCellRef) ([]*tableCellRef, error) {
	col := 0
	span := 1

	for {
		m := matchAt(tableCell, w.Source, w.NextMatch)
		if m == nil {
			return prev, nil
		}

		cell := group(m, 1)
		switch {
		case participated(m, 1) && cell == "~":
			if col < len(prev) && prev[col] != nil {
				last := prev[col]
				last.rows++
				SetAttr(last.el, "rowspan", strconv.Itoa(last.rows))
				SetStyle(last.el, [][2]string{{"vertical-align", "middle"}})
			}
			w.NextMatch = end(m) - 1

		case participated(m, 1) && cell == ">":
			span++
			w.NextMatch = end(m) - 1

		case participated(m, 2):
			w.NextMatch = end(m)
			return prev, nil

		default:
			w.NextMatch++
			css := w.inlineCSS()

			spaceLeft, spaceRight := false, false
			for w.NextMatch < len(w.Source) && w.Source[w.NextMatch] == ' ' {
				spaceLeft = true
				w.NextMatch++
			}

			tag := "td"
			if w.NextMatch < len(w.Source) && w.Source[w.NextMatch] == '!' {
				tag = "th"
				w.NextMatch++
			}
			el := AppendElement(row, tag)

			for len(prev) <= col {
				prev = append(prev, nil)
			}
			prev[col] = &tableCellRef{rows: 1, el: el}

			if span > 1 {
				SetAttr(el, "colspan", strconv.Itoa(span))
				span = 1
			}

			if err := w.SubWikify(ctx, el, `(?:\u0020*)\|`); err != nil {
				return prev, err
			}
			if t := []rune(w.MatchText); len(t) >= 2 && t[len(t)-2] == ' ' {
				spaceRight = true
			}

			switch {
			case spaceLeft && spaceRight:
				css.set("text-align", "center")
			case spaceLeft:
				css.set("text-align", "right")
			case spaceRight:
				css.set("text-align", "left")
			}
			css.apply(el)

			w.NextMatch--
		}
		col++
	}
}

func list(ctx context.Context, w *Wikifier) error {
	if !hasBlockContext(w.Output) {
		emitMatch(w)
		return nil
	}

	w.NextMatch = w.MatchStart

	stack := []*html.Node{w.Output}
	var (
		curType  string
		curLevel int
	)

	for {
		m := matchAt(listItem, w.Source, w.NextMatch)
		if m == nil {
			return nil
		}

		newType := "ul"
		if participated(m, 2) {
			newType = "ol"
		}
		newLevel := m.Length
		w.NextMatch += m.Length

		switch {
		case newLevel > curLevel:
			for i := curLevel; i < newLevel; i++ {
				stack = append(stack, AppendElement(stack[len(stack)-1], newType))
			}
		case newLevel < curLevel:
			stack = stack[:len(stack)-(curLevel-newLevel)]
		case newType != curType:
			stack = stack[:len(stack)-1]
			stack = append(stack, AppendElement(stack[len(stack)-1], newType))
		}

		curLevel = newLevel
		curType = newType
		if err := w.SubWikify(ctx, AppendElement(stack[len(stack)-1], "li"), `\n`); err != nil {
			return err
		}
	}
}

// appendHTML parses markup as an HTML fragment and appends the
// result.
func appendHTML(dest *html.Node, markup string) error {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if IsElement(dest, "svg") || (dest.Type == html.ElementNode && dest.Namespace != "") {
		ctx = dest
	}
	ns, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return err
	}
	for _, n := range ns {
		dest.AppendChild(n)
	}
	return nil
}

func htmlBlock(ctx context.Context, w *Wikifier) error {
	m := matchAt(htmlContent, w.Source, w.MatchStart)
	if m == nil {
		emitMatch(w)
		return nil
	}
	w.NextMatch = end(m)
	return appendHTML(w.Output, group(m, 1))
}

func commentByBlock(ctx context.Context, w *Wikifier) error {
	m := matchAt(comment, w.Source, w.MatchStart)
	if m == nil {
		emitMatch(w)
		return nil
	}
	w.NextMatch = end(m)
	return nil
}

func lineContinuation(ctx context.Context, w *Wikifier) error {
	w.NextMatch = w.MatchStart + w.MatchLength
	return nil
}

func lineBreak(ctx context.Context, w *Wikifier) error {
	if !w.Options.Nobr {
		AppendElement(w.Output, "br")
	}
	return nil
}

func htmlCharacterReference(ctx context.Context, w *Wikifier) error {
	AppendText(w.Output, html.UnescapeString(w.MatchText))
	return nil
}

func skip(ctx context.Context, w *Wikifier) error {
	w.NextMatch = w.MatchStart + w.MatchLength
	return nil
}

func svg(ctx context.Context, w *Wikifier) error {
	m := matchAt(svgContent, w.Source, w.MatchStart)
	if m == nil {
		emitMatch(w)
		return nil
	}
	w.NextMatch = end(m)
	return appendHTML(w.Output, group(m, 1))
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"menuitem": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// nobrElements may not hold <br>s directly.
var nobrElements = map[string]bool{
	"colgroup": true, "datalist": true, "dl": true, "figure": true,
	"ol": true, "optgroup": true, "select": true, "table": true,
	"tbody": true, "tfoot": true, "thead": true, "tr": true, "ul": true,
}

// parseStartTag turns the text of one start tag into a detached
// element.
func parseStartTag(text string) *html.Node {
	z := html.NewTokenizer(strings.NewReader(text))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
		tok := z.Token()
		return &html.Node{
			Type:     html.ElementNode,
			Data:     tok.Data,
			DataAtom: tok.DataAtom,
			Attr:     tok.Attr,
		}
	}
	return nil
}

func htmlTag(ctx context.Context, w *Wikifier) error {
	tm, _ := tagName.FindStringMatch(w.MatchText)
	if tm == nil {
		emitMatch(w)
		return nil
	}
	tag := tm.GroupByNumber(1).String()
	name := strings.ToLower(tag)

	isVoid := voidElements[name] || strings.HasSuffix(w.MatchText, "/>")

	var terminator string
	closed := false
	if !isVoid {
		terminator = `<\/` + name + `\s*>`
		re, err := compile(terminator, true)
		if err != nil {
			return err
		}
		if m, err := re.FindRunesMatchStartingAt(w.Source, w.MatchStart); err == nil && m != nil {
			closed = true
		}
	}

	if !isVoid && !closed {
		AppendError(w.Output, `HTML tag "`+tag+`" is not closed`, w.MatchText+"\u2026")
		return nil
	}

	el := parseStartTag(w.MatchText)
	if el == nil {
		emitMatch(w)
		return nil
	}
	output := w.Output

	if _, has := Attr(el, "data-passage"); has {
		w.Env.processDataAttributes(ctx, el)
	}

	if closed {
		opts := w.Options
		opts.IgnoreTerminatorCase = true
		if nobrElements[name] {
			opts.Nobr = true
		}
		if err := w.SubWikifyWith(ctx, el, terminator, opts); err != nil {
			return err
		}
	}

	output.AppendChild(el)
	return nil
}

// processDataAttributes makes an element with data-passage behave
// like a link or, for <img>, like an image passage reference.
func (e *Env) processDataAttributes(ctx context.Context, el *html.Node) {
	passage, has := Attr(el, "data-passage")
	if !has {
		return
	}

	if evaluated := e.EvalPassageID(ctx, passage); evaluated != passage {
		passage = evaluated
		SetAttr(el, "data-passage", passage)
	}
	if passage == "" {
		return
	}

	if el.Data == "img" {
		if source, from := e.imageSource(passage); from != "" {
			SetAttr(el, "src", strings.TrimSpace(source))
		}
		return
	}

	var setter func(context.Context) error
	if s, has := Attr(el, "data-setter"); has {
		if s = strings.TrimSpace(s); s != "" {
			setter = e.Setter(s)
		}
	}

	if e.hasPassage(passage) {
		AddClass(el, "link-internal")
		if e.AddVisitedLinkClass && e.played(passage) {
			AddClass(el, "link-visited")
		}
	} else {
		AddClass(el, "link-broken")
	}

	if id := e.addAction(passage, setter); id >= 0 {
		SetAttr(el, "data-action", strconv.Itoa(id))
	}
}

// Printable returns the string to show for x.  It reports false for
// values that print nothing: null, undefined, NaN, and functions.
func Printable(x interface{}) (string, bool) {
	switch vv := x.(type) {
	case nil:
		return "", false
	case float64:
		if math.IsNaN(vv) {
			return "", false
		}
	case []interface{}:
		parts := make([]string, len(vv))
		for i, y := range vv {
			parts[i], _ = Printable(y)
		}
		return strings.Join(parts, ", "), true
	case core.Callable:
		return "", false
	}
	if core.IsUndefined(x) {
		return "", false
	}
	return core.ToString(x), true
}
