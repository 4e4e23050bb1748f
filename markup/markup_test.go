package markup

import (
	"context"
	"errors"
	"testing"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type actionLog []*LinkAction

func (a *actionLog) AddAction(x *LinkAction) int {
	*a = append(*a, x)
	return len(*a) - 1
}

func testEnv(t *testing.T) (*Env, *actionLog) {
	s := story.New("Test")
	for _, p := range []*story.Passage{
		{Title: "Cellar", Text: "It is dark."},
		{Title: "Attic", Text: "Dusty."},
		{Title: "Logo", Text: "data:image/png;base64,AAAA", Tags: []string{"Twine.image"}},
	} {
		require.NoError(t, s.Add(p))
	}

	env := NewEnv()
	env.Story = s
	actions := &actionLog{}
	env.Actions = actions
	return env, actions
}

func renderHTML(t *testing.T, env *Env, text string) string {
	out, err := Render(context.Background(), env, nil, text, env.Options())
	require.NoError(t, err)
	return HTML(out)
}

func TestCompileCached(t *testing.T) {
	re, err := compile("^end$", true)
	require.NoError(t, err)
	ok, err := re.MatchString("x\nEND\ny")
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := compile("^end$", true)
	require.NoError(t, err)
	assert.Same(t, re, again)

	cased, err := compile("^end$", false)
	require.NoError(t, err)
	assert.NotSame(t, re, cased)
	ok, err = cased.MatchString("x\nEND\ny")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	h := func(ctx context.Context, w *Wikifier) error { return nil }

	require.NoError(t, r.Add(&Rule{Name: "a", Match: "a", Handler: h}))

	var dup *DuplicateName
	assert.ErrorAs(t, r.Add(&Rule{Name: "a", Match: "b", Handler: h}), &dup)

	var invalid *InvalidRule
	assert.ErrorAs(t, r.Add(&Rule{Name: "b", Handler: h}), &invalid)
	assert.ErrorAs(t, r.Add(&Rule{Name: "c", Match: "c"}), &invalid)
	assert.ErrorAs(t, r.Add(&Rule{Match: "d", Handler: h}), &invalid)

	var unknown *UnknownProfile
	_, err := r.Profile("nope")
	assert.ErrorAs(t, err, &unknown)

	r.Delete("a")
	assert.False(t, r.Has("a"))
}

func TestRegistryProfiles(t *testing.T) {
	r := StandardRegistry()

	all, err := r.Profile(ProfileAll)
	require.NoError(t, err)
	assert.Len(t, all.Rules, len(r.Names()))
	assert.Equal(t, "quoteByBlock", all.Rules[0].Name)

	coreProfile, err := r.Profile(ProfileCore)
	require.NoError(t, err)
	for _, rule := range coreProfile.Rules {
		assert.NotEqual(t, "heading", rule.Name)
	}
	assert.Equal(t, "macro", coreProfile.Rules[0].Name)

	block, err := r.Profile(ProfileBlock)
	require.NoError(t, err)
	assert.Len(t, block.Rules, 6)

	// Ties go to the earlier rule.
	m, err := all.Regexp.FindStringMatch("----\n")
	require.NoError(t, err)
	assert.Equal(t, "horizontalRule", all.Which(m).Name)
}

func TestFormatting(t *testing.T) {
	env, _ := testEnv(t)

	tests := []struct {
		in, want string
	}{
		{"''bold'' and //em//", "<strong>bold</strong> and <em>em</em>"},
		{"__u__^^sup^^~~sub~~==s==", "<u>u</u><sup>sup</sup><sub>sub</sub><s>s</s>"},
		{"{{{a ''b''}}}", "<code>a &#39;&#39;b&#39;&#39;</code>"},
		{"a -- b", "a \u2014 b"},
		{"$$5", "$5"},
		{"a/* hidden */b<!-- also -->c/%x%/d", "abcd"},
		{"one \\\ntwo", "one two"},
		{"x\ny", "x<br/>y"},
		{"@@Hi@@", `<span class="marked">Hi</span>`},
		{"@@color:red;Hi@@", `<span style="color: red;">Hi</span>`},
		{"@@.a.b;#c;Hi@@", `<span class="a b" id="c">Hi</span>`},
		{`"""//not em//"""`, `<span class="verbatim">//not em//</span>`},
		{"<nowiki>''x''</nowiki>", `<span class="verbatim">&#39;&#39;x&#39;&#39;</span>`},
		{"a&amp;b", "a&amp;b"},
		{"----\n", "<hr/>"},
		{"<?xml version=\"1.0\"?>ok", "ok"},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			assert.Equal(t, test.want, renderHTML(t, env, test.in))
		})
	}
}

func TestBlocks(t *testing.T) {
	env, _ := testEnv(t)

	assert.Equal(t, "<h1>Title</h1><ul><li> a</li><li> b</li></ul>",
		renderHTML(t, env, "!Title\n* a\n* b"))

	assert.Equal(t, "<ol><li>one</li><ol><li>two</li></ol></ol>",
		renderHTML(t, env, "#one\n##two"))

	assert.Equal(t, "<blockquote>quoted<br/></blockquote>",
		renderHTML(t, env, ">quoted"))

	assert.Equal(t, "<pre>code\n</pre>",
		renderHTML(t, env, "{{{\ncode\n}}}\n"))

	assert.Equal(t,
		"<table><tbody><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></tbody></table>",
		renderHTML(t, env, "|a|b|\n|c|d|"))

	// Not at the start of a line.
	assert.Equal(t, "x !y", renderHTML(t, env, "x !y"))
}

func TestParagraphs(t *testing.T) {
	env, _ := testEnv(t)
	env.Cleanup = true
	assert.Equal(t, "<p>One</p><p>Two</p>", renderHTML(t, env, "One\n\nTwo"))
}

func TestNobr(t *testing.T) {
	env, _ := testEnv(t)
	env.Nobr = true
	assert.Equal(t, "xy", renderHTML(t, env, "x\ny"))
}

func TestLinks(t *testing.T) {
	env, actions := testEnv(t)

	assert.Equal(t,
		`<a data-passage="Cellar" class="link-internal" data-action="0">Go down</a>`,
		renderHTML(t, env, "[[Go down|Cellar]]"))

	assert.Equal(t,
		`<a data-passage="Attic" class="link-internal" data-action="1">Up</a>`,
		renderHTML(t, env, "[[Up->Attic]]"))

	assert.Equal(t,
		`<a data-passage="Attic" class="link-internal" data-action="2">Up</a>`,
		renderHTML(t, env, "[[Attic<-Up]]"))

	assert.Equal(t,
		`<a data-passage="Nowhere" class="link-broken" data-action="3">Nowhere</a>`,
		renderHTML(t, env, "[[Nowhere]]"))

	assert.Equal(t,
		`<a target="_blank" class="link-external" href="http://example.com/" tabindex="0">Example</a>`,
		renderHTML(t, env, "[[Example|http://example.com/]]"))

	assert.Equal(t,
		`<a data-passage="a.b" class="link-broken" data-action="4">dots</a>`,
		renderHTML(t, env, "[[dots|~a.b]]"))

	assert.Equal(t,
		`see <a target="_blank" class="link-external" href="https://example.com/x" tabindex="0">https://example.com/x</a>`,
		renderHTML(t, env, "see https://example.com/x"))

	require.Len(t, *actions, 5)
	assert.Equal(t, "Cellar", (*actions)[0].Passage)
	assert.Nil(t, (*actions)[0].Setter)

	env.AddVisitedLinkClass = true
	env.Played = func(title string) bool { return title == "Cellar" }
	assert.Equal(t,
		`<a data-passage="Cellar" class="link-internal link-visited" data-action="5">Cellar</a>`,
		renderHTML(t, env, "[[Cellar]]"))
}

func TestImages(t *testing.T) {
	env, _ := testEnv(t)

	assert.Equal(t,
		`<img src="pic.png" title="A pic" align="left"/>`,
		renderHTML(t, env, "[<img[A pic|pic.png]]"))

	assert.Equal(t,
		`<a data-passage="Cellar" class="link-internal link-image" data-action="0"><img src="pic.png"/></a>`,
		renderHTML(t, env, "[img[pic.png][Cellar]]"))

	assert.Equal(t,
		`<img data-passage="Logo" src="data:image/png;base64,AAAA"/>`,
		renderHTML(t, env, "[img[Logo]]"))
}

func TestSquareBracketed(t *testing.T) {
	m := parseSquareBracketed([]rune("[[a|b][$x to 1]]"), 0)
	require.Empty(t, m.Err)
	assert.True(t, m.IsLink)
	assert.Equal(t, "a", m.get("text"))
	assert.Equal(t, "b", m.get("link"))
	assert.Equal(t, "$x to 1", m.get("setter"))
	assert.Equal(t, 16, m.Pos)

	m = parseSquareBracketed([]rune("[>img[Title|pic.png][~Next]]"), 0)
	require.Empty(t, m.Err)
	assert.True(t, m.IsImage)
	assert.Equal(t, "right", m.Align)
	assert.Equal(t, "Title", m.get("title"))
	assert.Equal(t, "pic.png", m.get("source"))
	assert.Equal(t, "Next", m.get("link"))
	assert.True(t, m.ForceInternal)

	for in, want := range map[string]string{
		"[[a|b":       "unterminated wiki link",
		"[[|b]]":      "malformed wiki link, empty text component",
		"[[a][b][c]]": "unexpected left square bracket '['",
		"[[a|\"b]]":   "unterminated double quoted string in wiki link",
		"[xyz[a]]":    "malformed square-bracketed wiki markup",
	} {
		assert.Equal(t, want, parseSquareBracketed([]rune(in), 0).Err, in)
	}
}

func TestIsExternalLink(t *testing.T) {
	env, _ := testEnv(t)
	assert.False(t, env.IsExternalLink("Cellar"))
	assert.False(t, env.IsExternalLink("Somewhere"))
	assert.True(t, env.IsExternalLink("mailto:someone@example.com"))
	assert.True(t, env.IsExternalLink("index.html"))
}

func TestNakedVariable(t *testing.T) {
	env, _ := testEnv(t)
	env.Scope.Story["gold"] = 5.0
	env.Scope.Story["pack"] = map[string]interface{}{"items": []interface{}{"rope", "lamp"}}
	env.Scope.Temp["who"] = "''you''"

	assert.Equal(t, "You have 5 coins", renderHTML(t, env, "You have $gold coins"))
	assert.Equal(t, "rope, lamp and lamp", renderHTML(t, env, "$pack.items and $pack.items[1]"))
	assert.Equal(t, "<strong>you</strong>", renderHTML(t, env, "_who"))
	assert.Equal(t, "$missing", renderHTML(t, env, "$missing"))
}

func TestHTMLTags(t *testing.T) {
	env, _ := testEnv(t)

	assert.Equal(t, `<div class="box"><strong>x</strong></div>`,
		renderHTML(t, env, `<div class="box">''x''</div>`))

	assert.Equal(t, `<span data-passage="Cellar" class="link-internal" data-action="0">go</span>`,
		renderHTML(t, env, `<span data-passage="Cellar">go</span>`))

	assert.Equal(t, `<ul><li>a</li><li>b</li></ul>`,
		renderHTML(t, env, "<ul>\n<li>a</li>\n<li>b</li>\n</ul>"))

	assert.Equal(t, `<img src="x.png"/>`, renderHTML(t, env, `<img src="x.png">`))

	out := renderHTML(t, env, `<div>open`)
	assert.Contains(t, out, `Error: HTML tag &#34;div&#34; is not closed`)

	assert.Equal(t, `<b>raw</b>`, renderHTML(t, env, `<html><b>raw</b></html>`))
}

// ifMacro is a small stand-in for a conditional.
func ifMacro() *Macro {
	return &Macro{
		Tags: []string{"elseif", "else"},
		Handler: func(ctx context.Context, c *MacroContext) error {
			for _, clause := range c.Payload {
				if clause.Name == "else" || (len(clause.Args) > 0 && core.Truthy(clause.Args[0])) {
					return c.Wikify(ctx, c.Output, clause.Contents)
				}
			}
			return nil
		},
	}
}

func TestMacroNesting(t *testing.T) {
	env, _ := testEnv(t)

	var payload []*Clause
	m := ifMacro()
	h := m.Handler
	m.Handler = func(ctx context.Context, c *MacroContext) error {
		if payload == nil {
			payload = c.Payload
		}
		return h(ctx, c)
	}
	require.NoError(t, env.Macros.Add(m, "if"))

	assert.Equal(t, "A", renderHTML(t, env, "<<if true>>A<<elseif false>>B<<else>>C<</if>>"))
	require.Len(t, payload, 3)
	assert.Equal(t, "if", payload[0].Name)
	assert.Equal(t, "elseif", payload[1].Name)
	assert.Equal(t, "else", payload[2].Name)
	assert.Equal(t, "A", payload[0].Contents)
	assert.Equal(t, "B", payload[1].Contents)
	assert.Equal(t, "C", payload[2].Contents)
	assert.Equal(t, []interface{}{true}, payload[0].Args)
	assert.Equal(t, []interface{}{false}, payload[1].Args)

	assert.Equal(t, "Y", renderHTML(t, env, "<<if false>>X<<else>><<if true>>Y<<else>>Z<</if>><<endif>>"))
}

func TestMacroErrors(t *testing.T) {
	env, _ := testEnv(t)
	require.NoError(t, env.Macros.Add(ifMacro(), "if"))
	require.NoError(t, env.Macros.Add(&Macro{
		Handler: func(ctx context.Context, c *MacroContext) error {
			return errors.New("boom")
		},
	}, "fail"))
	require.NoError(t, env.Macros.Add(&Macro{
		Handler: func(ctx context.Context, c *MacroContext) error { return nil },
	}, "ok"))

	var errs []string
	env.OnMacroError = func(name, msg string) {
		errs = append(errs, name)
	}

	out, err := Render(context.Background(), env, nil, "<<if true>>A", env.Options())
	require.NoError(t, err)
	msg, has := FirstError(out)
	require.True(t, has)
	assert.Equal(t, "Error: cannot find a closing tag for macro <<if>>", msg)
	assert.Equal(t, "Error: cannot find a closing tag for macro <<if>>A", Text(out))

	tests := map[string]string{
		"<<nope>>":  "Error: macro <<nope>> does not exist",
		"<<else>>":  "Error: child tag <<else>> was found outside of a call to its parent macro <<if>>",
		"<</if>>":   "Error: child tag <</if>> was found outside of a call to its parent macro <<if>>",
		"<<fail>>":  "Error: cannot execute macro <<fail>>: boom",
		`<<ok "x>>`: "Error: cannot execute macro <<ok>>: unterminated double quoted string in macro argument string",
		"<<ok `x>>": "Error: cannot execute macro <<ok>>: unterminated backtick expression in macro argument string",
	}
	for in, want := range tests {
		assert.Equal(t, want, Text(mustRender(t, env, in)), in)
	}
	assert.Contains(t, errs, "fail")
	assert.Contains(t, errs, "nope")

	// An unmatched << is just text.
	assert.Equal(t, "a &lt;&lt; b", renderHTML(t, env, "a << b"))
}

func mustRender(t *testing.T, env *Env, text string) *html.Node {
	out, err := Render(context.Background(), env, nil, text, env.Options())
	require.NoError(t, err)
	return out
}

func TestParseArgs(t *testing.T) {
	env, _ := testEnv(t)
	env.Scope.Story["x"] = 3.0
	ctx := context.Background()

	args, err := env.ParseArgs(ctx, "true false null undefined 42 \"hi\" `` 'a b' \"\" $x $nope word")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		true, false, nil, core.Undefined, 42.0, "hi", core.Undefined, "a b", "", 3.0, core.Undefined, "word",
	}, args)

	args, err = env.ParseArgs(ctx, "[[Go|Cellar]] [img[pic.png]]")
	require.NoError(t, err)
	require.Len(t, args, 2)
	link, is := args[0].(*Link)
	require.True(t, is)
	assert.Equal(t, 2, link.Count)
	assert.Equal(t, "Go", link.Text)
	assert.Equal(t, "Cellar", link.Link)
	assert.False(t, link.External)
	img, is := args[1].(*Image)
	require.True(t, is)
	assert.Equal(t, "pic.png", img.Source)

	_, err = env.ParseArgs(ctx, "'open")
	assert.EqualError(t, err, "unterminated single quoted string in macro argument string")

	// Backticks need an evaluator.
	_, err = env.ParseArgs(ctx, "`1 + 1`")
	assert.Error(t, err)

	env.Evaluator = core.EvaluatorFunc(func(ctx context.Context, code string, scope *core.Scope) (interface{}, error) {
		return "evaluated " + code, nil
	})
	args, err = env.ParseArgs(ctx, "`$x + 1`")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"evaluated State.variables.x + 1"}, args)
}

func TestMacroContext(t *testing.T) {
	env, _ := testEnv(t)

	var inside []bool
	require.NoError(t, env.Macros.Add(&Macro{
		Container: true,
		Handler: func(ctx context.Context, c *MacroContext) error {
			return c.Wikify(ctx, c.Output, c.Payload[0].Contents)
		},
	}, "outer"))
	require.NoError(t, env.Macros.Add(&Macro{
		Handler: func(ctx context.Context, c *MacroContext) error {
			inside = append(inside, c.ContextHas(Named("outer")))
			return nil
		},
	}, "inner"))

	renderHTML(t, env, "<<outer>>''<<inner>>''<</outer>><<inner>>")
	assert.Equal(t, []bool{true, false}, inside)
}

func TestSignal(t *testing.T) {
	env, _ := testEnv(t)
	require.NoError(t, env.Macros.Add(&Macro{
		Handler: func(ctx context.Context, c *MacroContext) error {
			c.Env().Signal = Break
			return nil
		},
	}, "stop"))

	assert.Equal(t, "a", renderHTML(t, env, "a\n<<stop>>b"))
}

func TestTooDeep(t *testing.T) {
	env, _ := testEnv(t)
	env.MaxDepth = 10
	require.NoError(t, env.Macros.Add(&Macro{
		Handler: func(ctx context.Context, c *MacroContext) error {
			return c.Wikify(ctx, c.Output, "<<again>>")
		},
	}, "again"))

	_, err := Render(context.Background(), env, nil, "<<again>>", env.Options())
	assert.ErrorIs(t, err, ErrTooDeep)
	assert.Equal(t, 0, env.Depth())
}

func TestWikifyEval(t *testing.T) {
	env, _ := testEnv(t)

	_, err := WikifyEval(context.Background(), env, "fine")
	assert.NoError(t, err)

	_, err = WikifyEval(context.Background(), env, "<<nope>>")
	assert.EqualError(t, err, "macro <<nope>> does not exist")
}

func TestMacrosRegistry(t *testing.T) {
	ms := NewMacros()
	h := func(ctx context.Context, c *MacroContext) error { return nil }

	var bad *BadMacro
	assert.ErrorAs(t, ms.Add(&Macro{Handler: h}, "9lives"), &bad)
	assert.ErrorAs(t, ms.Add(&Macro{}, "empty"), &bad)

	require.NoError(t, ms.Add(&Macro{Handler: h, Tags: []string{"else"}}, "if"))
	var dup *DuplicateName
	assert.ErrorAs(t, ms.Add(&Macro{Handler: h}, "if"), &dup)
	assert.Equal(t, "cannot clobber existing macro <<if>>", dup.Error())

	err := ms.Add(&Macro{Handler: h}, "else")
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "macro <<else>>: cannot clobber child tag of parent macro <<if>>", err.Error())

	require.NoError(t, ms.Alias("when", "if"))
	assert.True(t, ms.Has("when"))
	assert.Equal(t, []string{"if", "when"}, ms.Parents("else"))
	assert.ErrorAs(t, ms.Alias("x", "missing"), &bad)

	require.NoError(t, ms.Delete("if"))
	assert.False(t, ms.Has("if"))
	assert.Equal(t, []string{"when"}, ms.Parents("else"))
	assert.Empty(t, ms.Parents("/if"))
	assert.Equal(t, []string{"when"}, ms.Names())

	assert.Error(t, ms.Delete("else"))
	assert.NoError(t, ms.Delete("never"))
}
