package story

import (
	"strings"

	"github.com/dlclark/regexp2"
)

var excerptSteps = []struct {
	re   *regexp2.Regexp
	with string
}{
	{regexp2.MustCompile(`<<.*?>>`, regexp2.None), " "},
	{regexp2.MustCompile(`<.*?>`, regexp2.None), " "},
	{nil, ""},
	{regexp2.MustCompile(`^\s*\|.*\|.*?$`, regexp2.Multiline), ""},
	{regexp2.MustCompile(`\[[<>]?img\[[^\]]*\]\]`, regexp2.None), ""},
	{regexp2.MustCompile(`\[\[([^|\]]*)(?:|[^\]]*)?\]\]`, regexp2.None), "$1"},
	{regexp2.MustCompile(`^\s*!+(.*?)$`, regexp2.Multiline), "$1"},
	{regexp2.MustCompile(`'{2}|/{2}|_{2}|@{2}`, regexp2.None), ""},
	{nil, ""},
	{regexp2.MustCompile(`\s+`, regexp2.None), " "},
}

var excerptWords = regexp2.MustCompile(`(\S+(?:\s+\S+){0,7})`, regexp2.None)

// Excerpt makes a short plain-text summary of passage markup: the
// first eight words, without markup, followed by an ellipsis.
func Excerpt(text string) string {
	if text == "" {
		return ""
	}
	for _, step := range excerptSteps {
		if step.re == nil {
			text = strings.TrimSpace(text)
			continue
		}
		text = replace(step.re, text, step.with)
	}
	m, err := excerptWords.FindStringMatch(text)
	if err != nil || m == nil {
		return "\u2026"
	}
	return m.GroupByNumber(1).String() + "\u2026"
}
