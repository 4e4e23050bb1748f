package tools

import (
	"sort"
	"strings"

	"github.com/Comcast/tale/story"

	"github.com/dlclark/regexp2"
)

// Ref is a reference from one passage to another that can be found
// without running the story.
type Ref struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`

	// Kind is "link" for [[...]] markup and otherwise the name of
	// the macro.
	Kind string `json:"kind" yaml:"kind"`

	// Setter is the setter component of a link, if any.
	Setter string `json:"setter,omitempty" yaml:"setter,omitempty"`
}

var (
	wikiLink = regexp2.MustCompile(`\[\[((?:[^\]]|\](?!\]))+)\]\]`, regexp2.None)

	macroRef = regexp2.MustCompile(`<<(goto|display)\s+(?:"((?:\\.|[^"\\])*)"|'((?:\\.|[^'\\])*)')`, regexp2.None)
)

// Refs returns the references in the passage.  Targets computed at
// runtime are invisible here.
func Refs(p *story.Passage) []Ref {
	var acc []Ref

	m, _ := wikiLink.FindStringMatch(p.Text)
	for m != nil {
		if to, setter := splitLink(m.GroupByNumber(1).String()); to != "" {
			acc = append(acc, Ref{
				From:   p.Title,
				To:     to,
				Kind:   "link",
				Setter: setter,
			})
		}
		m, _ = wikiLink.FindNextMatch(m)
	}

	m, _ = macroRef.FindStringMatch(p.Text)
	for m != nil {
		// Link arguments show up as links above.
		if to := quoted(m, 2, 3); to != "" {
			acc = append(acc, Ref{
				From: p.Title,
				To:   to,
				Kind: m.GroupByNumber(1).String(),
			})
		}
		m, _ = macroRef.FindNextMatch(m)
	}

	return acc
}

func quoted(m *regexp2.Match, groups ...int) string {
	for _, i := range groups {
		if g := m.GroupByNumber(i); len(g.Captures) > 0 {
			return g.String()
		}
	}
	return ""
}

// splitLink finds the passage and setter in the inside of [[...]].
func splitLink(s string) (string, string) {
	var setter string
	if i := strings.Index(s, "]["); i >= 0 {
		setter = strings.TrimSpace(s[i+2:])
		s = s[:i]
	}
	switch {
	case strings.Contains(s, "|"):
		s = s[strings.LastIndex(s, "|")+1:]
	case strings.Contains(s, "->"):
		s = s[strings.LastIndex(s, "->")+2:]
	case strings.Contains(s, "<-"):
		s = s[:strings.Index(s, "<-")]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "~")
	if strings.Contains(s, "://") {
		return "", setter
	}
	return s, setter
}

// AllRefs returns the references of every passage, ordered by source
// and then target.
func AllRefs(st *story.Story) []Ref {
	var acc []Ref
	for _, p := range st.Passages() {
		acc = append(acc, Refs(p)...)
	}
	sort.SliceStable(acc, func(i, j int) bool {
		if acc[i].From != acc[j].From {
			return acc[i].From < acc[j].From
		}
		return acc[i].To < acc[j].To
	})
	return acc
}
