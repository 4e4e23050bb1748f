package markup

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

const (
	// ProfileAll contains every rule.
	ProfileAll = "all"

	// ProfileCore contains rules that name "core" or name no
	// profiles at all.
	ProfileCore = "core"

	// ProfileBlock contains the block-level rules.
	ProfileBlock = "block"
)

// Handler processes one match.  The Wikifier's MatchStart,
// MatchLength, MatchText, and NextMatch describe the match.  A
// Handler may move NextMatch.
type Handler func(ctx context.Context, w *Wikifier) error

// Rule is a named grammar rule.
type Rule struct {
	Name string

	// Match is a regular expression source.  It must not contain
	// capturing groups of its own.
	Match string

	// Profiles lists the profiles the rule belongs to.  No
	// profiles means the rule is part of "core".
	Profiles []string

	Handler Handler
}

func (r *Rule) in(profile string) bool {
	switch profile {
	case ProfileAll:
		return true
	case ProfileCore:
		if len(r.Profiles) == 0 {
			return true
		}
	}
	for _, p := range r.Profiles {
		if p == profile {
			return true
		}
	}
	return false
}

// Profile is a compiled set of rules.
type Profile struct {
	Name  string
	Rules []*Rule

	// Regexp is the alternation of every member rule's Match.
	// Rule i owns the group named by groupName(i).
	Regexp *regexp2.Regexp
}

func groupName(i int) string {
	return "r" + strconv.Itoa(i)
}

// Which returns the rule that produced the match.
func (p *Profile) Which(m *regexp2.Match) *Rule {
	for i, r := range p.Rules {
		g := m.GroupByName(groupName(i))
		if g != nil && len(g.Captures) > 0 && g.Length > 0 {
			return r
		}
	}
	return nil
}

// Registry is an ordered set of rules.
//
// Add rules before rendering.  A Registry compiles itself lazily the
// first time a profile is requested, and again after any change.
type Registry struct {
	sync.Mutex

	rules    []*Rule
	profiles map[string]*Profile
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a rule.
func (r *Registry) Add(rule *Rule) error {
	if rule == nil {
		return &InvalidRule{Problem: "is nil"}
	}
	switch {
	case rule.Name == "":
		return &InvalidRule{Problem: `missing required "name" property`}
	case rule.Match == "":
		return &InvalidRule{Name: rule.Name, Problem: `missing required "match" property`}
	case rule.Handler == nil:
		return &InvalidRule{Name: rule.Name, Problem: `missing required "handler" property`}
	}
	if _, err := regexp2.Compile(rule.Match, regexp2.Multiline); err != nil {
		return &InvalidRule{Name: rule.Name, Problem: `has a bad "match" property: ` + err.Error()}
	}

	r.Lock()
	defer r.Unlock()

	if r.find(rule.Name) >= 0 {
		return &DuplicateName{Kind: "parser", Name: rule.Name}
	}
	r.rules = append(r.rules, rule)
	r.profiles = nil
	return nil
}

// Delete removes the named rule.
func (r *Registry) Delete(name string) {
	r.Lock()
	defer r.Unlock()
	if i := r.find(name); i >= 0 {
		r.rules = append(r.rules[:i], r.rules[i+1:]...)
		r.profiles = nil
	}
}

// Has reports whether the named rule exists.
func (r *Registry) Has(name string) bool {
	r.Lock()
	defer r.Unlock()
	return r.find(name) >= 0
}

// Rule returns the named rule or nil.
func (r *Registry) Rule(name string) *Rule {
	r.Lock()
	defer r.Unlock()
	if i := r.find(name); i >= 0 {
		return r.rules[i]
	}
	return nil
}

// Names returns the rule names in registration order.
func (r *Registry) Names() []string {
	r.Lock()
	defer r.Unlock()
	acc := make([]string, len(r.rules))
	for i, rule := range r.rules {
		acc[i] = rule.Name
	}
	return acc
}

func (r *Registry) find(name string) int {
	for i, rule := range r.rules {
		if rule.Name == name {
			return i
		}
	}
	return -1
}

// Compile builds every profile.  Calling Compile again without any
// intervening change does nothing.
func (r *Registry) Compile() error {
	r.Lock()
	defer r.Unlock()
	return r.compile()
}

func (r *Registry) compile() error {
	if r.profiles != nil {
		return nil
	}

	names := []string{ProfileAll, ProfileCore}
	for _, rule := range r.rules {
		for _, p := range rule.Profiles {
			names = append(names, p)
		}
	}

	profiles := make(map[string]*Profile, len(names))
	for _, name := range names {
		if _, have := profiles[name]; have {
			continue
		}
		p := &Profile{
			Name: name,
		}
		alts := make([]string, 0, len(r.rules))
		for _, rule := range r.rules {
			if !rule.in(name) {
				continue
			}
			alts = append(alts, "(?<"+groupName(len(p.Rules))+">"+rule.Match+")")
			p.Rules = append(p.Rules, rule)
		}
		if len(alts) == 0 {
			// Matches nothing.
			alts = append(alts, "(?!)")
		}
		re, err := regexp2.Compile(strings.Join(alts, "|"), regexp2.Multiline)
		if err != nil {
			return &InvalidRule{Name: name, Problem: "profile failed to compile: " + err.Error()}
		}
		p.Regexp = re
		profiles[name] = p
	}

	r.profiles = profiles
	return nil
}

// Profile returns the named compiled profile, compiling first if
// needed.
func (r *Registry) Profile(name string) (*Profile, error) {
	r.Lock()
	defer r.Unlock()
	if err := r.compile(); err != nil {
		return nil, err
	}
	p, have := r.profiles[name]
	if !have {
		return nil, &UnknownProfile{Profile: name}
	}
	return p, nil
}
