package markup

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// MacroHandler runs one macro invocation.  A returned error is
// rendered inline as a failure to execute the macro.
type MacroHandler func(ctx context.Context, c *MacroContext) error

// Macro is a macro definition.
type Macro struct {
	Handler MacroHandler

	// Tags lists the child tags the macro's body may contain,
	// like elseif and else for if.
	Tags []string

	// Container marks a macro with a body and a closing tag.
	// A macro with Tags is always a container.
	Container bool

	// SkipArgs leaves every argument unparsed.  SkipArg0 leaves
	// the arguments of the opening tag unparsed.
	SkipArgs bool
	SkipArg0 bool

	// IsWidget marks a macro defined by a story.
	IsWidget bool
}

// HasBody reports whether the macro has a body.
func (m *Macro) HasBody() bool {
	return m.Container || len(m.Tags) > 0
}

var macroName = regexp2.MustCompile(`^(?:`+MacroName+`)$`, regexp2.None)

// Macros is a macro registry.  It also tracks child tags: closing
// tags and body tags, each mapped to the macros that own them.
type Macros struct {
	sync.RWMutex

	macros map[string]*Macro
	tags   map[string][]string
}

// NewMacros makes an empty registry.
func NewMacros() *Macros {
	return &Macros{
		macros: make(map[string]*Macro),
		tags:   make(map[string][]string),
	}
}

// Add defines one or more names for a macro.
func (ms *Macros) Add(m *Macro, names ...string) error {
	ms.Lock()
	defer ms.Unlock()

	for _, name := range names {
		if err := ms.add(name, m); err != nil {
			return err
		}
	}
	return nil
}

func (ms *Macros) add(name string, m *Macro) error {
	switch {
	case !matches(macroName, name):
		return &BadMacro{Name: name, Problem: "invalid macro name"}
	case m == nil || m.Handler == nil:
		return &BadMacro{Name: name, Problem: "missing handler"}
	}
	if _, have := ms.macros[name]; have {
		return &DuplicateName{Kind: "macro", Name: name}
	}
	if parents, have := ms.tags[name]; have {
		return &BadMacro{
			Name:    name,
			Problem: "cannot clobber child tag of parent " + plural("macro", parents) + " <<" + strings.Join(parents, ">>, <<") + ">>",
		}
	}

	if m.HasBody() {
		for _, tag := range append([]string{"/" + name, "end" + name}, m.Tags...) {
			if _, have := ms.macros[tag]; have {
				return &BadMacro{Name: name, Problem: "cannot register tag <<" + tag + ">> for an existing macro"}
			}
		}
		for _, tag := range append([]string{"/" + name, "end" + name}, m.Tags...) {
			ms.tags[tag] = insert(ms.tags[tag], name)
		}
	}

	ms.macros[name] = m
	return nil
}

// Alias defines name as another name for an existing macro.
func (ms *Macros) Alias(name, existing string) error {
	ms.Lock()
	defer ms.Unlock()
	m, have := ms.macros[existing]
	if !have {
		return &BadMacro{Name: name, Problem: "cannot create alias of nonexistent macro <<" + existing + ">>"}
	}
	return ms.add(name, m)
}

// Delete removes a macro and the tags it owns.
func (ms *Macros) Delete(name string) error {
	ms.Lock()
	defer ms.Unlock()

	if _, have := ms.macros[name]; !have {
		if parents, have := ms.tags[name]; have {
			return &BadMacro{Name: name, Problem: "cannot remove child tag of parent " + plural("macro", parents) + " <<" + strings.Join(parents, ">>, <<") + ">>"}
		}
		return nil
	}

	for tag, parents := range ms.tags {
		parents = remove(parents, name)
		if len(parents) == 0 {
			delete(ms.tags, tag)
		} else {
			ms.tags[tag] = parents
		}
	}
	delete(ms.macros, name)
	return nil
}

// Has reports whether name is a macro.
func (ms *Macros) Has(name string) bool {
	ms.RLock()
	defer ms.RUnlock()
	_, have := ms.macros[name]
	return have
}

// Get returns the named macro or nil.
func (ms *Macros) Get(name string) *Macro {
	ms.RLock()
	defer ms.RUnlock()
	return ms.macros[name]
}

// Parents returns the macros that own the child tag name.
func (ms *Macros) Parents(name string) []string {
	ms.RLock()
	defer ms.RUnlock()
	return append([]string(nil), ms.tags[name]...)
}

// Names returns the sorted macro names.
func (ms *Macros) Names() []string {
	ms.RLock()
	defer ms.RUnlock()
	acc := make([]string, 0, len(ms.macros))
	for name := range ms.macros {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

func insert(ss []string, s string) []string {
	for _, have := range ss {
		if have == s {
			return ss
		}
	}
	ss = append(ss, s)
	sort.Strings(ss)
	return ss
}

func remove(ss []string, s string) []string {
	acc := ss[:0]
	for _, have := range ss {
		if have != s {
			acc = append(acc, have)
		}
	}
	return acc
}

func plural(word string, ss []string) string {
	if len(ss) == 1 {
		return word
	}
	return word + "s"
}
