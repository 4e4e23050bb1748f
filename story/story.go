package story

import (
	"fmt"
	"sort"
)

// Special passage titles.
const (
	StoryInit     = "StoryInit"
	PassageReady  = "PassageReady"
	PassageDone   = "PassageDone"
	PassageHeader = "PassageHeader"
	PassageFooter = "PassageFooter"
)

// UnknownPassage occurs when a passage is requested that the story
// doesn't have.
type UnknownPassage struct {
	Title string
}

func (e *UnknownPassage) Error() string {
	return fmt.Sprintf("passage %q does not exist", e.Title)
}

// DuplicatePassage occurs when a story defines a title twice.
type DuplicatePassage struct {
	Title string
}

func (e *DuplicatePassage) Error() string {
	return fmt.Sprintf("passage %q is defined more than once", e.Title)
}

// Story is a set of passages plus a little metadata.
type Story struct {
	Title string `json:"title" yaml:"title"`

	// Start is the title of the first passage to play.
	Start string `json:"start,omitempty" yaml:"start,omitempty"`

	// Doc is a Markdown description for authors.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// IFID is the Twine story id, if any.
	IFID string `json:"ifid,omitempty" yaml:"ifid,omitempty"`

	passages map[string]*Passage
	order    []string
}

// New makes an empty story.
func New(title string) *Story {
	return &Story{
		Title:    title,
		passages: make(map[string]*Passage),
	}
}

// Add adds a passage.
func (s *Story) Add(p *Passage) error {
	if s.passages == nil {
		s.passages = make(map[string]*Passage)
	}
	if _, have := s.passages[p.Title]; have {
		return &DuplicatePassage{Title: p.Title}
	}
	s.passages[p.Title] = p
	s.order = append(s.order, p.Title)
	return nil
}

// Has reports whether the story has a passage with the title.
func (s *Story) Has(title string) bool {
	_, have := s.passages[title]
	return have
}

// Get returns the passage or nil.
func (s *Story) Get(title string) *Passage {
	return s.passages[title]
}

// Lookup is Get with an error.
func (s *Story) Lookup(title string) (*Passage, error) {
	p, have := s.passages[title]
	if !have {
		return nil, &UnknownPassage{Title: title}
	}
	return p, nil
}

// Passages returns every passage in the order they were added.
func (s *Story) Passages() []*Passage {
	acc := make([]*Passage, 0, len(s.order))
	for _, title := range s.order {
		acc = append(acc, s.passages[title])
	}
	return acc
}

// Tagged returns the passages with the tag, in order.
func (s *Story) Tagged(tag string) []*Passage {
	var acc []*Passage
	for _, p := range s.Passages() {
		if p.HasTag(tag) {
			acc = append(acc, p)
		}
	}
	return acc
}

// Titles returns the sorted passage titles.
func (s *Story) Titles() []string {
	acc := append([]string(nil), s.order...)
	sort.Strings(acc)
	return acc
}

func dedup(ss []string) []string {
	sort.Strings(ss)
	acc := ss[:0]
	for i, s := range ss {
		if i == 0 || ss[i-1] != s {
			acc = append(acc, s)
		}
	}
	return acc
}
