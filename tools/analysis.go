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

package tools

import (
	"fmt"
	"sort"

	"github.com/Comcast/tale/story"

	"gopkg.in/yaml.v2"
)

// BrokenRef is a reference to a passage that doesn't exist.
type BrokenRef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind"`
}

// StoryAnalysis is what Analyze found out about a story without
// playing it.
type StoryAnalysis struct {
	Start string `yaml:"start"`

	// Errors are problems that will break play.
	Errors []string `yaml:"errors,omitempty"`

	PassageCount int `yaml:"passages"`
	Links        int `yaml:"links"`
	Setters      int `yaml:"setters"`
	Gotos        int `yaml:"gotos"`
	Displays     int `yaml:"displays"`

	// DeadEnds are passages without outgoing references.
	DeadEnds []string `yaml:"deadEnds,omitempty"`

	// Orphans are ordinary passages that nothing references.
	// They might still be reached with computed targets.
	Orphans []string `yaml:"orphans,omitempty"`

	// Unreachable passages are referenced, but only from passages
	// that can't be reached from the start.
	Unreachable []string `yaml:"unreachable,omitempty"`

	Broken  []BrokenRef `yaml:"broken,omitempty"`
	Special []string    `yaml:"special,omitempty"`
	Widgets []string    `yaml:"widgets,omitempty"`
	Scripts []string    `yaml:"scripts,omitempty"`
	Tags    []string    `yaml:"tags,omitempty"`
}

// Analyze examines the story's passages and references.  An empty
// start means the story's own start or "Start".
func Analyze(st *story.Story, start string) (*StoryAnalysis, error) {
	if start == "" {
		start = st.Start
	}
	if start == "" {
		start = "Start"
	}

	passages := st.Passages()
	a := StoryAnalysis{
		Start:        start,
		PassageCount: len(passages),
		Errors:       make([]string, 0, 8),
	}

	if !st.Has(start) {
		a.Errors = append(a.Errors, fmt.Sprintf("start passage %q does not exist", start))
	}

	var (
		targeted = make(map[string]bool)
		tags     = make(map[string]bool)
		edges    = make(map[string][]string)
	)

	for _, p := range passages {
		for _, t := range p.Tags {
			tags[t] = true
		}
		switch {
		case specialPassages[p.Title]:
			a.Special = append(a.Special, p.Title)
		case p.HasTag("widget"):
			a.Widgets = append(a.Widgets, p.Title)
		case p.HasTag("script"):
			a.Scripts = append(a.Scripts, p.Title)
		}

		refs := Refs(p)
		if len(refs) == 0 && !IsSpecial(p) {
			a.DeadEnds = append(a.DeadEnds, p.Title)
		}
		for _, r := range refs {
			switch r.Kind {
			case "link":
				a.Links++
				if r.Setter != "" {
					a.Setters++
				}
			case "goto":
				a.Gotos++
			case "display":
				a.Displays++
			}
			if !st.Has(r.To) {
				a.Broken = append(a.Broken, BrokenRef{From: r.From, To: r.To, Kind: r.Kind})
				a.Errors = append(a.Errors, fmt.Sprintf("passage %q refers to missing passage %q", r.From, r.To))
				continue
			}
			targeted[r.To] = true
			edges[r.From] = append(edges[r.From], r.To)
		}
	}

	for _, p := range passages {
		if !targeted[p.Title] && p.Title != start && !IsSpecial(p) {
			a.Orphans = append(a.Orphans, p.Title)
		}
	}

	// Special passages run on every turn, so whatever they reach
	// is reachable from the start.
	reached := make(map[string]bool)
	var walk func(string)
	walk = func(title string) {
		if reached[title] {
			return
		}
		reached[title] = true
		for _, to := range edges[title] {
			walk(to)
		}
	}
	if st.Has(start) {
		walk(start)
		for _, p := range passages {
			if IsSpecial(p) {
				walk(p.Title)
			}
		}
		// Orphans are already reported.
		for _, p := range passages {
			if !reached[p.Title] && targeted[p.Title] {
				a.Unreachable = append(a.Unreachable, p.Title)
			}
		}
	}

	a.Tags = keysToStringSlice(tags)
	sort.Strings(a.DeadEnds)
	sort.Strings(a.Orphans)
	sort.Strings(a.Special)
	sort.Strings(a.Widgets)
	sort.Strings(a.Scripts)
	sort.Strings(a.Unreachable)

	return &a, nil
}

// OK reports whether the analysis found no errors.
func (a *StoryAnalysis) OK() bool {
	return len(a.Errors) == 0
}

// YAML renders the analysis as a YAML report.
func (a *StoryAnalysis) YAML() (string, error) {
	bs, err := yaml.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// keysToStringSlice returns the sorted keys.
func keysToStringSlice(m map[string]bool) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
