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

// Package story holds a story's passages.
//
// Stories load from YAML (see LoadYAML) or from Twee source (see
// LoadTwee).  A few passage titles and tags are special: StoryInit,
// PassageReady, PassageDone, PassageHeader, and PassageFooter
// passages are run by the engine, passages tagged "nobr" have their
// line breaks folded, "widget" passages define widgets, and
// "Twine.image" passages hold image data.
package story

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Passage is one named chunk of markup.
type Passage struct {
	Title string   `json:"title" yaml:"title"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Text  string   `json:"text" yaml:"text"`

	// Doc is an optional Markdown note for authors.  It isn't
	// rendered in play.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// HasTag reports whether the passage has the tag.
func (p *Passage) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

var (
	edgeNewlines   = regexp2.MustCompile(`^\n+|\n+$`, regexp2.None)
	innerNewlines  = regexp2.MustCompile(`\n+`, regexp2.None)
	slugJunk       = regexp2.MustCompile(`[^\w\s\u2013\u2014-]+`, regexp2.None)
	slugSeparators = regexp2.MustCompile(`[_\s\u2013\u2014-]+`, regexp2.None)
	classlessTags  = regexp2.MustCompile(`^(?:debug|nobr|passage|widget|twine\..*)$`, regexp2.IgnoreCase)
)

// ProcessText returns the text that gets rendered.  With nobr, or if
// the passage is tagged nobr, leading and trailing line breaks are
// dropped and inner runs of line breaks become single spaces.
// Twine.image passages become an image.
func (p *Passage) ProcessText(nobr bool) string {
	res := strings.ReplaceAll(p.Text, "\r", "")
	if nobr || p.HasTag("nobr") {
		res = Nobr(res)
	}
	if p.HasTag("Twine.image") {
		res = "[img[" + res + "]]"
	}
	return res
}

// Nobr drops leading and trailing line breaks and folds the rest
// into spaces.
func Nobr(s string) string {
	s = replace(edgeNewlines, s, "")
	return replace(innerNewlines, s, " ")
}

// Slugify makes s usable as an HTML id or class.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	s = replace(slugJunk, s, "")
	s = replace(slugSeparators, s, "-")
	return strings.ToLower(s)
}

// DomID is the id of the element the passage renders into.
func (p *Passage) DomID() string {
	return "passage-" + Slugify(p.Title)
}

// Classes are the slugified tags, skipping special ones, sorted and
// deduplicated.
func (p *Passage) Classes() []string {
	var acc []string
	for _, t := range p.Tags {
		if ok, _ := classlessTags.MatchString(t); ok {
			continue
		}
		acc = append(acc, Slugify(t))
	}
	return dedup(acc)
}

func replace(re *regexp2.Regexp, s, with string) string {
	out, err := re.Replace(s, with, -1, -1)
	if err != nil {
		return s
	}
	return out
}
