package story

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/jsccast/yaml"
)

// storyFile is the YAML shape of a story.
type storyFile struct {
	Title    string     `yaml:"title"`
	Start    string     `yaml:"start"`
	Doc      string     `yaml:"doc"`
	IFID     string     `yaml:"ifid"`
	Passages []*Passage `yaml:"passages"`
}

// LoadYAML parses a story in YAML:
//
//   title: The Cellar
//   start: Start
//   passages:
//     - title: Start
//       tags: [nobr]
//       text: |
//         You are in a cellar. [[Leave]]
func LoadYAML(bs []byte) (*Story, error) {
	var f storyFile
	if err := yaml.Unmarshal(bs, &f); err != nil {
		return nil, err
	}
	s := New(f.Title)
	s.Start = f.Start
	s.Doc = f.Doc
	s.IFID = f.IFID
	for i, p := range f.Passages {
		if p == nil || p.Title == "" {
			return nil, fmt.Errorf("passage %d has no title", i)
		}
		if err := s.Add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

var tweeHeader = regexp2.MustCompile(`^::\s*((?:\\.|[^\[\{\\])*?)\s*(?:\[((?:\\.|[^\]\\])*)\])?\s*(\{.*\})?\s*$`, regexp2.None)

// LoadTwee parses Twee 3 source.  Each passage starts with a header
// line:
//
//   :: Title [tag1 tag2] {"position":"100,100"}
//
// StoryTitle and StoryData passages set the story's title, start
// passage, and IFID instead of becoming passages.
func LoadTwee(r io.Reader) (*Story, error) {
	s := New("")
	var (
		cur   *Passage
		lines []string
	)

	finish := func() error {
		if cur == nil {
			return nil
		}
		cur.Text = strings.TrimRight(strings.Join(lines, "\n"), "\n")
		lines = nil
		switch cur.Title {
		case "StoryTitle":
			s.Title = strings.TrimSpace(cur.Text)
			return nil
		case "StoryData":
			var data struct {
				IFID  string `json:"ifid"`
				Start string `json:"start"`
			}
			if err := json.Unmarshal([]byte(cur.Text), &data); err != nil {
				return fmt.Errorf("StoryData: %w", err)
			}
			s.IFID = data.IFID
			if data.Start != "" {
				s.Start = data.Start
			}
			return nil
		}
		return s.Add(cur)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		if !strings.HasPrefix(line, "::") {
			if cur != nil {
				lines = append(lines, line)
			}
			continue
		}
		if err := finish(); err != nil {
			return nil, err
		}
		m, err := tweeHeader.FindStringMatch(line)
		if err != nil || m == nil {
			return nil, fmt.Errorf("line %d: bad passage header %q", n, line)
		}
		cur = &Passage{
			Title: unescapeTwee(m.GroupByNumber(1).String()),
		}
		if tags := strings.Fields(m.GroupByNumber(2).String()); len(tags) != 0 {
			cur.Tags = tags
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return s, nil
}

func unescapeTwee(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// Load reads a story file.  Files ending in .tw or .twee are Twee and
// everything else is YAML.
func Load(filename string) (*Story, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tw", ".twee":
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadTwee(f)
	default:
		bs, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		return LoadYAML(bs)
	}
}
