package tools

import (
	"testing"

	"github.com/Comcast/tale/story"
)

var cellarYAML = `
title: The Cellar
start: Start
doc: A *short* story.
passages:
  - title: StoryInit
    text: <<set $gold to 5>>
  - title: Start
    text: |
      You have $gold gold.
      [[Go down|Cellar][$gold to $gold - 1]] [[Attic]]
  - title: Cellar
    tags: [dark, cold]
    doc: Where the **wine** is.
    text: Dark. <<goto "Vault">> <<display 'Note'>>
  - title: Attic
    text: Dusty.
  - title: Note
    text: A note.
  - title: Lost
    text: Nobody comes here. [[Hidden]]
  - title: Hidden
    text: Hidden.
  - title: hat
    tags: [widget]
    text: <<widget "hat">>a hat<</widget>>
`

func cellar(t *testing.T) *story.Story {
	st, err := story.LoadYAML([]byte(cellarYAML))
	if err != nil {
		t.Fatal(err)
	}
	return st
}
