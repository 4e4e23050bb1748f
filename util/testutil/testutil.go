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

// Package testutil has small helpers for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/Comcast/tale/story"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		slog.Warn("testutil.JS", "error", err, "value", fmt.Sprintf("%#v", x))
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// A string that isn't JSON is returned as is.  When given anything
// else, just returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			return vv
		}
		return v
	default:
		return x
	}
}

// StoryOf makes a story from alternating titles and texts.
func StoryOf(tb testing.TB, titlesAndTexts ...string) *story.Story {
	tb.Helper()
	if len(titlesAndTexts)%2 != 0 {
		tb.Fatalf("StoryOf needs pairs, not %d strings", len(titlesAndTexts))
	}
	st := story.New("test")
	for i := 0; i < len(titlesAndTexts); i += 2 {
		p := &story.Passage{
			Title: titlesAndTexts[i],
			Text:  titlesAndTexts[i+1],
		}
		if err := st.Add(p); err != nil {
			tb.Fatal(err)
		}
	}
	return st
}
