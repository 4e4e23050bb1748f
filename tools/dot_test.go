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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDot(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "g.dot")

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	opts := &DotOpts{
		Previous: "Start",
		Current:  "Cellar",
		Setters:  true,
		Tags:     true,
	}
	if err := Dot(cellar(t), out, opts); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(bs)

	for _, want := range []string{
		"digraph G {",
		`style="filled,bold"`, // Start
		`color="red"`,         // Cellar
		`label=<Vault>`,       // broken
		`shape="note"`,        // StoryInit
		"$gold to $gold - 1",  // setter
		"- dark",              // tags
	} {
		if !strings.Contains(dot, want) {
			t.Fatalf("missing %q in\n%s", want, dot)
		}
	}
}
