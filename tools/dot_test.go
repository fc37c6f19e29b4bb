/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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
	"bytes"
	"strings"
	"testing"

	"github.com/Comcast/pathways/core"
)

func TestDot(t *testing.T) {
	e := &core.Exploration{
		Id:        "x",
		InitState: "a",
		States: map[string]*core.State{
			"a": state(rule("Equals", "b"), rule("Default", "a")),
			"b": state(rule("Default", core.End)),
		},
	}

	var out bytes.Buffer
	if err := Dot(e, &out, "a", "b"); err != nil {
		t.Fatal(err)
	}
	g := out.String()

	for _, want := range []string{
		"digraph G {",
		`"a" -> "b" [ color="red"`,
		`"b" -> "END"`,
		"x: cat",
		"doublecircle",
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("missing %s in\n%s", want, g)
		}
	}
	if strings.Count(g, `"b" [style`) != 1 {
		t.Fatal(g)
	}
}
