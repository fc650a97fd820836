// Copyright 2026 The Taskrun Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


//go:generate go run docregen_stdlib.go

package engine

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/builderbench/taskrun/doc"
	"go.chromium.org/luci/lucicfg/docgen"
	"go.chromium.org/luci/lucicfg/docgen/ast"
)

//go:embed docgen.mdt
var docgenTpl string

// Doc returns the Markdown documentation for a starlark source file.
//
// "stdlib" documents the predeclared symbols available to task files.
func Doc(src string) (string, error) {
	content := ""
	if src == "stdlib" {
		src = "stdlib.star"
		content = doc.StdlibSrc
	} else {
		if !strings.HasSuffix(src, ".star") {
			return "", errors.New("invalid source file name, expecting .star suffix")
		}
		b, err := os.ReadFile(src)
		if err != nil {
			return "", err
		}
		content = string(b)
	}
	return genDoc(src, content)
}

func genDoc(src, content string) (string, error) {
	m, err := ast.ParseModule(src, content)
	if err != nil {
		return "", err
	}
	var syms []ast.Node
	for _, node := range m.Nodes {
		if !strings.HasPrefix(node.Name(), "_") {
			syms = append(syms, node)
		}
	}

	g := docgen.Generator{
		Starlark: func(mod string) (string, error) {
			if mod != src {
				return "", fmt.Errorf("unknown module %q", mod)
			}
			return content, nil
		},
	}

	var b strings.Builder
	b.WriteString(docgenTpl)
	for i, n := range syms {
		fmt.Fprintf(&b, "{{- $sym%d := Symbol %q %q }}", i, src, n.Name())
	}
	title, body := splitDocstring(m.Doc())
	if title == "" {
		title = src
	}
	b.WriteString("# " + title + "\n")
	if body != "" {
		b.WriteString("\n" + body + "\n")
	}
	if len(syms) != 0 {
		b.WriteString("\n## Table of contents\n\n")
		for _, n := range syms {
			// Top level names are plain identifiers, the anchor is the name.
			b.WriteString("- [" + n.Name() + "](#" + n.Name() + ")\n")
		}
	}
	for i := range syms {
		fmt.Fprintf(&b, "\n{{ template \"gen-any\" $sym%d }}\n", i)
	}
	out, err := g.Render(b.String())
	return string(out), err
}

// splitDocstring returns the first line of a module docstring and the rest.
func splitDocstring(d string) (string, string) {
	d = strings.TrimSpace(d)
	title, body, _ := strings.Cut(d, "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}
