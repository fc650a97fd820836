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


// Package main implements a check that os/exec.Cmd processes are only
// started through the execsupport package.
//
// Copy steps publish executables while commands may be forking. Going
// through execsupport serializes both.
package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports direct calls to the os/exec.Cmd methods starting a
// process.
var Analyzer = &analysis.Analyzer{
	Name:     "directexec",
	Doc:      "do not start os/exec.Cmd processes directly, use execsupport",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// replacements maps the forbidden methods to the execsupport function to use.
var replacements = map[string]string{
	"Start":          "Start",
	"Run":            "Run",
	"Output":         "Run",
	"CombinedOutput": "Run",
}

func run(pass *analysis.Pass) (any, error) {
	if strings.HasSuffix(pass.Pkg.Path(), "/internal/execsupport") {
		return nil, nil
	}
	in := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	in.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		selector, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		funcName := selector.Sel.Name
		repl, ok := replacements[funcName]
		if !ok {
			return
		}
		sel := pass.TypesInfo.Selections[selector]
		if sel == nil || sel.Kind() != types.MethodVal {
			return
		}
		if !isExecCmd(sel.Recv()) {
			return
		}
		pass.Reportf(call.Pos(), "do not call %s() directly on *exec.Cmd, use execsupport.%s instead", funcName, repl)
	})
	return nil, nil
}

func isExecCmd(t types.Type) bool {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "os/exec" && obj.Name() == "Cmd"
}

func main() {
	multichecker.Main(Analyzer)
}
