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


package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.starlark.net/starlark"
)

func TestStepConstructors(t *testing.T) {
	t.Parallel()
	data := []struct {
		in   string
		want string
	}{
		{`sh.rm("docs")`, `rm("docs")`},
		{`sh.rm("./docs/")`, `rm("docs")`},
		{`sh.mkdir("a/b/../c")`, `mkdir("a/c")`},
		{`sh.copy("target/doc", "docs")`, `copy("target/doc", "docs")`},
		{`sh.overlay("src/docs", "docs")`, `overlay("src/docs", "docs")`},
		{`sh.overlay("src/docs", "docs", exclude = ["*.tmp"])`, `overlay("src/docs", "docs")`},
		{`sh.exec("cargo doc --no-deps")`, `exec(["cargo", "doc", "--no-deps"])`},
		{`sh.exec("echo 'a b'")`, `exec(["echo", "a b"])`},
		{`sh.exec(["echo", "a b"], cwd = "src", env = {"A": "1"}, ok_retcodes = [0, 1])`, `exec(["echo", "a b"])`},
		{`sh.list_tasks()`, `list_tasks()`},
		{`sh.list_tasks(sort = True)`, `list_tasks(sort = True)`},
	}
	for _, line := range data {
		line := line
		t.Run(line.in, func(t *testing.T) {
			t.Parallel()
			v, err := evalStep(line.in)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(line.want, v.String()); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
			if v.Type() != "step" {
				t.Fatalf("unexpected type %q", v.Type())
			}
		})
	}
}

func TestStepConstructors_Fields(t *testing.T) {
	t.Parallel()
	v, err := evalStep(`sh.exec(["echo", "hi"], cwd = "./src", env = {"A": "1"}, ok_retcodes = [0, 3])`)
	if err != nil {
		t.Fatal(err)
	}
	got := v.(*execStep)
	want := &execStep{
		args:       []string{"echo", "hi"},
		cwd:        "src",
		env:        map[string]string{"A": "1"},
		okRetcodes: []int{0, 3},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(execStep{})); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	v, err = evalStep(`sh.overlay("src/docs", "docs", exclude = ["*.tmp", "drafts/"])`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"*.tmp", "drafts/"}, v.(*overlayStep).exclude); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStepConstructors_Errors(t *testing.T) {
	t.Parallel()
	data := []struct {
		in  string
		err string
	}{
		{`sh.rm("")`, `sh.rm: "path" must not be empty`},
		{`sh.rm(".")`, `sh.rm: refusing to remove the root`},
		{`sh.rm("/etc")`, `sh.rm: "path" must be relative to the root: /etc`},
		{`sh.rm("c:/x")`, `sh.rm: "path" must be relative to the root: c:/x`},
		{`sh.rm("a\\b")`, `sh.rm: "path" must use forward slashes: a\b`},
		{`sh.mkdir("a/../../b")`, `sh.mkdir: "path" must not escape the root: a/../../b`},
		{`sh.copy("docs", "./docs")`, `sh.copy: "src" and "dst" must be different`},
		{`sh.copy("docs")`, `sh.copy: missing argument for dst`},
		{`sh.overlay("src", "docs", exclude = [""])`, `sh.overlay: "exclude" patterns cannot be empty strings`},
		{`sh.overlay("src", "docs", exclude = [1])`, `sh.overlay: for parameter "exclude": item #1: got int, want string`},
		{`sh.exec("")`, `sh.exec: cmdline must not be empty`},
		{`sh.exec([])`, `sh.exec: cmdline must not be empty`},
		{`sh.exec(1)`, `sh.exec: for parameter "cmd": got int, want string or sequence of strings`},
		{`sh.exec("echo 'unterminated")`, `sh.exec: for parameter "cmd": invalid command line string`},
		{`sh.exec(["echo"], cwd = "../x")`, `sh.exec: "cwd" must not escape the root: ../x`},
		{`sh.exec(["echo"], env = {"A": 1})`, `sh.exec: "env" value is not a string: 1`},
		{`sh.exec(["echo"], ok_retcodes = ["a"])`, `sh.exec: for parameter "ok_retcodes": got ["a"], wanted sequence of ints`},
		{`sh.exec(["echo"], ok_retcodes = 1)`, `sh.exec: for parameter "ok_retcodes": got 1, wanted sequence of ints`},
		{`sh.list_tasks(sort = 1)`, `sh.list_tasks: for parameter sort: got int, want bool`},
	}
	for _, line := range data {
		line := line
		t.Run(line.in, func(t *testing.T) {
			t.Parallel()
			_, err := evalStep(line.in)
			if err == nil {
				t.Fatal("expected an error")
			}
			if diff := cmp.Diff(line.err, err.Error()); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// evalStep evaluates a starlark expression returning a step.
func evalStep(expr string) (step, error) {
	th := &starlark.Thread{Name: "test"}
	v, err := starlark.Eval(th, "test.star", expr, getPredeclared())
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, &plainError{evalErr.Msg}
		}
		return nil, err
	}
	return v.(step), nil
}

type plainError struct{ msg string }

func (p *plainError) Error() string { return p.msg }
