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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTaskSet_Add(t *testing.T) {
	t.Parallel()
	data := []struct {
		name  string
		tasks []*Task
		err   string
	}{
		{"invalid", []*Task{{Name: "a b"}}, "invalid task name \"a b\""},
		{"invalid alias", []*Task{{Name: "a", Aliases: []string{"-x"}}}, "invalid task name \"-x\""},
		{"alias twice", []*Task{{Name: "a", Aliases: []string{"b", "b"}}}, "task \"a\" lists name \"b\" twice"},
		{"alias of self", []*Task{{Name: "a", Aliases: []string{"a"}}}, "task \"a\" lists name \"a\" twice"},
		{"same name", []*Task{{Name: "a"}, {Name: "a"}}, "can't register two tasks with the same name \"a\""},
		{
			"name is alias",
			[]*Task{{Name: "docs", Aliases: []string{"html"}}, {Name: "html"}},
			"\"html\" is already an alias of task \"docs\"",
		},
	}
	for _, line := range data {
		line := line
		t.Run(line.name, func(t *testing.T) {
			t.Parallel()
			var ts taskSet
			var err error
			for _, task := range line.tasks {
				if err = ts.add(task); err != nil {
					break
				}
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if diff := cmp.Diff(line.err, err.Error()); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTaskSet_List(t *testing.T) {
	t.Parallel()
	ts := makeTaskSet(t,
		&Task{Name: "default", Desc: "List tasks"},
		&Task{Name: "docs", Desc: "Build docs", Aliases: []string{"html"}},
		&Task{Name: "clean"},
	)
	want := []TaskInfo{
		{Name: "default", Desc: "List tasks"},
		{Name: "docs", Desc: "Build docs", Aliases: []string{"html"}},
		{Name: "clean"},
	}
	if diff := cmp.Diff(want, ts.list(false)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	want = []TaskInfo{want[2], want[0], want[1]}
	if diff := cmp.Diff(want, ts.list(true)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskSet_Validate(t *testing.T) {
	t.Parallel()
	var empty taskSet
	if err := empty.validate(); !errors.Is(err, ErrNoTasks) {
		t.Fatalf("unexpected error: %v", err)
	}
	ts := makeTaskSet(t,
		&Task{Name: "a", Deps: []string{"x"}},
		&Task{Name: "b", Deps: []string{"a", "y"}},
	)
	want := "task \"a\" depends on unknown task \"x\" (and 1 other error)"
	if err := ts.validate(); err == nil || err.Error() != want {
		t.Fatalf("want %q, got %v", want, err)
	}
}

func TestTaskSet_Plan(t *testing.T) {
	t.Parallel()
	ts := makeTaskSet(t,
		&Task{Name: "clean"},
		&Task{Name: "gen", Deps: []string{"clean"}},
		&Task{Name: "docs", Deps: []string{"gen"}, Aliases: []string{"html"}},
		&Task{Name: "lint", Deps: []string{"clean"}},
		&Task{Name: "all", Deps: []string{"docs", "lint"}},
	)
	data := []struct {
		in   []string
		want []string
	}{
		{[]string{"clean"}, []string{"clean"}},
		{[]string{"html"}, []string{"clean", "gen", "docs"}},
		{[]string{"all"}, []string{"clean", "gen", "docs", "lint", "all"}},
		{[]string{"lint", "docs"}, []string{"clean", "lint", "gen", "docs"}},
		{[]string{"docs", "html"}, []string{"clean", "gen", "docs"}},
	}
	for _, line := range data {
		plan, err := ts.plan(line.in)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, task := range plan {
			got = append(got, task.Name)
		}
		if diff := cmp.Diff(line.want, got); diff != "" {
			t.Errorf("%v: mismatch (-want +got):\n%s", line.in, diff)
		}
	}
}

func TestTaskSet_Plan_Errors(t *testing.T) {
	t.Parallel()
	ts := makeTaskSet(t,
		&Task{Name: "a", Deps: []string{"b"}},
		&Task{Name: "b", Deps: []string{"c"}},
		&Task{Name: "c", Deps: []string{"a"}},
		&Task{Name: "self", Deps: []string{"self"}},
		&Task{Name: "d", Deps: []string{"b"}},
	)
	data := []struct {
		in  string
		err string
	}{
		{"a", "dependency cycle: a -> b -> c -> a"},
		{"d", "dependency cycle: b -> c -> a -> b"},
		{"self", "dependency cycle: self -> self"},
		{"nope", "no such task \"nope\""},
	}
	for _, line := range data {
		_, err := ts.plan([]string{line.in})
		if err == nil {
			t.Fatalf("%s: expected an error", line.in)
		}
		if diff := cmp.Diff(line.err, err.Error()); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", line.in, diff)
		}
	}
}

func makeTaskSet(t *testing.T, tasks ...*Task) *taskSet {
	t.Helper()
	ts := &taskSet{}
	for _, task := range tasks {
		if err := ts.add(task); err != nil {
			t.Fatal(err)
		}
	}
	return ts
}
