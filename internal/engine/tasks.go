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
	"fmt"
	"slices"
	"strings"
)

// Task is a named sequence of steps registered by task().
type Task struct {
	// Name is the canonical name of the task.
	Name string
	// Desc is a one line description shown in the listing.
	Desc string
	// Aliases are alternate names the task can be invoked by.
	Aliases []string
	// Deps are run before the task, in order.
	Deps []string
	// Outputs are directories whose digest is reported on success.
	Outputs []string

	steps []step
}

// TaskInfo is the listing view of a Task.
type TaskInfo struct {
	Name    string
	Desc    string
	Aliases []string
}

// Steps returns the description of each step.
func (t *Task) Steps() []string {
	out := make([]string, len(t.steps))
	for i, s := range t.steps {
		out[i] = s.String()
	}
	return out
}

// taskSet is the ordered set of registered tasks.
//
// Tasks are registered serially while loading, no lock is needed.
type taskSet struct {
	// ordered is in declaration order.
	ordered []*Task
	// byName indexes names and aliases.
	byName map[string]*Task
}

func (ts *taskSet) add(t *Task) error {
	if ts.byName == nil {
		ts.byName = map[string]*Task{}
	}
	names := append([]string{t.Name}, t.Aliases...)
	for i, n := range names {
		if slices.Contains(names[:i], n) {
			return fmt.Errorf("task %q lists name %q twice", t.Name, n)
		}
		if !taskRe.MatchString(n) {
			return fmt.Errorf("invalid task name %q", n)
		}
		if other, ok := ts.byName[n]; ok {
			if other.Name == n {
				return fmt.Errorf("can't register two tasks with the same name %q", n)
			}
			return fmt.Errorf("%q is already an alias of task %q", n, other.Name)
		}
	}
	for _, n := range names {
		ts.byName[n] = t
	}
	ts.ordered = append(ts.ordered, t)
	return nil
}

func (ts *taskSet) get(name string) (*Task, error) {
	if t, ok := ts.byName[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("no such task %q", name)
}

// validate verifies every dependency refers to a registered task.
func (ts *taskSet) validate() error {
	if len(ts.ordered) == 0 {
		return ErrNoTasks
	}
	var errs []error
	for _, t := range ts.ordered {
		for _, d := range t.Deps {
			if _, ok := ts.byName[d]; !ok {
				errs = append(errs, fmt.Errorf("task %q depends on unknown task %q", t.Name, d))
			}
		}
	}
	if len(errs) != 0 {
		return mergeErrs(errs...)
	}
	return nil
}

// list returns the tasks in declaration order, or sorted by name.
func (ts *taskSet) list(sorted bool) []TaskInfo {
	out := make([]TaskInfo, 0, len(ts.ordered))
	for _, t := range ts.ordered {
		out = append(out, TaskInfo{Name: t.Name, Desc: t.Desc, Aliases: t.Aliases})
	}
	if sorted {
		slices.SortFunc(out, func(a, b TaskInfo) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
	return out
}

// plan expands the named tasks with their dependencies. Dependencies come
// first, depth first in declaration order, and each task appears once.
func (ts *taskSet) plan(names []string) ([]*Task, error) {
	var out []*Task
	done := map[*Task]struct{}{}
	var stack []*Task
	var visit func(t *Task) error
	visit = func(t *Task) error {
		if _, ok := done[t]; ok {
			return nil
		}
		if i := slices.Index(stack, t); i != -1 {
			var cycle []string
			for _, s := range stack[i:] {
				cycle = append(cycle, s.Name)
			}
			cycle = append(cycle, t.Name)
			return errors.New("dependency cycle: " + strings.Join(cycle, " -> "))
		}
		stack = append(stack, t)
		for _, d := range t.Deps {
			dt, err := ts.get(d)
			if err != nil {
				return err
			}
			if err := visit(dt); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		done[t] = struct{}{}
		out = append(out, t)
		return nil
	}
	for _, n := range names {
		t, err := ts.get(n)
		if err != nil {
			return nil, err
		}
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}
