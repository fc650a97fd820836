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
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.chromium.org/luci/starlark/builtins"
	"go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// loadState is the state mutated while the task file is executed.
type loadState struct {
	doc *Document
	// overrides are the --var values.
	overrides map[string]string
	// declared are the vars declared via var().
	declared map[string]struct{}
	tasks    taskSet

	printCalled bool
	// Set once the entry point finished executing; task() is refused after.
	doneLoading bool
}

var loadStateCtxKey = "taskrun.loadState"

// ctxLoadState pulls out *loadState from the context.
//
// Panics if not there.
func ctxLoadState(ctx context.Context) *loadState {
	return ctx.Value(&loadStateCtxKey).(*loadState)
}

// getPredeclared returns the predeclared starlark symbols in the runtime.
//
// Make sure to update //doc/stdlib.star whenever this function is modified.
func getPredeclared() starlark.StringDict {
	// The upstream starlark interpreter includes all the symbols described at
	// https://github.com/google/starlark-go/blob/HEAD/doc/spec.md#built-in-constants-and-functions
	return starlark.StringDict{
		"task": starlark.NewBuiltin("task", taskrunTask),
		"var":  starlark.NewBuiltin("var", taskrunVar),
		"sh":   toValue("sh", getSh()),
		"taskrun": toValue("taskrun", starlark.StringDict{
			"commit_hash": starlark.String(getCommitHash()),
			"version": starlark.Tuple{
				starlark.MakeInt(Version[0]), starlark.MakeInt(Version[1]), starlark.MakeInt(Version[2]),
			},
		}),

		// https://bazel.build/rules/lib/json so it feels natural to bazel users.
		"json": json.Module,

		"fail":       builtins.Fail,
		"stacktrace": builtins.Stacktrace,
		"struct":     builtins.Struct,
	}
}

// taskrunTask implements native function task().
//
// Make sure to update //doc/stdlib.star whenever this function is modified.
func taskrunTask(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argname starlark.String
	var argsteps starlark.Sequence = starlark.NewList(nil)
	var argdesc starlark.String
	var argdeps starlark.Sequence = starlark.NewList(nil)
	var argaliases starlark.Sequence = starlark.NewList(nil)
	var argoutputs starlark.Sequence = starlark.NewList(nil)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"name", &argname,
		"steps?", &argsteps,
		"desc?", &argdesc,
		"deps?", &argdeps,
		"aliases?", &argaliases,
		"outputs?", &argoutputs,
	); err != nil {
		return nil, err
	}
	s := ctxLoadState(getContext(th))
	if s.doneLoading {
		return nil, nameErr(fn, errors.New("can't register tasks after done loading"))
	}
	t := &Task{Name: string(argname), Desc: string(argdesc)}
	var err error
	if t.Deps, err = sequenceToStrings(argdeps); err != nil {
		return nil, nameErr(fn, fmt.Errorf("for parameter \"deps\": %w", err))
	}
	if t.Aliases, err = sequenceToStrings(argaliases); err != nil {
		return nil, nameErr(fn, fmt.Errorf("for parameter \"aliases\": %w", err))
	}
	outputs, err := sequenceToStrings(argoutputs)
	if err != nil {
		return nil, nameErr(fn, fmt.Errorf("for parameter \"outputs\": %w", err))
	}
	for _, o := range outputs {
		c, err := checkPath("outputs", o)
		if err != nil {
			return nil, nameErr(fn, err)
		}
		t.Outputs = append(t.Outputs, c)
	}
	it := argsteps.Iterate()
	defer it.Done()
	var v starlark.Value
	for i := 0; it.Next(&v); i++ {
		st, ok := v.(step)
		if !ok {
			return nil, nameErr(fn, fmt.Errorf("for parameter \"steps\": item #%d: got %s, want step", i+1, v.Type()))
		}
		t.steps = append(t.steps, st)
	}
	if len(t.steps) == 0 && len(t.Deps) == 0 {
		return nil, nameErr(fn, fmt.Errorf("task %q has neither steps nor deps", t.Name))
	}
	if err := s.tasks.add(t); err != nil {
		return nil, nameErr(fn, err)
	}
	return starlark.None, nil
}

// taskrunVar implements native function var().
//
// Make sure to update //doc/stdlib.star whenever this function is modified.
func taskrunVar(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argname, argdefault starlark.String
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"name", &argname,
		"default?", &argdefault,
	); err != nil {
		return nil, err
	}
	name := string(argname)
	if !identRe.MatchString(name) {
		return nil, nameErr(fn, fmt.Errorf("invalid var name %q", name))
	}
	s := ctxLoadState(getContext(th))
	if _, ok := s.declared[name]; ok {
		return nil, nameErr(fn, fmt.Errorf("var %q declared twice", name))
	}
	s.declared[name] = struct{}{}
	if v, ok := s.overrides[name]; ok {
		return starlark.String(v), nil
	}
	if v := s.docVar(name); v != nil {
		return starlark.String(v.Default), nil
	}
	return argdefault, nil
}

func (s *loadState) docVar(name string) *Var {
	for _, v := range s.doc.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// getCommitHash return the git commit hash that was used to build this
// executable.
func getCommitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

// toValue converts a StringDict to a Value.
func toValue(name string, d starlark.StringDict) starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String(name), d)
}
