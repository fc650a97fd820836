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
	"path"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.starlark.net/starlark"
)

// step is one unit of work of a task. Steps are immutable starlark values
// created by the sh.* constructors.
type step interface {
	starlark.Value
	run(ctx context.Context, s *runState) error
}

// stepBase implements the common part of starlark.Value for steps.
type stepBase struct{}

func (stepBase) Type() string          { return "step" }
func (stepBase) Freeze()               {}
func (stepBase) Truth() starlark.Bool  { return true }
func (stepBase) Hash() (uint32, error) { return 0, errors.New("unhashable type: step") }

type rmStep struct {
	stepBase
	path string
}

func (r *rmStep) String() string { return fmt.Sprintf("rm(%q)", r.path) }

type mkdirStep struct {
	stepBase
	path string
}

func (m *mkdirStep) String() string { return fmt.Sprintf("mkdir(%q)", m.path) }

type copyStep struct {
	stepBase
	src, dst string
}

func (c *copyStep) String() string { return fmt.Sprintf("copy(%q, %q)", c.src, c.dst) }

type overlayStep struct {
	stepBase
	src, dst string
	exclude  []string
}

func (o *overlayStep) String() string { return fmt.Sprintf("overlay(%q, %q)", o.src, o.dst) }

type execStep struct {
	stepBase
	args       []string
	cwd        string
	env        map[string]string
	okRetcodes []int
}

func (e *execStep) String() string {
	q := make([]string, len(e.args))
	for i, a := range e.args {
		q[i] = strconv.Quote(a)
	}
	return "exec([" + strings.Join(q, ", ") + "])"
}

type listStep struct {
	stepBase
	sorted bool
}

func (l *listStep) String() string {
	if l.sorted {
		return "list_tasks(sort = True)"
	}
	return "list_tasks()"
}

var (
	_ step = (*rmStep)(nil)
	_ step = (*mkdirStep)(nil)
	_ step = (*copyStep)(nil)
	_ step = (*overlayStep)(nil)
	_ step = (*execStep)(nil)
	_ step = (*listStep)(nil)
)

// getSh returns the sh struct of step constructors.
//
// Make sure to update //doc/stdlib.star whenever this function is modified.
func getSh() starlark.StringDict {
	return starlark.StringDict{
		"copy":       starlark.NewBuiltin("sh.copy", shCopy),
		"exec":       starlark.NewBuiltin("sh.exec", shExec),
		"list_tasks": starlark.NewBuiltin("sh.list_tasks", shListTasks),
		"mkdir":      starlark.NewBuiltin("sh.mkdir", shMkdir),
		"overlay":    starlark.NewBuiltin("sh.overlay", shOverlay),
		"rm":         starlark.NewBuiltin("sh.rm", shRm),
	}
}

func shRm(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argpath starlark.String
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "path", &argpath); err != nil {
		return nil, err
	}
	p, err := checkPath("path", string(argpath))
	if err != nil {
		return nil, nameErr(fn, err)
	}
	if p == "." {
		return nil, nameErr(fn, errors.New("refusing to remove the root"))
	}
	return &rmStep{path: p}, nil
}

func shMkdir(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argpath starlark.String
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "path", &argpath); err != nil {
		return nil, err
	}
	p, err := checkPath("path", string(argpath))
	if err != nil {
		return nil, nameErr(fn, err)
	}
	return &mkdirStep{path: p}, nil
}

func shCopy(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argsrc, argdst starlark.String
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "src", &argsrc, "dst", &argdst); err != nil {
		return nil, err
	}
	src, err := checkPath("src", string(argsrc))
	if err != nil {
		return nil, nameErr(fn, err)
	}
	dst, err := checkPath("dst", string(argdst))
	if err != nil {
		return nil, nameErr(fn, err)
	}
	if src == dst {
		return nil, nameErr(fn, errors.New("\"src\" and \"dst\" must be different"))
	}
	return &copyStep{src: src, dst: dst}, nil
}

func shOverlay(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argsrc, argdst starlark.String
	var argexclude starlark.Sequence = starlark.NewList(nil)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"src", &argsrc,
		"dst", &argdst,
		"exclude?", &argexclude,
	); err != nil {
		return nil, err
	}
	src, err := checkPath("src", string(argsrc))
	if err != nil {
		return nil, nameErr(fn, err)
	}
	dst, err := checkPath("dst", string(argdst))
	if err != nil {
		return nil, nameErr(fn, err)
	}
	if src == dst {
		return nil, nameErr(fn, errors.New("\"src\" and \"dst\" must be different"))
	}
	exclude, err := sequenceToStrings(argexclude)
	if err != nil {
		return nil, nameErr(fn, fmt.Errorf("for parameter \"exclude\": %w", err))
	}
	for _, e := range exclude {
		if e == "" {
			return nil, nameErr(fn, errors.New("\"exclude\" patterns cannot be empty strings"))
		}
	}
	return &overlayStep{src: src, dst: dst, exclude: exclude}, nil
}

func shExec(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argcmd starlark.Value
	var argcwd starlark.String
	var argenv = starlark.NewDict(0)
	var argokRetcodes starlark.Value = starlark.None
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"cmd", &argcmd,
		"cwd?", &argcwd,
		"env?", &argenv,
		"ok_retcodes?", &argokRetcodes,
	); err != nil {
		return nil, err
	}
	var cmd []string
	switch x := argcmd.(type) {
	case starlark.String:
		var err error
		if cmd, err = shellwords.Parse(string(x)); err != nil {
			return nil, nameErr(fn, fmt.Errorf("for parameter \"cmd\": %w", err))
		}
	case starlark.Sequence:
		var err error
		if cmd, err = sequenceToStrings(x); err != nil {
			return nil, nameErr(fn, fmt.Errorf("for parameter \"cmd\": %w", err))
		}
	default:
		return nil, nameErr(fn, fmt.Errorf("for parameter \"cmd\": got %s, want string or sequence of strings", argcmd.Type()))
	}
	if len(cmd) == 0 || cmd[0] == "" {
		return nil, nameErr(fn, errors.New("cmdline must not be empty"))
	}
	e := &execStep{args: cmd, okRetcodes: []int{0}}
	if argcwd != "" {
		cwd, err := checkPath("cwd", string(argcwd))
		if err != nil {
			return nil, nameErr(fn, err)
		}
		e.cwd = cwd
	}
	if argenv.Len() != 0 {
		e.env = make(map[string]string, argenv.Len())
		for _, item := range argenv.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, nameErr(fn, fmt.Errorf("\"env\" key is not a string: %s", item[0]))
			}
			v, ok := item[1].(starlark.String)
			if !ok {
				return nil, nameErr(fn, fmt.Errorf("\"env\" value is not a string: %s", item[1]))
			}
			e.env[string(k)] = string(v)
		}
	}
	if argokRetcodes != starlark.None {
		seq, ok := argokRetcodes.(starlark.Sequence)
		var codes []int
		if ok {
			codes = sequenceToInts(seq)
		}
		if !ok || codes == nil {
			return nil, nameErr(fn, fmt.Errorf("for parameter \"ok_retcodes\": got %s, wanted sequence of ints", argokRetcodes))
		}
		e.okRetcodes = codes
	}
	return e, nil
}

func shListTasks(th *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var argsort starlark.Bool
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "sort?", &argsort); err != nil {
		return nil, err
	}
	return &listStep{sorted: bool(argsort)}, nil
}

// nameErr prefixes err with the builtin name, the way UnpackArgs does.
func nameErr(fn *starlark.Builtin, err error) error {
	return fmt.Errorf("%s: %w", fn.Name(), err)
}

// checkPath verifies a step path argument is a clean-able relative path and
// returns it cleaned, POSIX style. Confinement against symlinks happens at
// run time, once the file system state is known.
func checkPath(arg, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%q must not be empty", arg)
	}
	if strings.Contains(p, "\\") {
		return "", fmt.Errorf("%q must use forward slashes: %s", arg, p)
	}
	if strings.HasPrefix(p, "/") || (len(p) >= 2 && p[1] == ':') {
		return "", fmt.Errorf("%q must be relative to the root: %s", arg, p)
	}
	c := path.Clean(p)
	if c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%q must not escape the root: %s", arg, p)
	}
	return c, nil
}

// sequenceToStrings converts a starlark sequence of strings to a slice.
func sequenceToStrings(seq starlark.Sequence) ([]string, error) {
	var out []string
	it := seq.Iterate()
	defer it.Done()
	var v starlark.Value
	for i := 0; it.Next(&v); i++ {
		s, ok := v.(starlark.String)
		if !ok {
			return nil, fmt.Errorf("item #%d: got %s, want string", i+1, v.Type())
		}
		out = append(out, string(s))
	}
	return out, nil
}

// sequenceToInts converts a starlark sequence of ints, returning nil on
// failure.
func sequenceToInts(seq starlark.Sequence) []int {
	out := make([]int, 0, seq.Len())
	it := seq.Iterate()
	defer it.Done()
	var v starlark.Value
	for it.Next(&v) {
		i, err := starlark.AsInt32(v)
		if err != nil {
			return nil
		}
		out = append(out, i)
	}
	return out
}
