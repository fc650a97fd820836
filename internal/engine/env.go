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
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

type printImpl func(th *starlark.Thread, msg string)

// sourceKey is a reference to a starlark file as parsed by load().
//
// relpath is always relative to the project root, POSIX style.
type sourceKey struct {
	orig    string
	relpath string
}

func (s *sourceKey) String() string {
	return "//" + s.relpath
}

// parseSourceKey resolves a load() argument relative to the file calling it.
//
// "//x.star" is root relative, anything else is relative to the parent's
// directory. Escaping the root is refused.
func parseSourceKey(parent sourceKey, s string) (sourceKey, error) {
	sk := sourceKey{orig: s}
	if s == "" {
		return sk, errors.New("empty reference")
	}
	if strings.HasPrefix(s, "@") {
		return sk, fmt.Errorf("external packages are not supported: %s", s)
	}
	if strings.HasPrefix(s, "//") {
		sk.relpath = path.Clean(s[2:])
	} else {
		sk.relpath = path.Clean(path.Join(path.Dir(parent.relpath), s))
	}
	if !fs.ValidPath(sk.relpath) || sk.relpath == "." {
		return sk, fmt.Errorf("illegal reference outside the root: %s", s)
	}
	if path.Ext(sk.relpath) != ".star" {
		return sk, fmt.Errorf("illegal reference without .star suffix: %s", s)
	}
	return sk, nil
}

// loadedSource is the outcome of a load() statement.
type loadedSource struct {
	mu      sync.Mutex
	globals starlark.StringDict
	err     error
}

// starlarkEnv is the environment in which task files are executed.
type starlarkEnv struct {
	// Immutable.
	// globals is available to all load() statements.
	globals starlark.StringDict
	// root is the project root.
	root fs.FS
	// Options for parsing Starlark.
	opts *syntax.FileOptions
	// threadModifier, when set, is called on each new thread.
	threadModifier func(th *starlark.Thread)

	// Mutable.
	mu sync.Mutex
	// sources are the processed sources. Augments as more sources are added.
	sources map[string]*loadedSource
}

func newStarlarkEnv(root fs.FS) *starlarkEnv {
	return &starlarkEnv{
		globals: getPredeclared(),
		root:    root,
		opts:    starlarkOptions(),
		sources: map[string]*loadedSource{},
	}
}

func starlarkOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		// Enable not-yet-standard Starlark features.
		Set:       true,
		While:     true,
		Recursion: true,
	}
}

// thread returns a new starlark thread.
func (e *starlarkEnv) thread(ctx context.Context, name string, pi printImpl) *starlark.Thread {
	t := &starlark.Thread{Name: name, Print: pi}
	t.SetLocal("taskrun.context", ctx)
	if e.threadModifier != nil {
		e.threadModifier(t)
	}
	return t
}

// getContext returns the context.Context given a starlark thread.
func getContext(t *starlark.Thread) context.Context {
	return t.Local("taskrun.context").(context.Context)
}

// load loads a starlark source file and everything it load()s.
func (e *starlarkEnv) load(ctx context.Context, sk sourceKey, pi printImpl) (starlark.StringDict, error) {
	t := e.thread(ctx, sk.String(), pi)
	t.Load = func(th *starlark.Thread, str string) (starlark.StringDict, error) {
		skn, err := parseSourceKey(th.Local("taskrun.src").(sourceKey), str)
		if err != nil {
			return nil, err
		}
		return e.loadInner(th, skn)
	}
	t.SetLocal("taskrun.src", sk)
	return e.loadInner(t, sk)
}

func (e *starlarkEnv) loadInner(th *starlark.Thread, sk sourceKey) (starlark.StringDict, error) {
	key := sk.String()
	e.mu.Lock()
	if source, ok := e.sources[key]; ok {
		e.mu.Unlock()
		// Task files are loaded from a single thread, so a held lock means
		// the file is still being executed further up the load() chain.
		if !source.mu.TryLock() {
			return nil, fmt.Errorf("%s was loaded in a cycle dependency graph", key)
		}
		defer source.mu.Unlock()
		return source.globals, source.err
	}

	source := &loadedSource{err: fmt.Errorf("load(%q) failed: panic while loading", sk.orig)}
	source.mu.Lock()
	e.sources[key] = source
	e.mu.Unlock()
	defer source.mu.Unlock()

	f, err := e.root.Open(sk.relpath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Hide the underlying error for determinism.
			source.err = fmt.Errorf("%s not found", sk.relpath)
		} else {
			source.err = err
		}
		return source.globals, source.err
	}
	d, err := io.ReadAll(f)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		source.err = err
		return source.globals, source.err
	}
	old := th.Local("taskrun.src").(sourceKey)
	th.SetLocal("taskrun.src", sk)
	fp := syntax.FilePortion{Content: d, FirstLine: 1, FirstCol: 1}
	source.globals, source.err = starlark.ExecFileOptions(e.opts, th, key, fp, e.globals)
	th.SetLocal("taskrun.src", old)
	var errl resolve.ErrorList
	if errors.As(source.err, &errl) {
		// Only keep the first one.
		source.err = errl[0]
	}
	var errre resolve.Error
	if errors.As(source.err, &errre) {
		// Resolve errors have no call stack, synthesize one so the user gets
		// a position.
		source.err = &failure{
			Message: errre.Msg,
			Stack: starlark.CallStack{
				starlark.CallFrame{Name: "<toplevel>", Pos: errre.Pos},
			},
		}
	}
	return source.globals, source.err
}
