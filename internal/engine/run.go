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
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/builderbench/taskrun/internal/fsutil"
	tlog "github.com/builderbench/taskrun/internal/log"
	"github.com/rs/zerolog"
	"go.chromium.org/luci/starlark/builtins"
	"go.starlark.net/starlark"
	"golang.org/x/mod/sumdb/dirhash"
)

// DefaultEntryPoint is the default basename of the task file.
const DefaultEntryPoint = "tasks.star"

// DefaultTask is run when no task is named and taskrun.yaml doesn't set
// default_task.
const DefaultTask = "default"

// Report exposes callbacks that the engine calls while loading and running
// tasks.
type Report interface {
	// TaskStarted is called before the first step of a task runs.
	TaskStarted(ctx context.Context, task string)
	// StepStarted is called before a step runs. index is zero based.
	StepStarted(ctx context.Context, task string, index int, step string)
	// StepOutput is called for each line a subprocess writes, without the
	// trailing newline. It may be called concurrently for stdout and stderr.
	StepOutput(ctx context.Context, task string, stream Stream, line string)
	// StepCompleted is called after a step ran, with its error if it failed.
	StepCompleted(ctx context.Context, task string, index int, step string, d time.Duration, err error)
	// OutputDigest is called after a task succeeded for each of its declared
	// outputs, with the dirhash "h1:" digest of its content.
	OutputDigest(ctx context.Context, task, output, digest string)
	// TaskCompleted is called when a task is completed, successfully or not.
	TaskCompleted(ctx context.Context, task string, start time.Time, d time.Duration, err error)
	// Print is called when the print() starlark function is called.
	Print(ctx context.Context, task, file string, line int, message string)
	// List is called to display the available tasks.
	List(ctx context.Context, tasks []TaskInfo) error
}

// Options is the options for Run() and List().
type Options struct {
	// Report gets all the events. This is the only required argument.
	//
	// It is recommended to use reporting.Get() which returns the right
	// implementation based on the environment (CI, interactive, etc).
	Report Report
	// Dir is the directory in which to start looking for the task file. The
	// first directory containing it, walking up to the git checkout top, is
	// the root. It defaults to the current working directory.
	Dir string
	// EntryPoint is the task file basename. Defaults to the value in
	// taskrun.yaml, then tasks.star.
	EntryPoint string
	// Tasks are the tasks to run, in order. When empty, the default task is
	// run, or the tasks are listed if there is none.
	Tasks []string
	// Vars contains the user-specified runtime variables and their values.
	Vars map[string]string
	// Sort lists tasks by name instead of declaration order.
	Sort bool

	// config is the configuration file. Defaults to taskrun.yaml. Only used
	// in unit tests.
	config string
}

// project is a loaded task file.
type project struct {
	// root is the absolute path of the project root, symlinks resolved.
	root  string
	doc   *Document
	tasks *taskSet
}

// Run loads the task file and runs the requested tasks with their
// dependencies. It stops at the first failing step and returns a *StepError.
func Run(ctx context.Context, o *Options) error {
	p, err := load(ctx, o)
	if err != nil {
		return err
	}
	names := o.Tasks
	if len(names) == 0 {
		if p.doc.DefaultTask != "" {
			names = []string{p.doc.DefaultTask}
		} else if _, err := p.tasks.get(DefaultTask); err == nil {
			names = []string{DefaultTask}
		} else {
			return o.Report.List(ctx, p.tasks.list(o.Sort))
		}
	}
	plan, err := p.tasks.plan(names)
	if err != nil {
		return err
	}
	s := &runState{
		root:           p.root,
		r:              o.Report,
		tasks:          p.tasks,
		cleanEnv:       p.doc.CleanEnv,
		passthroughEnv: p.doc.PassthroughEnv,
		log:            logger(),
	}
	for _, t := range plan {
		if err := s.runTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// List loads the task file and reports the available tasks.
func List(ctx context.Context, o *Options) error {
	p, err := load(ctx, o)
	if err != nil {
		return err
	}
	return o.Report.List(ctx, p.tasks.list(o.Sort))
}

// runState is the state while running tasks.
type runState struct {
	root           string
	r              Report
	tasks          *taskSet
	cleanEnv       bool
	passthroughEnv []string
	log            *zerolog.Logger

	// task is the name of the task being run.
	task string
}

func (s *runState) confine(p string) (string, error) {
	return fsutil.Confine(s.root, p)
}

func (s *runState) runTask(ctx context.Context, t *Task) error {
	start := time.Now()
	s.task = t.Name
	s.log.Debug().Str("task", t.Name).Int("steps", len(t.steps)).Msg("task started")
	s.r.TaskStarted(ctx, t.Name)
	var err error
	for i, st := range t.steps {
		desc := st.String()
		s.r.StepStarted(ctx, t.Name, i, desc)
		stepStart := time.Now()
		err = st.run(ctx, s)
		s.r.StepCompleted(ctx, t.Name, i, desc, time.Since(stepStart), err)
		if err != nil {
			err = &StepError{Task: t.Name, Index: i, Step: desc, Err: err}
			break
		}
	}
	if err == nil {
		for _, out := range t.Outputs {
			var digest string
			if digest, err = s.digest(out); err != nil {
				break
			}
			s.r.OutputDigest(ctx, t.Name, out, digest)
		}
	}
	s.r.TaskCompleted(ctx, t.Name, start, time.Since(start), err)
	return err
}

// digest returns the dirhash of an output directory.
func (s *runState) digest(out string) (string, error) {
	p, err := s.confine(out)
	if err != nil {
		return "", fmt.Errorf("output %s: %w", out, err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("output %s was not produced", out)
		}
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("output %s is not a directory", out)
	}
	return dirhash.HashDir(p, out, dirhash.Hash1)
}

// load resolves the root, reads taskrun.yaml and executes the task file.
func load(ctx context.Context, o *Options) (*project, error) {
	if o.Report == nil {
		return nil, errors.New("a Report is required")
	}
	config := o.config
	if config == "" {
		config = DefaultConfig
	}
	if o.EntryPoint != "" && filepath.IsAbs(o.EntryPoint) {
		return nil, errors.New("entry point must not be an absolute path")
	}
	root, err := resolveRoot(ctx, o.Dir, o.EntryPoint, config)
	if err != nil {
		return nil, err
	}
	absConfig := config
	if !filepath.IsAbs(absConfig) {
		absConfig = filepath.Join(root, absConfig)
	}
	doc, err := readDocument(absConfig)
	if errors.Is(err, fs.ErrNotExist) {
		doc, err = &Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err = doc.Validate(); err != nil {
		return nil, err
	}
	entryPoint := o.EntryPoint
	if entryPoint == "" {
		entryPoint = doc.EntryPoint
	}
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint
	}
	entryPoint = filepath.ToSlash(filepath.Clean(entryPoint))
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(entryPoint))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no %s file in %s", entryPoint, root)
		}
		return nil, err
	}

	st := &loadState{
		doc:       doc,
		overrides: o.Vars,
		declared:  map[string]struct{}{},
	}
	ctx = context.WithValue(ctx, &loadStateCtxKey, st)
	failures := builtins.FailureCollector{}
	env := newStarlarkEnv(os.DirFS(root))
	env.threadModifier = failures.Install
	pi := func(th *starlark.Thread, msg string) {
		st.printCalled = true
		pos := th.CallFrame(1).Pos
		o.Report.Print(ctx, "", pos.Filename(), int(pos.Line), msg)
	}
	sk, err := parseSourceKey(sourceKey{}, "//"+entryPoint)
	if err != nil {
		return nil, err
	}
	logger().Debug().Str("root", root).Str("entry_point", entryPoint).Msg("loading")
	if _, err := env.load(ctx, sk, pi); err != nil {
		if f := failures.LatestFailure(); f != nil {
			// Prefer the collected failure, it has the user trace.
			return nil, f
		}
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return nil, &evalError{evalErr}
		}
		return nil, err
	}
	st.doneLoading = true

	var errs []error
	if err := st.tasks.validate(); err != nil {
		errs = append(errs, err)
	}
	for name := range o.Vars {
		if _, ok := st.declared[name]; !ok && st.docVar(name) == nil {
			errs = append(errs, fmt.Errorf("var not declared: %s", name))
		}
	}
	if len(errs) != 0 {
		return nil, mergeErrs(errs...)
	}
	return &project{root: root, doc: doc, tasks: &st.tasks}, nil
}

// resolveRoot returns the first directory from dir upward containing the
// entry point or the config file. The search stops at the git checkout top
// when there is one.
func resolveRoot(ctx context.Context, dir, entryPoint, config string) (string, error) {
	if dir == "" {
		dir = "."
	}
	fi, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("no such directory: %s", dir)
	} else if err != nil {
		return "", err
	} else if !fi.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return "", err
	}
	if dir, err = filepath.EvalSymlinks(dir); err != nil {
		return "", err
	}
	top, err := gitTopLevel(ctx, dir)
	if err != nil {
		return "", err
	}
	if top != "" {
		if real, err := filepath.EvalSymlinks(top); err == nil {
			top = real
		}
	}
	names := []string{DefaultEntryPoint}
	if entryPoint != "" {
		names = []string{entryPoint}
	}
	if !filepath.IsAbs(config) {
		names = append(names, config)
	}
	for d := dir; ; {
		for _, n := range names {
			if _, err := os.Stat(filepath.Join(d, n)); err == nil {
				return d, nil
			}
		}
		parent := filepath.Dir(d)
		if d == top || parent == d {
			break
		}
		d = parent
	}
	return "", fmt.Errorf("no %s file found in %s or its parents", names[0], dir)
}

func logger() *zerolog.Logger {
	l := tlog.WithComponent("engine")
	return &l
}
