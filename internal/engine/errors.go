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
	"strings"

	luciErrors "go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/data/stringset"
	"go.starlark.net/starlark"
)

// ErrNoTasks is returned when a task file registers no task.
var ErrNoTasks = errors.New("no task registered; did you forget to call task()?")

// BacktraceableError is an error that has a starlark backtrace attached to it.
type BacktraceableError interface {
	error
	// Backtrace returns a user-friendly error message describing the stack
	// of calls that led to this error, along with the error message itself.
	Backtrace() string
}

// failure is an error synthesized from a resolve error, with the position
// where it happened.
type failure struct {
	Message string
	Stack   starlark.CallStack
}

// Error is the short error message.
func (f *failure) Error() string {
	return f.Message
}

// Backtrace returns a user-friendly error message describing the stack of
// calls that led to this error.
func (f *failure) Backtrace() string {
	return f.Stack.String()
}

// evalError is starlark.EvalError with an optimized Backtrace() function.
type evalError struct {
	*starlark.EvalError
}

// Backtrace returns a user-friendly error message describing the stack
// of calls that led to this error.
func (e *evalError) Backtrace() string {
	c := e.CallStack
	if len(c) > 0 && c[len(c)-1].Pos.Filename() == "<builtin>" {
		c = c[:len(c)-1]
	}
	return c.String()
}

var (
	_ BacktraceableError = (*failure)(nil)
	_ BacktraceableError = (*evalError)(nil)
)

// ExitError is returned by an exec step when the process exits with a
// return code not listed as acceptable.
type ExitError struct {
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed with exit code %d: %s", e.Code, strings.Join(e.Args, " "))
}

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// StepError is returned by Run() when a step fails. It aborts the remaining
// steps of the task and every task after it.
type StepError struct {
	// Task is the name of the task being run.
	Task string
	// Index is the zero based position of the step in the task.
	Index int
	// Step is the description of the step.
	Step string
	// Err is the underlying cause.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("task %s: step #%d %s: %s", e.Task, e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code the taskrun process should exit with: the
// code of the failing subprocess when there is one, otherwise 1.
func (e *StepError) ExitCode() int {
	var errExit *ExitError
	if errors.As(e.Err, &errExit) && errExit.Code > 0 {
		return errExit.Code
	}
	return 1
}

// mergeErrs returns a list of merged errors as a MultiError, deduplicating
// errors with the same backtrace.
func mergeErrs(err ...error) error {
	var errs luciErrors.MultiError
	seen := stringset.New(len(err))
	for _, e := range err {
		var bt BacktraceableError
		if !errors.As(e, &bt) || seen.Add(bt.Backtrace()) {
			errs = append(errs, e)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errs
}
