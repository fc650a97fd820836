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


//go:build unix

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestExecStep_Output(t *testing.T) {
	t.Parallel()
	s := newTestState(t)
	e := &execStep{args: []string{"sh", "-c", "echo a; echo b; printf c"}, okRetcodes: []int{0}}
	if err := e.run(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	want := []string{"stdout test: a", "stdout test: b", "stdout test: c"}
	if diff := cmp.Diff(want, s.r.(*recordingReport).getEvents()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExecStep_Stderr(t *testing.T) {
	t.Parallel()
	s := newTestState(t)
	e := &execStep{args: []string{"sh", "-c", "echo oops >&2"}, okRetcodes: []int{0}}
	if err := e.run(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"stderr test: oops"}, s.r.(*recordingReport).getEvents()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExecStep_RetCodes(t *testing.T) {
	t.Parallel()
	data := []struct {
		okRetcodes []int
		want       int
	}{
		{[]int{0}, 3},
		{[]int{0, 3}, 0},
		{[]int{3}, 0},
	}
	for _, line := range data {
		s := newTestState(t)
		e := &execStep{args: []string{"sh", "-c", "exit 3"}, okRetcodes: line.okRetcodes}
		err := e.run(context.Background(), s)
		if line.want == 0 {
			if err != nil {
				t.Errorf("%v: %v", line.okRetcodes, err)
			}
			continue
		}
		var errExit *ExitError
		if !errors.As(err, &errExit) || errExit.Code != line.want {
			t.Errorf("%v: unexpected error %v", line.okRetcodes, err)
		}
	}
	s := newTestState(t)
	e := &execStep{args: []string{"true"}, okRetcodes: []int{1}}
	if err := e.run(context.Background(), s); err == nil || err.Error() != "command failed with exit code 0: true" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecStep_CwdEnv(t *testing.T) {
	t.Parallel()
	s := newTestState(t)
	if err := os.Mkdir(filepath.Join(s.root, "src"), 0o700); err != nil {
		t.Fatal(err)
	}
	e := &execStep{
		args:       []string{"sh", "-c", "pwd; echo $TASKRUN_TEST_VALUE"},
		cwd:        "src",
		env:        map[string]string{"TASKRUN_TEST_VALUE": "hello world"},
		okRetcodes: []int{0},
	}
	if err := e.run(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	want := []string{"stdout test: " + filepath.Join(s.root, "src"), "stdout test: hello world"}
	if diff := cmp.Diff(want, s.r.(*recordingReport).getEvents()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExecStep_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestState(t)
	e := &execStep{args: []string{"taskrun-does-not-exist"}, okRetcodes: []int{0}}
	err := e.run(context.Background(), s)
	if err == nil {
		t.Fatal("expected an error")
	}
	var errExit *ExitError
	if errors.As(err, &errExit) {
		t.Fatalf("unexpected exit error %v", err)
	}
}

func TestExecStep_Cancel(t *testing.T) {
	t.Parallel()
	s := newTestState(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	e := &execStep{args: []string{"sh", "-c", "sleep 30 & wait"}, okRetcodes: []int{0}}
	start := time.Now()
	err := e.run(ctx, s)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := time.Since(start); d > 10*time.Second {
		t.Fatalf("took too long to cancel: %s", d)
	}
}

func TestRunState_Environ(t *testing.T) {
	t.Parallel()
	s := newTestState(t)
	s.cleanEnv = true
	s.passthroughEnv = []string{"TASKRUN_UNSET_FOR_SURE"}
	for _, kv := range s.environ(map[string]string{"EXTRA": "1"}) {
		k, _, _ := strings.Cut(kv, "=")
		switch k {
		case "PATH", "HOME", "EXTRA":
		default:
			t.Errorf("unexpected variable %q", kv)
		}
	}
	s.cleanEnv = false
	got := s.environ(map[string]string{"PATH": "overridden"})
	found := false
	for _, kv := range got {
		if kv == "PATH=overridden" {
			found = true
		} else if strings.HasPrefix(kv, "PATH=") {
			t.Errorf("PATH listed twice: %q", kv)
		}
	}
	if !found {
		t.Fatalf("PATH not overridden: %q", got)
	}
}

func TestRun_ExecExitCode(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "tasks.star", ""+
		"task(\n"+
		"    name = \"docs\",\n"+
		"    steps = [\n"+
		"        sh.rm(\"docs\"),\n"+
		"        sh.exec(\"sh -c 'echo building; exit 101'\"),\n"+
		"        sh.mkdir(\"docs\"),\n"+
		"    ],\n"+
		")\n")
	r := &recordingReport{}
	err := Run(context.Background(), &Options{Report: r, Dir: root, Tasks: []string{"docs"}})
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected a StepError, got %v", err)
	}
	if stepErr.ExitCode() != 101 || stepErr.Index != 1 {
		t.Fatalf("unexpected error %#v", stepErr)
	}
	want := []string{
		"task_started docs",
		"step_started docs #0 rm(\"docs\")",
		"step_completed docs #0 ok",
		"step_started docs #1 exec([\"sh\", \"-c\", \"echo building; exit 101\"])",
		"stdout docs: building",
		"step_completed docs #1 command failed with exit code 101: sh -c echo building; exit 101",
		"task_completed docs task docs: step #2 exec([\"sh\", \"-c\", \"echo building; exit 101\"]): command failed with exit code 101: sh -c echo building; exit 101",
	}
	if diff := cmp.Diff(want, r.getEvents()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(root, "docs")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("the step after the failure must not run: %v", err)
	}
}
