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
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strings"

	"github.com/builderbench/taskrun/internal/execsupport"
	"github.com/builderbench/taskrun/internal/procgroup"
	"golang.org/x/sync/errgroup"
)

// Stream identifies the output stream of a subprocess.
type Stream int

// Valid Stream values.
const (
	Stdout Stream = iota + 1
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// run starts the process and streams its output line by line to the
// reporter until it exits.
func (e *execStep) run(ctx context.Context, s *runState) error {
	dir := s.root
	if e.cwd != "" {
		var err error
		if dir, err = s.confine(e.cwd); err != nil {
			return err
		}
	}
	cmd := exec.Command(e.args[0], e.args[1:]...)
	cmd.Dir = dir
	cmd.Env = s.environ(e.env)
	procgroup.Set(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	s.log.Debug().Strs("args", e.args).Str("dir", dir).Msg("exec")
	if err := execsupport.Start(cmd); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := procgroup.Kill(cmd); err != nil {
				s.log.Warn().Err(err).Msg("failed to kill process group")
			}
		case <-done:
		}
	}()

	// Pipes must be drained before calling Wait().
	var eg errgroup.Group
	eg.Go(func() error {
		return pump(stdout, func(line string) { s.r.StepOutput(ctx, s.task, Stdout, line) })
	})
	eg.Go(func() error {
		return pump(stderr, func(line string) { s.r.StepOutput(ctx, s.task, Stderr, line) })
	})
	errPump := eg.Wait()
	err = cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	retcode := 0
	if err != nil {
		var errExit *exec.ExitError
		if !errors.As(err, &errExit) {
			return err
		}
		retcode = errExit.ExitCode()
		if retcode < 0 {
			// Killed by a signal.
			return err
		}
	}
	if errPump != nil {
		return errPump
	}
	if !slices.Contains(e.okRetcodes, retcode) {
		return &ExitError{Args: e.args, Code: retcode}
	}
	return nil
}

// pump reads r line by line. Lines have their trailing newline removed.
func pump(r io.Reader, emit func(line string)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) != 0 {
			emit(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// environ returns the environment of an exec step.
func (s *runState) environ(extra map[string]string) []string {
	env := map[string]string{}
	if s.cleanEnv {
		for _, k := range append([]string{"PATH", "HOME", "SYSTEMROOT"}, s.passthroughEnv...) {
			if v, ok := os.LookupEnv(k); ok {
				env[k] = v
			}
		}
	} else {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				env[k] = v
			}
		}
	}
	for k, v := range extra {
		env[k] = v
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
