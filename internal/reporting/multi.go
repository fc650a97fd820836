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


package reporting

import (
	"context"
	"time"

	"github.com/builderbench/taskrun/internal/engine"
	"golang.org/x/sync/errgroup"
)

// MultiReport is a Report that wraps any number of other Report objects and
// tees output to all of them.
type MultiReport struct {
	Reporters []Report
}

var _ Report = (*MultiReport)(nil)

func (t *MultiReport) TaskStarted(ctx context.Context, task string) {
	_ = t.do(func(r Report) error {
		r.TaskStarted(ctx, task)
		return nil
	})
}

func (t *MultiReport) StepStarted(ctx context.Context, task string, index int, step string) {
	_ = t.do(func(r Report) error {
		r.StepStarted(ctx, task, index, step)
		return nil
	})
}

func (t *MultiReport) StepOutput(ctx context.Context, task string, stream engine.Stream, line string) {
	_ = t.do(func(r Report) error {
		r.StepOutput(ctx, task, stream, line)
		return nil
	})
}

func (t *MultiReport) StepCompleted(ctx context.Context, task string, index int, step string, d time.Duration, err error) {
	_ = t.do(func(r Report) error {
		r.StepCompleted(ctx, task, index, step, d, err)
		return nil
	})
}

func (t *MultiReport) OutputDigest(ctx context.Context, task, output, digest string) {
	_ = t.do(func(r Report) error {
		r.OutputDigest(ctx, task, output, digest)
		return nil
	})
}

func (t *MultiReport) TaskCompleted(ctx context.Context, task string, start time.Time, d time.Duration, err error) {
	_ = t.do(func(r Report) error {
		r.TaskCompleted(ctx, task, start, d, err)
		return nil
	})
}

func (t *MultiReport) Print(ctx context.Context, task, file string, line int, message string) {
	_ = t.do(func(r Report) error {
		r.Print(ctx, task, file, line, message)
		return nil
	})
}

func (t *MultiReport) List(ctx context.Context, tasks []engine.TaskInfo) error {
	return t.do(func(r Report) error {
		return r.List(ctx, tasks)
	})
}

func (t *MultiReport) Close() error {
	return t.do(func(r Report) error {
		return r.Close()
	})
}

func (t *MultiReport) do(f func(r Report) error) error {
	var eg errgroup.Group
	for _, r := range t.Reporters {
		r := r
		eg.Go(func() error {
			return f(r)
		})
	}
	return eg.Wait()
}
