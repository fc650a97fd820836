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


// Package reporting renders task progress and output for the environment
// taskrun runs in.
package reporting

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/builderbench/taskrun/internal/engine"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Report is a closable engine.Report.
type Report interface {
	io.Closer
	engine.Report
}

// Get returns the right reporting implementation based on the current
// environment.
func Get(ctx context.Context) (*MultiReport, error) {
	r := &MultiReport{}
	// The following reporters all emit to stdout so they are mutually
	// exclusive.
	switch {
	case os.Getenv("GITHUB_RUN_ID") != "":
		// On GitHub Actions. Emits GitHub Workflows commands.
		r.Reporters = append(r.Reporters, &github{out: os.Stdout})
	case os.Getenv("TERM") != "dumb" && isatty.IsTerminal(os.Stderr.Fd()):
		// Active terminal. Colors! This includes VSCode's integrated terminal.
		r.Reporters = append(r.Reporters, &interactive{
			out: colorable.NewColorableStdout(),
		})
	default:
		// Anything else, e.g. redirected output.
		r.Reporters = append(r.Reporters, &basic{out: os.Stdout})
	}
	return r, nil
}

// basic is plain text, for logs and redirected output.
type basic struct {
	mu  sync.Mutex
	out io.Writer
}

func (b *basic) Close() error {
	return nil
}

func (b *basic) TaskStarted(ctx context.Context, task string) {
	b.printf("[%s] started\n", task)
}

func (b *basic) StepStarted(ctx context.Context, task string, index int, step string) {
	b.printf("[%s] step %d: %s\n", task, index+1, step)
}

func (b *basic) StepOutput(ctx context.Context, task string, stream engine.Stream, line string) {
	b.printf("[%s] %s\n", task, line)
}

func (b *basic) StepCompleted(ctx context.Context, task string, index int, step string, d time.Duration, err error) {
	if err != nil {
		b.printf("[%s] step %d failed in %s: %s\n", task, index+1, d.Round(time.Millisecond), err)
	}
}

func (b *basic) OutputDigest(ctx context.Context, task, output, digest string) {
	b.printf("[%s] output %s: %s\n", task, output, digest)
}

func (b *basic) TaskCompleted(ctx context.Context, task string, start time.Time, d time.Duration, err error) {
	if err != nil {
		b.printf("- %s (failed in %s)\n", task, d.Round(time.Millisecond))
	} else {
		b.printf("- %s (success in %s)\n", task, d.Round(time.Millisecond))
	}
}

func (b *basic) Print(ctx context.Context, task, file string, line int, message string) {
	b.printf("[%s:%d] %s\n", file, line, message)
}

func (b *basic) List(ctx context.Context, tasks []engine.TaskInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return writeList(b.out, tasks, func(name string) string { return name })
}

func (b *basic) printf(format string, args ...any) {
	b.mu.Lock()
	fmt.Fprintf(b.out, format, args...)
	b.mu.Unlock()
}

// github is the Report implementation when running inside a GitHub Actions
// Workflow. Each task is a collapsible group.
//
// See https://docs.github.com/en/actions/using-workflows/workflow-commands-for-github-actions
type github struct {
	mu  sync.Mutex
	out io.Writer
}

func (g *github) Close() error {
	return nil
}

func (g *github) TaskStarted(ctx context.Context, task string) {
	g.printf("::group::%s\n", escapeData(task))
}

func (g *github) StepStarted(ctx context.Context, task string, index int, step string) {
	g.printf("$ %s\n", step)
}

func (g *github) StepOutput(ctx context.Context, task string, stream engine.Stream, line string) {
	g.printf("%s\n", line)
}

func (g *github) StepCompleted(ctx context.Context, task string, index int, step string, d time.Duration, err error) {
}

func (g *github) OutputDigest(ctx context.Context, task, output, digest string) {
	g.printf("::notice title=%s::output %s: %s\n", escapeProperty(task), escapeData(output), digest)
}

func (g *github) TaskCompleted(ctx context.Context, task string, start time.Time, d time.Duration, err error) {
	g.printf("::endgroup::\n")
	if err != nil {
		g.printf("::error title=%s::%s\n", escapeProperty(task), escapeData(err.Error()))
	}
}

func (g *github) Print(ctx context.Context, task, file string, line int, message string) {
	// Use debug here instead of notice since the file/line reference comes from
	// starlark, which may not be in the source tree for load()'ed files.
	g.printf("::debug::[%s:%d] %s\n", file, line, escapeData(message))
}

func (g *github) List(ctx context.Context, tasks []engine.TaskInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return writeList(g.out, tasks, func(name string) string { return name })
}

func (g *github) printf(format string, args ...any) {
	g.mu.Lock()
	fmt.Fprintf(g.out, format, args...)
	g.mu.Unlock()
}

// escapeData escapes the message part of a workflow command.
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

// escapeProperty escapes a property value of a workflow command.
func escapeProperty(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C").Replace(s)
}

// interactive is the Report implementation for a terminal.
type interactive struct {
	mu  sync.Mutex
	out io.Writer
}

func (i *interactive) Close() error {
	return nil
}

func (i *interactive) TaskStarted(ctx context.Context, task string) {
	i.printf("%s%s%s%s\n", reset, bold, task, reset)
}

func (i *interactive) StepStarted(ctx context.Context, task string, index int, step string) {
	i.printf("%s  %s$ %s%s\n", reset, fgHiBlue, step, reset)
}

func (i *interactive) StepOutput(ctx context.Context, task string, stream engine.Stream, line string) {
	if stream == engine.Stderr {
		i.printf("%s  %s%s%s\n", reset, fgYellow, line, reset)
		return
	}
	i.printf("%s  %s\n", reset, line)
}

func (i *interactive) StepCompleted(ctx context.Context, task string, index int, step string, d time.Duration, err error) {
	if err != nil {
		i.printf("%s  %s%s%s\n", reset, fgRed, err, reset)
	}
}

func (i *interactive) OutputDigest(ctx context.Context, task, output, digest string) {
	i.printf("%s  %s%s %s%s\n", reset, faint, output, digest, reset)
}

func (i *interactive) TaskCompleted(ctx context.Context, task string, start time.Time, d time.Duration, err error) {
	if err != nil {
		i.printf("%s- %s%s%s (failed in %s)\n", reset, fgRed, task, reset, d.Round(time.Millisecond))
	} else {
		i.printf("%s- %s%s%s (success in %s)\n", reset, fgGreen, task, reset, d.Round(time.Millisecond))
	}
}

func (i *interactive) Print(ctx context.Context, task, file string, line int, message string) {
	i.printf("%s[%s%s:%d%s] %s%s%s\n", reset, fgHiBlue, file, line, reset, bold, message, reset)
}

func (i *interactive) List(ctx context.Context, tasks []engine.TaskInfo) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return writeList(i.out, tasks, func(name string) string {
		return fgHiCyan.String() + name + reset.String()
	})
}

func (i *interactive) printf(format string, args ...any) {
	i.mu.Lock()
	fmt.Fprintf(i.out, format, args...)
	i.mu.Unlock()
}

// writeList writes one task per line in the order given, with the
// descriptions aligned. style decorates the task name.
func writeList(w io.Writer, tasks []engine.TaskInfo, style func(name string) string) error {
	width := 0
	for _, t := range tasks {
		if l := len(t.Name); l > width {
			width = l
		}
	}
	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(style(t.Name))
		line := t.Desc
		if len(t.Aliases) != 0 {
			if line != "" {
				line += " "
			}
			line += "(alias: " + strings.Join(t.Aliases, ", ") + ")"
		}
		if line != "" {
			b.WriteString(strings.Repeat(" ", width-len(t.Name)+2))
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
