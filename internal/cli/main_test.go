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


package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/builderbench/taskrun/internal/engine"
	flag "github.com/spf13/pflag"
)

func TestMainHelp(t *testing.T) {
	data := []struct {
		args []string
		want string
	}{
		{[]string{"taskrun", "help"}, "Usage of taskrun:\n"},
		{[]string{"taskrun", "--help"}, "Usage of taskrun:\n"},
		{[]string{"taskrun", "-h"}, "Usage of taskrun:\n"},
		{[]string{"taskrun", "run", "--help"}, "Usage of taskrun run:\n"},
		{[]string{"taskrun", "list", "--help"}, "Usage of taskrun list:\n"},
		{[]string{"taskrun", "doc", "--help"}, "Usage of taskrun doc:\n"},
		{[]string{"taskrun", "docs", "--help"}, "Usage of taskrun:\n"},
	}
	for i, line := range data {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			b := getBuf(t)
			if err := Main(context.Background(), line.args); !errors.Is(err, flag.ErrHelp) {
				t.Fatalf("expected ErrHelp, got %v", err)
			}
			if s := b.String(); !strings.HasPrefix(s, line.want) {
				t.Fatalf("Got:\n%q", s)
			}
		})
	}
}

func TestMainHelp_ListsCommands(t *testing.T) {
	b := getBuf(t)
	if err := Main(context.Background(), []string{"taskrun", "help"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatal(err)
	}
	for _, want := range []string{"  run ", "  list ", "  doc ", "  version ", "  help "} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("missing %q in:\n%s", want, b.String())
		}
	}
}

func TestMainVersion(t *testing.T) {
	out := getStdout(t)
	if err := Main(context.Background(), []string{"taskrun", "version"}); err != nil {
		t.Fatal(err)
	}
	if want := "taskrun v" + engine.Version.String() + "\n"; out.String() != want {
		t.Fatalf("want %q, got %q", want, out.String())
	}
}

func TestMainDoc(t *testing.T) {
	out := getStdout(t)
	if err := Main(context.Background(), []string{"taskrun", "doc"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "# taskrun\n") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if err := Main(context.Background(), []string{"taskrun", "doc", "a.star", "b.star"}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestMainRun(t *testing.T) {
	root := t.TempDir()
	writeTaskFile(t, root, "tasks.star", ""+
		"out = var(\"out\", default = \"out\")\n"+
		"task(name = \"default\", steps = [sh.list_tasks()])\n"+
		"task(name = \"make\", steps = [sh.mkdir(out)])\n")
	data := []struct {
		args []string
		want string
	}{
		{[]string{"taskrun", "-C", root, "make"}, "out"},
		{[]string{"taskrun", "make", "--cwd", root, "--var", "out=shortcut"}, "shortcut"},
		{[]string{"taskrun", "run", "-C", root, "--var", "out=explicit", "make"}, "explicit"},
	}
	for _, line := range data {
		if err := Main(context.Background(), line.args); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(root, line.want)); err != nil {
			t.Fatalf("%v: %v", line.args, err)
		}
	}
}

func TestMainRun_Errors(t *testing.T) {
	root := t.TempDir()
	writeTaskFile(t, root, "build.star", "task(name = \"fail\", steps = [sh.copy(\"missing\", \"dst\")])\n")
	err := Main(context.Background(), []string{"taskrun", "-C", root, "-f", "build.star", "fail"})
	var stepErr *engine.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected a StepError, got %v", err)
	}
	if stepErr.ExitCode() != 1 {
		t.Fatalf("unexpected exit code %d", stepErr.ExitCode())
	}
	err = Main(context.Background(), []string{"taskrun", "-C", root, "-f", "build.star", "nope"})
	if err == nil || err.Error() != "no such task \"nope\"" {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Main(context.Background(), []string{"taskrun", "list", "-C", root, "-f", "build.star", "extra"})
	if err == nil || err.Error() != "unsupported arguments" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMainList(t *testing.T) {
	root := t.TempDir()
	writeTaskFile(t, root, "tasks.star", ""+
		"task(name = \"zeta\", desc = \"last\", steps = [sh.mkdir(\"z\")])\n"+
		"task(name = \"alpha\", steps = [sh.mkdir(\"a\")])\n")
	if err := Main(context.Background(), []string{"taskrun", "list", "-C", root}); err != nil {
		t.Fatal(err)
	}
	if err := Main(context.Background(), []string{"taskrun", "list", "-C", root, "--sort"}); err != nil {
		t.Fatal(err)
	}
}

func writeTaskFile(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

type panicWrite struct{}

func (panicWrite) Write(b []byte) (int, error) {
	panic("unexpected write!")
}

func getBuf(t *testing.T) *bytes.Buffer {
	old := helpOut
	t.Cleanup(func() {
		helpOut = old
	})
	b := &bytes.Buffer{}
	helpOut = b
	return b
}

func getStdout(t *testing.T) *bytes.Buffer {
	old := stdout
	t.Cleanup(func() {
		stdout = old
	})
	b := &bytes.Buffer{}
	stdout = b
	return b
}

func init() {
	helpOut = panicWrite{}
	// Keep the reporters deterministic.
	os.Unsetenv("GITHUB_RUN_ID")
	os.Setenv("TERM", "dumb")
}
