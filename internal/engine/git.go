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
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/builderbench/taskrun/internal/execsupport"
)

var (
	// cachedGitEnv should never be accessed directly, only by calling gitEnv().
	cachedGitEnv       []string
	populateGitEnvOnce sync.Once
)

func gitEnv() []string {
	populateGitEnvOnce.Do(func() {
		// First is for git version before 2.32, the rest are to skip the user
		// and system config.
		cachedGitEnv = append(os.Environ(),
			"GIT_CONFIG_NOGLOBAL=true",
			"GIT_CONFIG_GLOBAL=",
			"GIT_CONFIG_SYSTEM=",
			"LANG=C",
		)
	})
	return cachedGitEnv
}

func runGitCmd(ctx context.Context, dir string, args ...string) (string, error) {
	args = append([]string{
		// Don't update the git index during read operations.
		"--no-optional-locks",
	}, args...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = gitEnv()
	b := buffers.get()
	cmd.Stdout = b
	cmd.Stderr = b
	err := execsupport.Run(cmd)
	// Always make a copy of the output, only the buffer is reused.
	out := b.String()
	buffers.push(b)
	if err != nil {
		if errExit := (&exec.ExitError{}); errors.As(err, &errExit) {
			return "", fmt.Errorf("error running git %s: %w\n%s", strings.Join(args, " "), err, out)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// gitTopLevel returns the top of the git checkout containing dir, or "" when
// git is not installed or dir is not in a checkout.
func gitTopLevel(ctx context.Context, dir string) (string, error) {
	top, err := runGitCmd(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			logger().Debug().Msg("git not detected on $PATH")
			return "", nil
		} else if strings.Contains(err.Error(), "not a git repository") {
			logger().Debug().Str("dir", dir).Msg("not a git repository")
			return "", nil
		}
		return "", err
	}
	// git returns a POSIX style path on Windows.
	return filepath.Clean(filepath.FromSlash(top)), nil
}
