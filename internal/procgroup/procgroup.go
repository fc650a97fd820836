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

// Package procgroup starts subprocesses in their own process group so a
// canceled task can reap the whole tree the documentation generator spawned.
package procgroup

import "os/exec"

// Set configures cmd to start in a new process group.
//
// Must be called before the command is started for Kill to reach children.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Kill terminates the process group of cmd. It is a no-op when the process
// was not started or already exited.
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return kill(cmd)
}
