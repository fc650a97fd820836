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

// Package execsupport implements wrappers around os/exec.Cmd Start() and Run()
// that acquire a read lock on a R/W mutex, working around the fork+exec
// inheritance of file handles open for writing on POSIX.
// See https://github.com/golang/go/issues/22315 for background.
//
// Copy and overlay steps can publish scripts or binaries that a later exec
// step runs. If a fork happens while such a file is still open for writing,
// the child inherits the handle and executing the file fails with ETXTBSY.
// Code writing files must hold Mu for writing until the file is closed, and
// all taskrun code must start subprocesses through Start() or Run().
//
// cmd/execcheck enforces the latter.
package execsupport

import (
	"os/exec"
	"sync"
)

// Mu blocks all exec() while held for writing.
var Mu sync.RWMutex

// Start is a fork-safe wrapper around os/exec.Cmd.Start.
func Start(cmd *exec.Cmd) error {
	Mu.RLock()
	defer Mu.RUnlock()
	return cmd.Start()
}

// Run is a fork-safe wrapper around os/exec.Cmd.Run.
func Run(cmd *exec.Cmd) error {
	Mu.RLock()
	defer Mu.RUnlock()
	return cmd.Run()
}
