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

//go:build !windows

package engine

import (
	"io"
	"io/fs"
	"os"

	"github.com/builderbench/taskrun/internal/execsupport"
	"github.com/google/renameio/v2"
)

// copyFile atomically replaces dst with the content of src.
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// Block forks while the file is open for writing, it may be executed by
	// a later step.
	execsupport.Mu.Lock()
	defer execsupport.Mu.Unlock()
	pf, err := renameio.NewPendingFile(dst, renameio.WithPermissions(perm))
	if err != nil {
		return err
	}
	defer pf.Cleanup()
	if _, err := io.Copy(pf, in); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
