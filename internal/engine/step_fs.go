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
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/builderbench/taskrun/internal/fsutil"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

func (r *rmStep) run(ctx context.Context, s *runState) error {
	p, err := s.confine(r.path)
	if err != nil {
		return err
	}
	if p == s.root {
		return errors.New("refusing to remove the root")
	}
	return os.RemoveAll(p)
}

func (m *mkdirStep) run(ctx context.Context, s *runState) error {
	p, err := s.confine(m.path)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// run copies src to dst with `cp -r` semantics: when dst is an existing
// directory, src is copied inside it.
func (c *copyStep) run(ctx context.Context, s *runState) error {
	src, err := s.confine(c.src)
	if err != nil {
		return err
	}
	dst, err := s.confine(c.dst)
	if err != nil {
		return err
	}
	fi, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no such file or directory: %s", c.src)
		}
		return err
	}
	if dfi, err := os.Stat(dst); err == nil {
		if dfi.IsDir() {
			dst = filepath.Join(dst, filepath.Base(src))
		} else if fi.IsDir() {
			return fmt.Errorf("cannot overwrite non-directory %s with directory %s", c.dst, c.src)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if !fi.IsDir() {
		return copyFile(src, dst, fi.Mode().Perm())
	}
	if fsutil.Within(src, dst) {
		return fmt.Errorf("cannot copy %s into itself", c.src)
	}
	return copyTree(ctx, src, dst)
}

// copyTree recursively copies the directory src to dst. Symlinks are
// recreated as symlinks.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(p, target, info.Mode().Perm())
		default:
			return fmt.Errorf("unsupported file type %s: %s", d.Type(), p)
		}
	})
}

// run copies every file under src to the same relative path under dst,
// stopping at the first failure.
//
// src is checked before anything is written, so a missing overlay leaves dst
// untouched.
func (o *overlayStep) run(ctx context.Context, s *runState) error {
	src, err := s.confine(o.src)
	if err != nil {
		return err
	}
	fi, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("overlay source %s does not exist", o.src)
		}
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("overlay source %s is not a directory", o.src)
	}
	var matcher gitignore.Matcher
	if len(o.exclude) != 0 {
		patterns := make([]gitignore.Pattern, 0, len(o.exclude))
		for _, e := range o.exclude {
			patterns = append(patterns, gitignore.ParsePattern(e, nil))
		}
		matcher = gitignore.NewMatcher(patterns)
	}
	count := 0
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher != nil && matcher.Match(strings.Split(rel, "/"), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		// Symlinks are followed, the overlay publishes content.
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("overlay %s: %w", rel, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("overlay %s: unsupported file type %s", rel, info.Mode().Type())
		}
		target, err := s.confine(path.Join(o.dst, rel))
		if err != nil {
			return fmt.Errorf("overlay %s: %w", rel, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("overlay %s: %w", rel, err)
		}
		if err := copyFile(p, target, info.Mode().Perm()); err != nil {
			return fmt.Errorf("overlay %s: %w", rel, err)
		}
		count++
		return nil
	})
	s.log.Debug().Str("src", o.src).Str("dst", o.dst).Int("files", count).Msg("overlay")
	return err
}

func (l *listStep) run(ctx context.Context, s *runState) error {
	return s.r.List(ctx, s.tasks.list(l.sorted))
}
