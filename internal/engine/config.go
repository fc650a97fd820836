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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultConfig is the basename of the optional configuration file at the
// project root.
const DefaultConfig = "taskrun.yaml"

// Document is the content of a taskrun.yaml file.
type Document struct {
	// MinVersion is the minimum taskrun version able to run the project.
	MinVersion string `yaml:"min_version"`
	// EntryPoint overrides the task file basename. Defaults to tasks.star.
	EntryPoint string `yaml:"entry_point"`
	// DefaultTask is run when no task is named on the command line.
	DefaultTask string `yaml:"default_task"`
	// CleanEnv starts exec steps with an empty environment except PATH, HOME
	// and the PassthroughEnv variables.
	CleanEnv bool `yaml:"clean_env"`
	// PassthroughEnv lists environment variables forwarded to exec steps
	// when CleanEnv is set.
	PassthroughEnv []string `yaml:"passthrough_env"`
	// Vars declares runtime variables and their default values.
	Vars []*Var `yaml:"vars"`
}

// Var is a runtime variable declared in taskrun.yaml.
type Var struct {
	Name        string `yaml:"name"`
	Default     string `yaml:"default"`
	Description string `yaml:"description"`
}

var (
	// identRe matches var and environment variable names.
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	taskRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// readDocument reads and decodes a taskrun.yaml file. It returns
// fs.ErrNotExist unchanged so the caller can treat the file as optional.
func readDocument(p string) (*Document, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return doc, nil
}

func parseDocument(b []byte) (*Document, error) {
	doc := &Document{}
	// First pass ignores unknown fields so a file meant for a newer taskrun
	// reports an unsupported version instead of an unknown field.
	if err := yaml.Unmarshal(b, doc); err != nil {
		return nil, err
	}
	if err := doc.CheckVersion(); err != nil {
		return nil, err
	}
	doc = &Document{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{}, nil
		}
		return nil, err
	}
	return doc, nil
}

// CheckVersion verifies the running taskrun is recent enough.
func (doc *Document) CheckVersion() error {
	if doc.MinVersion == "" {
		return nil
	}
	v := parseVersion(doc.MinVersion)
	if v == nil || len(v) > len(Version) {
		return errors.New("min_version is invalid")
	}
	for i := range v {
		if v[i] > Version[i] {
			return fmt.Errorf("min_version specifies unsupported version %q, running %s", doc.MinVersion, Version)
		}
		if v[i] < Version[i] {
			break
		}
	}
	return nil
}

// Validate verifies a taskrun.yaml document is valid.
func (doc *Document) Validate() error {
	if err := doc.CheckVersion(); err != nil {
		return err
	}
	if doc.EntryPoint != "" {
		if path.IsAbs(doc.EntryPoint) || path.Clean(doc.EntryPoint) != doc.EntryPoint || !fs.ValidPath(doc.EntryPoint) {
			return fmt.Errorf("entry_point %q must be a clean relative path", doc.EntryPoint)
		}
		if path.Ext(doc.EntryPoint) != ".star" {
			return fmt.Errorf("entry_point %q must have a .star suffix", doc.EntryPoint)
		}
	}
	if doc.DefaultTask != "" && !taskRe.MatchString(doc.DefaultTask) {
		return fmt.Errorf("default_task %q is not a valid task name", doc.DefaultTask)
	}
	seenEnv := map[string]struct{}{}
	for i, e := range doc.PassthroughEnv {
		if !identRe.MatchString(e) {
			return fmt.Errorf("passthrough_env #%d: invalid name %q", i+1, e)
		}
		if _, ok := seenEnv[e]; ok {
			return fmt.Errorf("passthrough_env #%d: %s was already listed", i+1, e)
		}
		seenEnv[e] = struct{}{}
	}
	seenVars := map[string]struct{}{}
	for i, v := range doc.Vars {
		if v == nil || v.Name == "" {
			return fmt.Errorf("vars #%d: name must be set", i+1)
		}
		if !identRe.MatchString(v.Name) {
			return fmt.Errorf("vars #%d: invalid name %q", i+1, v.Name)
		}
		if _, ok := seenVars[v.Name]; ok {
			return fmt.Errorf("vars #%d: %s was already listed", i+1, v.Name)
		}
		seenVars[v.Name] = struct{}{}
	}
	return nil
}
