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
	"github.com/builderbench/taskrun/internal/engine"
	flag "github.com/spf13/pflag"
)

// commandBase holds the flags shared by the commands loading a task file.
type commandBase struct {
	cwd  string
	file string
	vars varsFlag
}

func (c *commandBase) SetFlags(f *flag.FlagSet) {
	f.StringVarP(&c.cwd, "cwd", "C", ".", "directory in which to run taskrun")
	f.StringVarP(&c.file, "file", "f", "", "task file basename, defaults to "+engine.DefaultEntryPoint)
	c.vars = varsFlag{}
	f.Var(&c.vars, "var", "runtime variables to set, of the form key=value")
}

func (c *commandBase) options() engine.Options {
	return engine.Options{
		Dir:        c.cwd,
		EntryPoint: c.file,
		Vars:       c.vars,
	}
}
