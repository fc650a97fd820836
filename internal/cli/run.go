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
	"context"

	"github.com/builderbench/taskrun/internal/engine"
	"github.com/builderbench/taskrun/internal/reporting"
	flag "github.com/spf13/pflag"
)

type runCmd struct {
	commandBase
}

func (*runCmd) Name() string {
	return "run"
}

func (*runCmd) Description() string {
	return "Run tasks in order, with their dependencies.\n" +
		"Without task, runs the default task or lists the tasks."
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.commandBase.SetFlags(f)
}

func (c *runCmd) Execute(ctx context.Context, args []string) error {
	r, err := reporting.Get(ctx)
	if err != nil {
		return err
	}
	o := c.options()
	o.Report = r
	o.Tasks = args
	err = engine.Run(ctx, &o)
	if err2 := r.Close(); err == nil {
		err = err2
	}
	return err
}
