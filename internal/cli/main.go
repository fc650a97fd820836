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


// Package cli implements the taskrun command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tlog "github.com/builderbench/taskrun/internal/log"
	flag "github.com/spf13/pflag"
)

var (
	helpOut io.Writer = os.Stderr
	stdout  io.Writer = os.Stdout
)

type app struct {
	fs      *flag.FlagSet
	help    bool
	verbose bool
}

func (a *app) init(n, desc string) {
	a.fs = flag.NewFlagSet(n, flag.ContinueOnError)
	a.fs.SetOutput(helpOut)
	a.fs.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	a.fs.BoolVarP(&a.help, "help", "h", false, "Prints help")
	a.fs.Usage = func() {
		fmt.Fprintf(helpOut, "Usage of %s:\n\n%s\n", n, desc)
		a.fs.PrintDefaults()
	}
}

func getDesc(s []subcommand) string {
	out := "  taskrun [flags] [task...]\n" +
		"            Shorthand for \"taskrun run\".\n\n"
	for _, c := range s {
		d := strings.Split(c.Description(), "\n")
		for i := 1; i < len(d); i++ {
			d[i] = "            " + d[i]
		}
		out += fmt.Sprintf("  %-9s %s\n", c.Name(), strings.Join(d, "\n"))
	}
	return out
}

type subcommand interface {
	Name() string
	Description() string
	SetFlags(*flag.FlagSet)
	Execute(ctx context.Context, args []string) error
}

// Main implements taskrun executable.
//
// A first argument that isn't a subcommand is a task name, so "taskrun docs"
// is the same as "taskrun run docs". Without arguments, the default task is
// run.
func Main(ctx context.Context, args []string) error {
	subcommands := [...]subcommand{
		// Ordering here corresponds to the order in which subcommands will be
		// listed in `taskrun help`.
		&runCmd{},
		&listCmd{},
		&docCmd{},
		&versionCmd{},
		&helpCmd{},
	}
	a := app{}
	var rest []string
	if len(args) >= 2 {
		rest = args[1:]
	}
	if len(rest) != 0 {
		switch rest[0] {
		case "help":
			a.init("taskrun", getDesc(subcommands[:]))
			a.fs.Usage()
			return flag.ErrHelp
		case "-h", "--help":
			// Global help, not the help of the run shorthand.
			a.init("taskrun", getDesc(subcommands[:]))
			a.fs.Usage()
			return flag.ErrHelp
		}
	}
	cmd := subcommands[0]
	name := "taskrun"
	if len(rest) != 0 {
		for _, s := range subcommands {
			if s.Name() == rest[0] {
				cmd = s
				name = "taskrun " + s.Name()
				rest = rest[1:]
				break
			}
		}
	}
	a.init(name, cmd.Description()+"\n")
	cmd.SetFlags(a.fs)
	if err := a.fs.Parse(rest); err != nil {
		return err
	}
	if a.help {
		a.fs.Usage()
		return flag.ErrHelp
	}
	if a.verbose {
		tlog.Configure(tlog.Config{Level: "debug"})
	}
	return cmd.Execute(ctx, a.fs.Args())
}
