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


// Package taskrun is taskrun's CLI executable.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/builderbench/taskrun/internal/cli"
	"github.com/builderbench/taskrun/internal/engine"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"
)

func main() {
	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, syscall.SIGTERM, syscall.SIGINT)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-signalChannel
		cancel()
		// Print a goroutine stacktrace only on SIGTERM, which likely comes
		// from automation timing out on a hang. Ctrl-C from a user doesn't
		// need one.
		if sig == syscall.SIGTERM {
			_ = pprof.Lookup("goroutine").WriteTo(os.Stderr, 1)
		}
	}()

	if err := cli.Main(ctx, os.Args); err != nil && !errors.Is(err, flag.ErrHelp) {
		var stackerr engine.BacktraceableError
		if errors.As(err, &stackerr) {
			_, _ = os.Stderr.WriteString(stackerr.Backtrace())
		}
		// If stderr is a terminal, a failed step was already shown by the
		// reporter and a cancellation is most likely the user's Ctrl-C.
		var stepErr *engine.StepError
		if !isatty.IsTerminal(os.Stderr.Fd()) ||
			(!errors.As(err, &stepErr) && !errors.Is(err, context.Canceled)) {
			_, _ = fmt.Fprintf(os.Stderr, "taskrun: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode returns the exit code of the failing subprocess if there is one.
func exitCode(err error) int {
	var e interface{ ExitCode() int }
	if errors.As(err, &e) {
		if c := e.ExitCode(); c > 0 {
			return c
		}
	}
	return 1
}
