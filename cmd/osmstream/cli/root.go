// Copyright 2026 the original author or authors.
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

// Package cli holds the root command and the glue shared by the osmstream
// subcommands.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the osmstream command.  Subcommands register themselves with it
// in their init functions.
var RootCmd = &cobra.Command{
	Use:          "osmstream",
	Short:        "Read, filter and write OpenStreetMap data",
	Long:         "Read, filter and write OpenStreetMap data in PBF and XML formats",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debugging information to stderr")
}

// Logger returns the logger selected by the flags of cmd.
func Logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command, exiting with a non-zero status on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
