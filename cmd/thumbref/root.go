// Copyright 2025 walteh LLC
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

package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/thumbref/pkg/config"
	"github.com/walteh/thumbref/pkg/log"
	"github.com/walteh/thumbref/pkg/rewrite"
)

// rootFlags holds the values bound to the root command
type rootFlags struct {
	format     formatValue
	dryRun     bool
	root       string
	extension  string
	ignore     []string
	jobs       int
	configFile string
	debug      bool
}

// newRootCmd creates the thumbref command
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{format: formatValue{value: config.DefaultFormat}}

	cmd := &cobra.Command{
		Use:   "thumbref",
		Short: "Update thumbnail references in HTML files",
		Long: `thumbref rewrites legacy thumbnail references (thumbnail.png, thumbnail.jpg,
thumbnail.jpeg, thumbnail.gif) in every HTML file under a directory to the
target format. Hidden directories are skipped.

Options are read from, in increasing priority: defaults, a .thumbref.yaml,
.thumbref.yml, .thumbref.hcl or .thumbref.json file in the root, THUMBREF_*
variables (from the environment or a .env file in the root), and flags.

Exit codes: 0 on success, 1 if any file could not be read or written,
2 on invalid usage or configuration.`,
		Example: `  # Dry run to see what would change
  thumbref --dry-run

  # Update all references to webp
  thumbref

  # Update all references to jpg
  thumbref --format jpg`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageError(err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := setupLogging(stderr, flags.debug)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, flags, stdout)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	f := cmd.Flags()
	f.Var(&flags.format, "format", "target format for thumbnail references")
	f.BoolVarP(&flags.dryRun, "dry-run", "n", false, "show what would be changed without making changes")
	f.StringVar(&flags.root, "root", "", "directory to scan (default: current directory)")
	f.StringVar(&flags.extension, "ext", config.DefaultExtension, "suffix of the files to scan")
	f.StringSliceVar(&flags.ignore, "ignore", nil, "glob of paths to skip, relative to the root (repeatable)")
	f.IntVar(&flags.jobs, "jobs", config.DefaultJobs, "number of files rewritten at once")

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (default: .thumbref.* in the root)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// overlay builds the config layer of the flags the user actually set
func (rf *rootFlags) overlay(cmd *cobra.Command) *config.File {
	f := cmd.Flags()
	layer := &config.File{}

	if f.Changed("format") {
		layer.Format = &rf.format.value
	}
	if f.Changed("dry-run") {
		layer.DryRun = &rf.dryRun
	}
	if f.Changed("root") {
		layer.Root = &rf.root
	}
	if f.Changed("ext") {
		layer.Extension = &rf.extension
	}
	if f.Changed("ignore") {
		layer.Ignore = rf.ignore
	}
	if f.Changed("jobs") {
		layer.Jobs = &rf.jobs
	}

	return layer
}

func runRewrite(cmd *cobra.Command, flags *rootFlags, stdout io.Writer) error {
	ctx := cmd.Context()

	resolver, err := config.NewResolver()
	if err != nil {
		return errors.Errorf("creating config resolver: %w", err)
	}

	opts, err := resolver.Resolve(ctx, flags.configFile, flags.overlay(cmd))
	if err != nil {
		return usageError(err)
	}

	ctx = log.NewContext(ctx, log.New(stdout, *zerolog.Ctx(ctx)))

	rw, err := rewrite.New(rewrite.Options{Config: opts})
	if err != nil {
		return usageError(errors.Errorf("creating rewriter: %w", err))
	}

	result, err := rw.Run(ctx)
	if err != nil {
		return errors.Errorf("rewriting references: %w", err)
	}

	if result.HasErrors() {
		return &exitError{
			code: exitFileErrors,
			err:  errors.Errorf("%d of %d files could not be processed", result.Failed(), result.Processed()),
		}
	}

	return nil
}
