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

// Package rewrite updates image references in the candidate files of a tree.
package rewrite

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/thumbref/pkg/config"
	"github.com/walteh/thumbref/pkg/discover"
	"github.com/walteh/thumbref/pkg/fsys"
	"github.com/walteh/thumbref/pkg/log"
	"github.com/walteh/thumbref/pkg/status"
	"github.com/walteh/thumbref/pkg/text"
)

// 🔧 Options contains the dependencies of a Rewriter
type Options struct {
	// Config is the resolved run configuration
	Config *config.Options
	// Files is the file system, the local disk when nil
	Files fsys.FileManager
	// Logger prints progress and the summary, taken from the run context when nil
	Logger *log.Logger
}

// 🎮 Rewriter rewrites the references of every candidate file under a root
type Rewriter struct {
	root     string
	dryRun   bool
	jobs     int
	discover discover.Options
	replacer *text.Replacer
	files    fsys.FileManager
	logger   *log.Logger
}

// 🏭 New creates a rewriter with the given options
func New(opts Options) (*Rewriter, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}

	replacer, err := opts.Config.Rule().Compile()
	if err != nil {
		return nil, errors.Errorf("compiling rule: %w", err)
	}

	files := opts.Files
	if files == nil {
		files = fsys.NewOS()
	}

	jobs := opts.Config.Jobs
	if jobs < 1 {
		jobs = 1
	}

	return &Rewriter{
		root:     opts.Config.Root,
		dryRun:   opts.Config.DryRun,
		jobs:     jobs,
		discover: opts.Config.Discover(),
		replacer: replacer,
		files:    files,
		logger:   opts.Logger,
	}, nil
}

// 🔍 Discover returns the candidate files under the root
func (r *Rewriter) Discover(ctx context.Context) ([]string, error) {
	return discover.Files(ctx, r.root, r.discover)
}

// 📄 RewriteFile updates one file. Failures are reported in the result and
// never returned, so one bad file cannot stop a run. The file is only
// written when the rule changed something and this is not a dry run.
func (r *Rewriter) RewriteFile(ctx context.Context, path string) FileResult {
	logger := zerolog.Ctx(ctx).With().Str("file", path).Logger()

	result := FileResult{Path: path, Rel: r.rel(path)}

	content, err := r.files.ReadFile(ctx, path)
	if err != nil {
		result.Status = status.StatusReadError
		result.Err = errors.Errorf("reading %s: %w", result.Rel, err)
		return result
	}

	replaced := r.replacer.Replace(content)
	result.Found = replaced.ReplacementCount

	if !replaced.WasModified {
		result.Status = status.StatusUnchanged
		return result
	}

	if r.dryRun {
		logger.Debug().Int("references", result.Found).Msg("dry run, not writing")
		result.Status = status.StatusPreview
		result.Applied = result.Found
		return result
	}

	if err := r.files.WriteFile(ctx, path, replaced.ModifiedContent); err != nil {
		result.Status = status.StatusWriteError
		result.Err = errors.Errorf("writing %s: %w", result.Rel, err)
		return result
	}

	logger.Debug().Int("references", result.Found).Msg("file updated")
	result.Status = status.StatusUpdated
	result.Applied = result.Found
	return result
}

// 🏃 Run discovers the candidate files, rewrites each of them and prints a
// summary. A cancelled context stops the run between files; the files
// handled so far are still in the result.
func (r *Rewriter) Run(ctx context.Context) (*Result, error) {
	console := r.console(ctx)

	console.Header("updating thumbnail references")
	console.Settings(r.replacer.Rule().TargetFormat, r.dryRun, r.root)

	console.Infof("Searching for %s files...", r.discover.Extension)
	paths, err := r.Discover(ctx)
	if err != nil {
		console.Errorf("Could not search %s: %v", r.root, err)
		return nil, errors.Errorf("discovering files: %w", err)
	}
	console.Infof("Found %d %s files", len(paths), r.discover.Extension)
	console.LogNewline()

	var results []FileResult
	if r.jobs == 1 {
		results, err = r.runSequential(ctx, paths)
	} else {
		results, err = r.runParallel(ctx, paths)
	}

	result := &Result{Files: results, DryRun: r.dryRun}

	console.LogNewline()
	if err != nil {
		console.Warningf("Run stopped after %d of %d files", len(results), len(paths))
	}
	console.Summary(result.Summary())

	if err != nil {
		return result, errors.Errorf("run cancelled: %w", err)
	}

	return result, nil
}

func (r *Rewriter) runSequential(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.RewriteFile(ctx, path)
		r.report(ctx, res)
		results = append(results, res)
	}
	return results, nil
}

// runParallel rewrites up to r.jobs files at once. Every file is distinct,
// so the only shared state is the result slot each goroutine owns.
func (r *Rewriter) runParallel(ctx context.Context, paths []string) ([]FileResult, error) {
	slots := make([]FileResult, len(paths))
	done := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.RewriteFile(gctx, path)
			done[i] = true
			r.report(gctx, slots[i])
			return nil
		})
	}

	err := g.Wait()

	results := make([]FileResult, 0, len(paths))
	for i := range slots {
		if done[i] {
			results = append(results, slots[i])
		}
	}

	if err == nil && len(results) < len(paths) {
		err = ctx.Err()
	}
	return results, err
}

func (r *Rewriter) report(ctx context.Context, res FileResult) {
	references := res.Applied
	if res.Status == status.StatusWriteError {
		references = res.Found
	}
	r.console(ctx).LogFileOperation(ctx, log.FileOperation{
		Path:       res.Rel,
		Status:     res.Status,
		References: references,
		Err:        res.Err,
	})
}

// console returns the configured logger, or the one carried by ctx
func (r *Rewriter) console(ctx context.Context) *log.Logger {
	if r.logger != nil {
		return r.logger
	}
	return log.FromContext(ctx)
}

func (r *Rewriter) rel(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
