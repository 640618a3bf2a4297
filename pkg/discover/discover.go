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

// Package discover finds the candidate files a rewrite run scans.
package discover

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Options controls which files are candidates
type Options struct {
	// Extension is the case-sensitive name suffix a candidate must end with
	Extension string

	// Ignore holds doublestar globs matched against slash-separated paths
	// relative to the root. A matching directory is not descended into.
	Ignore []string
}

// 🔍 Validate checks the ignore globs
func (o Options) Validate() error {
	if o.Extension == "" {
		return errors.New("extension is required")
	}
	for _, pattern := range o.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}

// IsHidden reports whether a directory name marks a hidden directory
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Files walks root and returns every regular file (or symlink to one) whose
// name ends with opts.Extension. Hidden subdirectories are pruned before they are read.
// Order follows the walk and is not a contract.
func Files(ctx context.Context, root string, opts Options) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if err := opts.Validate(); err != nil {
		return nil, errors.Errorf("validating discover options: %w", err)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if IsHidden(d.Name()) {
				logger.Debug().Str("dir", path).Msg("skipping hidden directory")
				return filepath.SkipDir
			}
			if ignored(ctx, root, path, opts.Ignore) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), opts.Extension) {
			return nil
		}

		if !d.Type().IsRegular() && !symlinkToFile(ctx, path, d) {
			return nil
		}

		if ignored(ctx, root, path, opts.Ignore) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	logger.Debug().Str("root", root).Int("count", len(files)).Msg("discovered candidate files")

	return files, nil
}

// symlinkToFile reports whether d is a symlink that resolves to a regular
// file. Links to directories are never followed.
func symlinkToFile(ctx context.Context, path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("skipping broken symlink")
		return false
	}
	return info.Mode().IsRegular()
}

// 🔍 ignored checks a path against the ignore globs
func ignored(ctx context.Context, root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("path", rel).Str("pattern", pattern).Msg("path ignored by pattern")
			return true
		}
	}

	return false
}
