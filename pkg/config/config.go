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

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/thumbref/pkg/discover"
	"github.com/walteh/thumbref/pkg/text"
)

const (
	DefaultFormat    = "webp"
	DefaultExtension = ".html"
	DefaultBaseName  = "thumbnail"
	DefaultJobs      = 1
)

// DefaultSourceExtensions are the legacy image extensions rewritten by default
var DefaultSourceExtensions = []string{"png", "jpg", "jpeg", "gif"}

// 📚 Options is the resolved configuration of a run
type Options struct {
	Root             string
	Format           string
	DryRun           bool
	Extension        string
	Ignore           []string
	BaseName         string
	SourceExtensions []string
	Jobs             int
}

// 🔄 File is one configuration layer. Nil fields are unset.
type File struct {
	Root             *string  `json:"root,omitempty" yaml:"root,omitempty" hcl:"root,optional"`
	Format           *string  `json:"format,omitempty" yaml:"format,omitempty" hcl:"format,optional"`
	DryRun           *bool    `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	Extension        *string  `json:"extension,omitempty" yaml:"extension,omitempty" hcl:"extension,optional"`
	Ignore           []string `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`
	BaseName         *string  `json:"base_name,omitempty" yaml:"base_name,omitempty" hcl:"base_name,optional"`
	SourceExtensions []string `json:"source_extensions,omitempty" yaml:"source_extensions,omitempty" hcl:"source_extensions,optional"`
	Jobs             *int     `json:"jobs,omitempty" yaml:"jobs,omitempty" hcl:"jobs,optional"`
}

// 🏭 Defaults returns the options used when nothing overrides them
func Defaults() *Options {
	return &Options{
		Format:           DefaultFormat,
		Extension:        DefaultExtension,
		BaseName:         DefaultBaseName,
		SourceExtensions: append([]string(nil), DefaultSourceExtensions...),
		Jobs:             DefaultJobs,
	}
}

// Apply overlays the fields set in f. Ignore patterns accumulate across
// layers, everything else is replaced.
func (o *Options) Apply(f *File) {
	if f == nil {
		return
	}
	if f.Root != nil {
		o.Root = *f.Root
	}
	if f.Format != nil {
		o.Format = *f.Format
	}
	if f.DryRun != nil {
		o.DryRun = *f.DryRun
	}
	if f.Extension != nil {
		o.Extension = *f.Extension
	}
	if len(f.Ignore) > 0 {
		o.Ignore = append(o.Ignore, f.Ignore...)
	}
	if f.BaseName != nil {
		o.BaseName = *f.BaseName
	}
	if len(f.SourceExtensions) > 0 {
		o.SourceExtensions = append([]string(nil), f.SourceExtensions...)
	}
	if f.Jobs != nil {
		o.Jobs = *f.Jobs
	}
}

// 🔍 Validate checks the options and normalizes the format and root
func (o *Options) Validate() error {
	if o.Root == "" {
		return errors.New("root is required")
	}
	root, err := filepath.Abs(o.Root)
	if err != nil {
		return errors.Errorf("resolving root %q: %w", o.Root, err)
	}
	o.Root = filepath.Clean(root)

	format, err := text.NormalizeFormat(o.Format)
	if err != nil {
		return errors.Errorf("format: %w", err)
	}
	o.Format = format

	if o.Extension == "" || strings.ContainsAny(o.Extension, `/\`) {
		return errors.Errorf("extension %q is not a valid file suffix", o.Extension)
	}

	if o.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", o.Jobs)
	}

	if err := o.Rule().Validate(); err != nil {
		return errors.Errorf("rule: %w", err)
	}

	if err := o.Discover().Validate(); err != nil {
		return err
	}

	return nil
}

// Rule returns the substitution rule for these options
func (o *Options) Rule() text.Rule {
	return text.Rule{
		BaseName:         o.BaseName,
		SourceExtensions: o.SourceExtensions,
		TargetFormat:     o.Format,
	}
}

// Discover returns the candidate file filter for these options
func (o *Options) Discover() discover.Options {
	return discover.Options{
		Extension: o.Extension,
		Ignore:    o.Ignore,
	}
}

// 📝 String returns a string representation of the options
func (o *Options) String() string {
	mode := "write"
	if o.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf("%s*%s [%s.{%s} -> %s.%s] (%s, jobs=%d)",
		o.Root+string(filepath.Separator), o.Extension,
		o.BaseName, strings.Join(o.SourceExtensions, ","),
		o.BaseName, o.Format, mode, o.Jobs)
}
