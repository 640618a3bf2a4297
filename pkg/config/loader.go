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
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// FileNames are the config files looked up in the root, in order
var FileNames = []string{".thumbref.yaml", ".thumbref.yml", ".thumbref.hcl", ".thumbref.json"}

const (
	EnvFormat    = "THUMBREF_FORMAT"
	EnvDryRun    = "THUMBREF_DRY_RUN"
	EnvExtension = "THUMBREF_EXT"
	EnvJobs      = "THUMBREF_JOBS"
)

// 🎯 Load reads and parses one config file
func Load(ctx context.Context, path string) (*File, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}

	// a relative root is relative to the file that names it
	if cfg.Root != nil && !filepath.IsAbs(*cfg.Root) {
		root := filepath.Join(filepath.Dir(path), *cfg.Root)
		cfg.Root = &root
	}

	return cfg, nil
}

// 🔍 Find returns the first of FileNames present in dir, or "" if none is
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", errors.Errorf("checking %s: %w", path, err)
		}
	}
	return "", nil
}

// 🌱 Env builds a layer from THUMBREF_* variables. Values from lookup win
// over values in dir/.env; a missing .env is not an error.
func Env(dir string, lookup func(string) (string, bool)) (*File, error) {
	dotenv := map[string]string{}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err == nil {
		dotenv, err = godotenv.Read(path)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", path, err)
		}
	}

	get := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := &File{}
	if v, ok := get(EnvFormat); ok && v != "" {
		cfg.Format = &v
	}
	if v, ok := get(EnvExtension); ok && v != "" {
		cfg.Extension = &v
	}
	if v, ok := get(EnvDryRun); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Errorf("%s: %w", EnvDryRun, err)
		}
		cfg.DryRun = &b
	}
	if v, ok := get(EnvJobs); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Errorf("%s: %w", EnvJobs, err)
		}
		cfg.Jobs = &n
	}

	return cfg, nil
}

// 🏗️ Resolver layers defaults, config file, environment and flags
type Resolver struct {
	// WorkDir is the root when nothing else names one
	WorkDir string

	// LookupEnv reads the process environment
	LookupEnv func(string) (string, bool)
}

// 🏭 NewResolver creates a resolver for the current process
func NewResolver() (*Resolver, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Errorf("getting working directory: %w", err)
	}
	return &Resolver{WorkDir: wd, LookupEnv: os.LookupEnv}, nil
}

// 🎯 Resolve builds the options of a run. configPath may be empty, in which
// case the config file is looked up in the root.
func (r *Resolver) Resolve(ctx context.Context, configPath string, flags *File) (*Options, error) {
	logger := zerolog.Ctx(ctx)

	searchDir := r.WorkDir
	if flags != nil && flags.Root != nil {
		searchDir = *flags.Root
	}

	if configPath == "" {
		found, err := Find(searchDir)
		if err != nil {
			return nil, errors.Errorf("finding config file: %w", err)
		}
		configPath = found
	}

	opts := Defaults()
	opts.Root = r.WorkDir

	if configPath != "" {
		fileCfg, err := Load(ctx, configPath)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		opts.Apply(fileCfg)
		logger.Debug().Str("path", configPath).Msg("applied config file")
	}

	envCfg, err := Env(opts.rootOr(searchDir, flags), r.LookupEnv)
	if err != nil {
		return nil, errors.Errorf("loading environment: %w", err)
	}
	opts.Apply(envCfg)

	opts.Apply(flags)

	if err := opts.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Str("options", opts.String()).Msg("resolved options")

	return opts, nil
}

// rootOr returns the directory to read .env from: an explicit root flag,
// otherwise the root named by the config file, otherwise fallback
func (o *Options) rootOr(fallback string, flags *File) string {
	if flags != nil && flags.Root != nil {
		return *flags.Root
	}
	if o.Root != "" {
		return o.Root
	}
	return fallback
}
