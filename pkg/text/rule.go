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

package text

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// formatPattern limits target formats to plain extension tokens
var formatPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Rule describes one reference substitution: BaseName followed by one of
// SourceExtensions is rewritten to BaseName.TargetFormat.
type Rule struct {
	// BaseName is the literal file base name to look for, e.g. "thumbnail"
	BaseName string

	// SourceExtensions are the legacy extensions matched after the base name
	SourceExtensions []string

	// TargetFormat is the extension written in place of the matched one
	TargetFormat string
}

// NormalizeFormat strips a leading dot and validates the format token.
func NormalizeFormat(format string) (string, error) {
	format = strings.TrimPrefix(strings.TrimSpace(format), ".")
	if format == "" {
		return "", errors.New("format must not be empty")
	}
	if !formatPattern.MatchString(format) {
		return "", errors.Errorf("format %q must only contain letters and digits", format)
	}
	return format, nil
}

// Validate checks that the rule can be compiled
func (r Rule) Validate() error {
	if strings.TrimSpace(r.BaseName) == "" {
		return errors.New("base name is required")
	}
	if len(r.SourceExtensions) == 0 {
		return errors.New("at least one source extension is required")
	}
	for i, ext := range r.SourceExtensions {
		if _, err := NormalizeFormat(ext); err != nil {
			return errors.Errorf("source extension %d: %w", i, err)
		}
	}
	if _, err := NormalizeFormat(r.TargetFormat); err != nil {
		return errors.Errorf("target format: %w", err)
	}
	return nil
}

// Pattern returns the case-insensitive expression matching the rule.
func (r Rule) Pattern() string {
	alts := make([]string, 0, len(r.SourceExtensions))
	for _, ext := range r.SourceExtensions {
		alts = append(alts, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	return `(?i)` + regexp.QuoteMeta(r.BaseName) + `\.(?:` + strings.Join(alts, "|") + `)`
}

// Replacement returns the literal text written for every match.
func (r Rule) Replacement() string {
	return r.BaseName + "." + strings.TrimPrefix(r.TargetFormat, ".")
}

// Compile validates the rule and builds a Replacer for it.
func (r Rule) Compile() (*Replacer, error) {
	if err := r.Validate(); err != nil {
		return nil, errors.Errorf("validating rule: %w", err)
	}

	pattern, err := regexp.Compile(r.Pattern())
	if err != nil {
		return nil, errors.Errorf("compiling pattern: %w", err)
	}

	return &Replacer{
		rule:        r,
		pattern:     pattern,
		replacement: []byte(r.Replacement()),
	}, nil
}

// DefaultRule is the thumbnail rule with the given target format.
func DefaultRule(format string) Rule {
	return Rule{
		BaseName:         "thumbnail",
		SourceExtensions: []string{"png", "jpg", "jpeg", "gif"},
		TargetFormat:     format,
	}
}
