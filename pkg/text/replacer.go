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
	"bytes"
	"regexp"
)

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// MatchCount is the number of pattern matches, including ones that
	// already read as the replacement
	MatchCount int

	// ReplacementCount is the number of replacements that changed the content
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// Replacer applies a compiled Rule. It holds no mutable state and is safe
// for concurrent use.
type Replacer struct {
	rule        Rule
	pattern     *regexp.Regexp
	replacement []byte
}

// Rule returns the rule this replacer was compiled from
func (r *Replacer) Rule() Rule {
	return r.rule
}

// Replace rewrites every match in content. Matches that already equal the
// replacement byte for byte are left alone and not counted, so running the
// same rule twice reports no changes the second time.
func (r *Replacer) Replace(content []byte) *ReplacementResult {
	result := &ReplacementResult{
		OriginalContent: content,
		ModifiedContent: content,
	}

	locs := r.pattern.FindAllIndex(content, -1)
	result.MatchCount = len(locs)
	if len(locs) == 0 {
		return result
	}

	var buf bytes.Buffer
	buf.Grow(len(content))
	last := 0
	for _, loc := range locs {
		match := content[loc[0]:loc[1]]
		if bytes.Equal(match, r.replacement) {
			continue
		}
		buf.Write(content[last:loc[0]])
		buf.Write(r.replacement)
		last = loc[1]
		result.ReplacementCount++
	}

	if result.ReplacementCount == 0 {
		return result
	}

	buf.Write(content[last:])
	result.ModifiedContent = buf.Bytes()
	result.WasModified = true
	return result
}
