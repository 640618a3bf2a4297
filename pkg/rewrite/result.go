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

package rewrite

import (
	"github.com/walteh/thumbref/pkg/log"
	"github.com/walteh/thumbref/pkg/status"
)

// 📄 FileResult is the outcome of rewriting one candidate file
type FileResult struct {
	Path    string            // Path as discovered
	Rel     string            // Path relative to the run root, for display
	Status  status.FileStatus // Outcome
	Found   int               // References the rule would change
	Applied int               // References changed on disk, or that would be in a dry run
	Err     error             // Read or write failure
}

// 📊 Result aggregates a run. Files keeps discovery order.
type Result struct {
	Files  []FileResult
	DryRun bool
}

// Processed is the number of candidate files handled
func (r *Result) Processed() int {
	return len(r.Files)
}

// TotalApplied sums the applied references of every file
func (r *Result) TotalApplied() int {
	total := 0
	for _, f := range r.Files {
		total += f.Applied
	}
	return total
}

// TotalFound sums the found references of every file
func (r *Result) TotalFound() int {
	total := 0
	for _, f := range r.Files {
		total += f.Found
	}
	return total
}

// Failed is the number of files that hit a read or write error
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Status.Failed() {
			n++
		}
	}
	return n
}

// FoundNotApplied counts references found in files whose write failed
func (r *Result) FoundNotApplied() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status.StatusWriteError {
			n += f.Found
		}
	}
	return n
}

// HasErrors reports whether any file failed
func (r *Result) HasErrors() bool {
	return r.Failed() > 0
}

// Summary converts the result for display
func (r *Result) Summary() log.Summary {
	return log.Summary{
		Files:           r.Processed(),
		References:      r.TotalApplied(),
		FailedFiles:     r.Failed(),
		FoundNotApplied: r.FoundNotApplied(),
		DryRun:          r.DryRun,
	}
}
