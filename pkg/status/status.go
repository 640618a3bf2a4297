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

package status

// 📊 FileStatus is the outcome of rewriting one file
type FileStatus int

const (
	StatusUnknown    FileStatus = iota
	StatusUpdated               // matches replaced and written
	StatusPreview               // matches found, dry run so nothing written
	StatusUnchanged             // no matches
	StatusReadError             // file could not be read
	StatusWriteError            // matches found but the write failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusPreview:
		return "dry run"
	case StatusUnchanged:
		return "no change"
	case StatusReadError:
		return "read error"
	case StatusWriteError:
		return "write error"
	default:
		return "unknown"
	}
}

// Failed reports whether the status counts as a file error
func (s FileStatus) Failed() bool {
	return s == StatusReadError || s == StatusWriteError
}
