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

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	countWidth  = 12 // Width for the reference count
	statusWidth = 12 // Width for status text
)

// 🎯 FormatFileOperation formats one rewritten file for display
func FormatFileOperation(path string, s FileStatus, references int) string {
	var prefix string
	switch s {
	case StatusUpdated:
		prefix = color.GreenString("✓")
	case StatusPreview:
		prefix = color.BlueString("⟳")
	case StatusReadError, StatusWriteError:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	refs := ""
	if references > 0 {
		refs = fmt.Sprintf("%d refs", references)
	}

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		fmt.Sprintf("%-*s", nameWidth, path),
		color.New(color.FgYellow).Sprint(fmt.Sprintf("%-*s", countWidth, refs)),
		fmt.Sprintf("%-*s", statusWidth, s.String()),
	)
}
