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

package fsys

import (
	"context"
	"os"

	"gitlab.com/tozd/go/errors"
)

// 💾 FileManager is the file system surface the rewriter needs
type FileManager interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile overwrites an existing file in place
	WriteFile(ctx context.Context, path string, content []byte) error
}

// 🔧 OS implements FileManager on the local disk
type OS struct{}

// 🏭 NewOS creates a new OS file manager
func NewOS() *OS {
	return &OS{}
}

var _ FileManager = (*OS)(nil)

func (o *OS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// WriteFile truncates path and writes content to the same inode. The file
// must already exist and be writable; symlinks are written through, and
// hard links, ownership and mode are left as they were.
func (o *OS) WriteFile(ctx context.Context, path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.Errorf("opening file for writing: %w", err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return errors.Errorf("writing file: %w", err)
	}

	if err := f.Close(); err != nil {
		return errors.Errorf("closing file: %w", err)
	}

	return nil
}
