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
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS_WriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o640))

	m := NewOS()
	require.NoError(t, m.WriteFile(ctx, path, []byte("new")), "writing should succeed")

	content, err := m.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content), "old content should be truncated")

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm(), "permissions should be kept")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no extra files should be created")
}

func TestOS_WriteFile_ReadOnly(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file modes are not enforced for this user")
	}

	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("thumbnail.png"), 0o444))

	err := NewOS().WriteFile(context.Background(), path, []byte("thumbnail.webp"))
	require.Error(t, err, "a read-only file must not be overwritten")
	assert.ErrorIs(t, err, os.ErrPermission)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "thumbnail.png", string(content))
}

func TestOS_WriteFile_SameInode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("links need extra privileges on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, os.Link(path, filepath.Join(dir, "hard.html")))
	require.NoError(t, os.Symlink("index.html", filepath.Join(dir, "soft.html")))

	m := NewOS()
	require.NoError(t, m.WriteFile(context.Background(), filepath.Join(dir, "soft.html"), []byte("new")))

	for _, name := range []string{"index.html", "hard.html", "soft.html"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "new", string(content), "%s should see the write", name)
	}

	info, err := os.Lstat(filepath.Join(dir, "soft.html"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "the symlink should not be replaced")
}

func TestOS_WriteFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "index.html")

	err := NewOS().WriteFile(context.Background(), path, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "opening file for writing")
}

func TestOS_ReadFile_Missing(t *testing.T) {
	_, err := NewOS().ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
