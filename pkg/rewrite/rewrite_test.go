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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/thumbref/pkg/config"
	"github.com/walteh/thumbref/pkg/fsys"
	"github.com/walteh/thumbref/pkg/log"
	"github.com/walteh/thumbref/pkg/status"
)

// recordingFiles wraps the local disk and records every read and write
type recordingFiles struct {
	fsys.OS

	mu        sync.Mutex
	reads     []string
	writes    []string
	failRead  map[string]error
	failWrite map[string]error
	onRead    func()
}

func (f *recordingFiles) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.reads = append(f.reads, path)
	err := f.failRead[path]
	f.mu.Unlock()
	if f.onRead != nil {
		f.onRead()
	}
	if err != nil {
		return nil, err
	}
	return f.OS.ReadFile(ctx, path)
}

func (f *recordingFiles) WriteFile(ctx context.Context, path string, content []byte) error {
	f.mu.Lock()
	f.writes = append(f.writes, path)
	err := f.failWrite[path]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.OS.WriteFile(ctx, path, content)
}

func (f *recordingFiles) relReads(t *testing.T, root string) []string {
	return relSorted(t, root, f.reads)
}

func (f *recordingFiles) relWrites(t *testing.T, root string) []string {
	return relSorted(t, root, f.writes)
}

func relSorted(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(content)
}

type harness struct {
	root    string
	files   *recordingFiles
	console *bytes.Buffer
	ctx     context.Context
}

func newHarness(t *testing.T, tree map[string]string) *harness {
	t.Helper()

	color.NoColor = true
	pterm.DisableStyling()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableStyling()
	})

	root := t.TempDir()
	writeTree(t, root, tree)

	return &harness{
		root:    root,
		files:   &recordingFiles{},
		console: &bytes.Buffer{},
		ctx:     zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background()),
	}
}

func (h *harness) rewriter(t *testing.T, mutate func(o *config.Options)) *Rewriter {
	t.Helper()

	opts := config.Defaults()
	opts.Root = h.root
	if mutate != nil {
		mutate(opts)
	}
	require.NoError(t, opts.Validate(), "options should be valid")

	r, err := New(Options{
		Config: opts,
		Files:  h.files,
		Logger: log.New(h.console, *zerolog.Ctx(h.ctx)),
	})
	require.NoError(t, err, "creating rewriter should succeed")
	return r
}

func TestRun_ReplacesEveryOccurrence(t *testing.T) {
	page := "<html>\n<img src=\"games/a/thumbnail.png\">\n<img src='THUMBNAIL.JPEG'>\n<p>thumbnail.Gif, thumbnail.jpg</p>\n<img src=\"banner.png\">\n</html>\n"
	h := newHarness(t, map[string]string{"index.html": page})

	result, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err)

	want := "<html>\n<img src=\"games/a/thumbnail.webp\">\n<img src='thumbnail.webp'>\n<p>thumbnail.webp, thumbnail.webp</p>\n<img src=\"banner.png\">\n</html>\n"
	assert.Equal(t, want, readFile(t, h.root, "index.html"), "only the references should change")
	assert.Equal(t, 4, result.TotalApplied())
	assert.Equal(t, 1, result.Processed())
	require.Len(t, result.Files, 1)
	assert.Equal(t, status.StatusUpdated, result.Files[0].Status)
	assert.Equal(t, "index.html", result.Files[0].Rel)
}

func TestRun_DryRunNeverWrites(t *testing.T) {
	tree := map[string]string{
		"index.html":         `<img src="thumbnail.png">`,
		"games/a/index.html": `thumbnail.gif thumbnail.jpg`,
		"about.html":         `nothing here`,
	}
	h := newHarness(t, tree)

	result, err := h.rewriter(t, func(o *config.Options) { o.DryRun = true }).Run(h.ctx)
	require.NoError(t, err)

	for rel, content := range tree {
		assert.Equal(t, content, readFile(t, h.root, rel), "%s should be untouched", rel)
	}
	assert.Empty(t, h.files.writes, "dry run should never open a file for writing")
	assert.Equal(t, 3, result.TotalApplied(), "dry run reports the would-be count")
	assert.True(t, result.DryRun)
	assert.Contains(t, h.console.String(), "This was a dry run. Run without --dry-run to apply changes.")
}

func TestRun_Idempotent(t *testing.T) {
	for _, format := range []string{"webp", "jpg"} {
		t.Run(format, func(t *testing.T) {
			h := newHarness(t, map[string]string{
				"index.html":    `<img src="thumbnail.PNG"> <img src="thumbnail.jpg">`,
				"sub/page.html": `thumbnail.jpeg`,
			})

			first, err := h.rewriter(t, func(o *config.Options) { o.Format = format }).Run(h.ctx)
			require.NoError(t, err)
			assert.Greater(t, first.TotalApplied(), 0)

			writesAfterFirst := len(h.files.writes)

			second, err := h.rewriter(t, func(o *config.Options) { o.Format = format }).Run(h.ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, second.TotalApplied(), "second run should report no changes")
			assert.Len(t, h.files.writes, writesAfterFirst, "second run should not write")
		})
	}
}

func TestRun_SkipsHiddenDirectories(t *testing.T) {
	h := newHarness(t, map[string]string{
		"index.html":           `thumbnail.png`,
		".git/index.html":      `thumbnail.png`,
		"games/.draft/a.html":  `thumbnail.png`,
		"games/visible/a.html": `thumbnail.png`,
	})

	result, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"games/visible/a.html", "index.html"}, h.files.relReads(t, h.root))
	assert.Equal(t, `thumbnail.png`, readFile(t, h.root, ".git/index.html"))
	assert.Equal(t, `thumbnail.png`, readFile(t, h.root, "games/.draft/a.html"))
	assert.Equal(t, 2, result.Processed())
	assert.NotContains(t, h.console.String(), ".git")
}

func TestRun_IgnoresOtherExtensions(t *testing.T) {
	h := newHarness(t, map[string]string{
		"index.html":  `thumbnail.png`,
		"app.js":      `thumbnail.png`,
		"data.json":   `{"thumb": "thumbnail.png"}`,
		"README.HTML": `thumbnail.png`,
	})

	_, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"index.html"}, h.files.relReads(t, h.root))
	assert.Equal(t, `thumbnail.png`, readFile(t, h.root, "app.js"))
	assert.Equal(t, `{"thumb": "thumbnail.png"}`, readFile(t, h.root, "data.json"))
	assert.Equal(t, `thumbnail.png`, readFile(t, h.root, "README.HTML"))
}

func TestRewriteFile(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		format      string
		dryRun      bool
		want        string
		wantStatus  status.FileStatus
		wantFound   int
		wantApplied int
		wantWrite   bool
	}{
		{
			name:        "uppercase_png_default_options",
			content:     `<img src="thumbnail.PNG">`,
			want:        `<img src="thumbnail.webp">`,
			wantStatus:  status.StatusUpdated,
			wantFound:   1,
			wantApplied: 1,
			wantWrite:   true,
		},
		{
			name:       "no_tokens",
			content:    `<img src="hero.png">`,
			want:       `<img src="hero.png">`,
			wantStatus: status.StatusUnchanged,
		},
		{
			name:        "gif_to_jpg",
			content:     `thumbnail.gif`,
			format:      "jpg",
			want:        `thumbnail.jpg`,
			wantStatus:  status.StatusUpdated,
			wantFound:   1,
			wantApplied: 1,
			wantWrite:   true,
		},
		{
			name:        "dry_run",
			content:     `thumbnail.gif thumbnail.png`,
			dryRun:      true,
			want:        `thumbnail.gif thumbnail.png`,
			wantStatus:  status.StatusPreview,
			wantFound:   2,
			wantApplied: 2,
		},
		{
			name:       "already_target_format",
			content:    `thumbnail.jpg`,
			format:     "jpg",
			want:       `thumbnail.jpg`,
			wantStatus: status.StatusUnchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, map[string]string{"page.html": tt.content})
			r := h.rewriter(t, func(o *config.Options) {
				if tt.format != "" {
					o.Format = tt.format
				}
				o.DryRun = tt.dryRun
			})

			got := r.RewriteFile(h.ctx, filepath.Join(h.root, "page.html"))

			require.NoError(t, got.Err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantFound, got.Found)
			assert.Equal(t, tt.wantApplied, got.Applied)
			assert.Equal(t, tt.want, readFile(t, h.root, "page.html"))
			if tt.wantWrite {
				assert.Equal(t, []string{"page.html"}, h.files.relWrites(t, h.root))
			} else {
				assert.Empty(t, h.files.writes, "file should not be opened for writing")
			}
		})
	}
}

func TestRun_WriteFailure(t *testing.T) {
	h := newHarness(t, map[string]string{
		"locked.html": `thumbnail.png thumbnail.gif`,
		"open.html":   `thumbnail.png`,
	})
	locked := filepath.Join(h.root, "locked.html")
	h.files.failWrite = map[string]error{locked: errors.New("permission denied")}

	result, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err, "a file error should not abort the run")

	byRel := map[string]FileResult{}
	for _, f := range result.Files {
		byRel[f.Rel] = f
	}

	failed := byRel["locked.html"]
	assert.Equal(t, status.StatusWriteError, failed.Status)
	assert.Equal(t, 2, failed.Found, "found references are kept")
	assert.Equal(t, 0, failed.Applied, "nothing was applied")
	require.Error(t, failed.Err)
	assert.Contains(t, failed.Err.Error(), "permission denied")

	assert.Equal(t, status.StatusUpdated, byRel["open.html"].Status)
	assert.Equal(t, `thumbnail.webp`, readFile(t, h.root, "open.html"))
	assert.Equal(t, `thumbnail.png thumbnail.gif`, readFile(t, h.root, "locked.html"))

	assert.Equal(t, 1, result.TotalApplied())
	assert.Equal(t, 3, result.TotalFound())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, 2, result.FoundNotApplied())
	assert.True(t, result.HasErrors())

	out := h.console.String()
	assert.Contains(t, out, "Files with errors: 1")
	assert.Contains(t, out, "References found but not written: 2")
}

func TestRewriteFile_ReadOnlyFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file modes are not enforced for this user")
	}

	h := newHarness(t, map[string]string{"page.html": `<img src="thumbnail.png">`})
	path := filepath.Join(h.root, "page.html")
	require.NoError(t, os.Chmod(path, 0o444))

	got := h.rewriter(t, nil).RewriteFile(h.ctx, path)

	assert.Equal(t, status.StatusWriteError, got.Status)
	assert.Equal(t, 1, got.Found, "found references are kept")
	assert.Equal(t, 0, got.Applied, "nothing was applied")
	require.Error(t, got.Err)
	assert.ErrorIs(t, got.Err, os.ErrPermission)
	assert.Equal(t, `<img src="thumbnail.png">`, readFile(t, h.root, "page.html"))
}

func TestRun_WritesThroughSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	h := newHarness(t, map[string]string{"real/page.txt": `<img src="thumbnail.png">`})
	link := filepath.Join(h.root, "link.html")
	require.NoError(t, os.Symlink(filepath.Join("real", "page.txt"), link))

	result, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed())
	assert.Equal(t, 1, result.TotalApplied())
	assert.Equal(t, `<img src="thumbnail.webp">`, readFile(t, h.root, "real/page.txt"))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "the link should still be a symlink")
}

func TestRun_LoggerFromContext(t *testing.T) {
	h := newHarness(t, map[string]string{"index.html": `thumbnail.gif`})

	opts := config.Defaults()
	opts.Root = h.root
	require.NoError(t, opts.Validate())

	r, err := New(Options{Config: opts, Files: h.files})
	require.NoError(t, err)

	ctx := log.NewContext(h.ctx, log.New(h.console, *zerolog.Ctx(h.ctx)))
	result, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalApplied())
	out := h.console.String()
	assert.Contains(t, out, "index.html")
	assert.Contains(t, out, "Files processed: 1")
}

func TestRun_ReadFailure(t *testing.T) {
	h := newHarness(t, map[string]string{
		"broken.html": `thumbnail.png`,
		"ok.html":     `thumbnail.png`,
	})
	broken := filepath.Join(h.root, "broken.html")
	h.files.failRead = map[string]error{broken: os.ErrPermission}

	result, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed())
	assert.Equal(t, 1, result.TotalApplied())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, 0, result.FoundNotApplied())

	for _, f := range result.Files {
		if f.Rel == "broken.html" {
			assert.Equal(t, status.StatusReadError, f.Status)
			assert.ErrorIs(t, f.Err, os.ErrPermission)
		}
	}
	assert.NotContains(t, h.files.relWrites(t, h.root), "broken.html")
}

func TestRun_NoChanges(t *testing.T) {
	h := newHarness(t, map[string]string{"index.html": `<img src="thumbnail.webp">`})

	result, err := h.rewriter(t, nil).Run(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalApplied())
	assert.Empty(t, h.files.writes)
	assert.Contains(t, h.console.String(), "No changes needed - all references are already up to date!")
}

func TestRun_Parallel(t *testing.T) {
	tree := map[string]string{}
	for _, dir := range []string{"a", "b", "c", "d", "e", "f"} {
		tree[dir+"/index.html"] = `<img src="thumbnail.png"><img src="thumbnail.gif">`
		tree[dir+"/notes.html"] = `no references`
	}
	h := newHarness(t, tree)

	r := h.rewriter(t, func(o *config.Options) { o.Jobs = 4 })

	paths, err := r.Discover(h.ctx)
	require.NoError(t, err)

	result, err := r.Run(h.ctx)
	require.NoError(t, err)

	require.Len(t, result.Files, len(paths))
	for i, f := range result.Files {
		assert.Equal(t, paths[i], f.Path, "results should keep discovery order")
	}
	assert.Equal(t, 12, result.TotalApplied())
	assert.Len(t, h.files.writes, 6)
	for dir := range tree {
		if strings.HasSuffix(dir, "index.html") {
			assert.Equal(t, `<img src="thumbnail.webp"><img src="thumbnail.webp">`, readFile(t, h.root, dir))
		}
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	for _, jobs := range []int{1, 3} {
		h := newHarness(t, map[string]string{"index.html": `thumbnail.png`})

		ctx, cancel := context.WithCancel(h.ctx)
		cancel()

		result, err := h.rewriter(t, func(o *config.Options) { o.Jobs = jobs }).Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, result, "jobs=%d: a cancelled walk returns no result", jobs)
		assert.Empty(t, h.files.writes)
		assert.Contains(t, h.console.String(), "Could not search")
	}
}

func TestRun_CancelledBetweenFiles(t *testing.T) {
	h := newHarness(t, map[string]string{"a.html": `thumbnail.png`, "b.html": `thumbnail.png`})

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()
	h.files.onRead = cancel

	result, err := h.rewriter(t, nil).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, result, "files handled before the cancel are reported")
	require.Len(t, result.Files, 1, "the file in flight finishes, the next one is not started")
	assert.Equal(t, status.StatusUpdated, result.Files[0].Status)
	assert.Len(t, h.files.reads, 1)
	assert.Contains(t, h.console.String(), "Run stopped after 1 of 2 files")
}

func TestNew(t *testing.T) {
	_, err := New(Options{Logger: log.New(&bytes.Buffer{}, zerolog.Nop())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")

	_, err = New(Options{Config: config.Defaults()})
	require.NoError(t, err, "the logger may come from the run context")

	opts := config.Defaults()
	opts.BaseName = ""
	_, err = New(Options{Config: opts, Logger: log.New(&bytes.Buffer{}, zerolog.Nop())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling rule")
}
