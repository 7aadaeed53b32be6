package syncer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stamp = "2026-10-18 09:30:00"

const sampleList = `# NAME: Apple
# AUTHOR: someone
# UPDATED: 2020-01-01 00:00:00
# DOMAIN: 0
# DOMAIN-SUFFIX: 0
# TOTAL: 0
DOMAIN,apple.com
DOMAIN-SUFFIX,icloud.com
DOMAIN-SUFFIX,apple.com.cn
DOMAIN-KEYWORD,apple
`

const sampleReadme = `# {{TEMPLATE_NAME}}

最后更新时间：2020-01-01 00:00:00

| 类型 | 数量 |
| --- | --- |
| DOMAIN | 0 |
| DOMAIN-SUFFIX | 0 |
| TOTAL | 0 |
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSyncDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Apple")
	writeFile(t, filepath.Join(dir, "Apple.list"), sampleList)
	writeFile(t, filepath.Join(dir, "README.md"), sampleReadme)

	s := New(Options{}, zerolog.Nop())
	res, err := s.SyncDir(dir, stamp)
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, res.Status)
	assert.True(t, res.ListChanged)
	assert.True(t, res.ReadmeChanged)
	assert.Equal(t, filepath.Join(dir, "Apple.list"), res.ListFile)
	assert.Equal(t, 4, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Domain())
	assert.Equal(t, 2, res.Summary.DomainSuffix())
	assert.Empty(t, res.ListDiff)

	list := readFile(t, filepath.Join(dir, "Apple.list"))
	assert.Contains(t, list, "# UPDATED: "+stamp+"\n# DOMAIN: 1\n# DOMAIN-SUFFIX: 2\n# TOTAL: 4\n")
	assert.True(t, strings.HasSuffix(list, "DOMAIN-KEYWORD,apple\n"))

	readme := readFile(t, filepath.Join(dir, "README.md"))
	assert.Equal(t, `# Apple

最后更新时间：`+stamp+`

| 类型 | 数量 |
| --- | --- |
| DOMAIN         | 1     |
| DOMAIN-SUFFIX  | 2     |
| TOTAL          | 4     |
`, readme)

	// Same timestamp again: nothing left to change.
	again, err := s.SyncDir(dir, stamp)
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, again.Status)
	assert.False(t, again.ListChanged)
	assert.False(t, again.ReadmeChanged)
}

func TestSyncDirWithoutList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), sampleReadme)

	res, err := New(Options{}, zerolog.Nop()).SyncDir(dir, stamp)
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, res.Status)
	assert.Empty(t, res.ListFile)
	assert.Equal(t, sampleReadme, readFile(t, filepath.Join(dir, "README.md")), "README untouched without a list")
}

func TestSyncDirWithoutReadme(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.list"), "DOMAIN,a.com\n")

	res, err := New(Options{}, zerolog.Nop()).SyncDir(dir, stamp)
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, res.Status)
	assert.Empty(t, res.ReadmeFile)
	assert.False(t, res.ReadmeChanged)
}

func TestSyncDirPicksFirstList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.list"), "DOMAIN,b.com\n")
	writeFile(t, filepath.Join(dir, "a.list"), "DOMAIN,a.com\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.list"), 0o755))

	res, err := New(Options{}, zerolog.Nop()).SyncDir(dir, stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.list"), res.ListFile)
	assert.Equal(t, "DOMAIN,b.com\n", readFile(t, filepath.Join(dir, "b.list")))
}

func TestSyncDirDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.list"), sampleList)
	writeFile(t, filepath.Join(dir, "README.md"), sampleReadme)

	res, err := New(Options{DryRun: true}, zerolog.Nop()).SyncDir(dir, stamp)
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, res.Status)
	assert.Contains(t, res.ListDiff, "-# UPDATED: 2020-01-01 00:00:00\n")
	assert.Contains(t, res.ListDiff, "+# UPDATED: "+stamp+"\n")
	assert.Contains(t, res.ReadmeDiff, "+| TOTAL          | 4     |\n")

	assert.Equal(t, sampleList, readFile(t, filepath.Join(dir, "x.list")))
	assert.Equal(t, sampleReadme, readFile(t, filepath.Join(dir, "README.md")))
}

func TestSyncDirWriteError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.list"), "DOMAIN,a.com\n")

	boom := errors.New("disk full")
	s := New(Options{Write: func(string, []byte, fs.FileMode) error { return boom }}, zerolog.Nop())

	_, err := s.SyncDir(dir, stamp)
	assert.ErrorIs(t, err, boom)
}

func TestSyncAll(t *testing.T) {
	root := t.TempDir()
	apple := filepath.Join(root, "Apple")
	empty := filepath.Join(root, "Empty")
	writeFile(t, filepath.Join(apple, "Apple.list"), "DOMAIN,apple.com\n")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	s := New(Options{}, zerolog.Nop())
	results, err := s.SyncAll(context.Background(), []string{empty, apple, apple + "/"}, stamp)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, apple, results[0].Dir)
	assert.Equal(t, StatusUpdated, results[0].Status)
	assert.Equal(t, empty, results[1].Dir)
	assert.Equal(t, StatusUnchanged, results[1].Status)
}

func TestSyncAllStopsOnError(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "b-good")
	writeFile(t, filepath.Join(good, "g.list"), "DOMAIN,a.com\n")
	missing := filepath.Join(root, "a-missing")

	results, err := New(Options{}, zerolog.Nop()).SyncAll(context.Background(), []string{good, missing}, stamp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
	assert.Empty(t, results)
	assert.Equal(t, "DOMAIN,a.com\n", readFile(t, filepath.Join(good, "g.list")))
}

func TestSyncAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}, zerolog.Nop()).SyncAll(ctx, []string{t.TempDir()}, stamp)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLineDiff(t *testing.T) {
	assert.Equal(t, "-b\n+c\n", LineDiff("a\nb\nd\n", "a\nc\nd\n"))
	assert.Empty(t, LineDiff("same\n", "same\n"))
	assert.Equal(t, "+# TOTAL: 1\n", LineDiff("x\n", "x\n# TOTAL: 1\n"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "updated", StatusUpdated.String())
	assert.Equal(t, "unchanged", StatusUnchanged.String())
}
