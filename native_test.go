package vfs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHostFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestNativeFileSystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHostFile(t, dir, "a.txt", []byte("alpha"))
	writeHostFile(t, dir, "b.bin", []byte("beta"))
	writeHostFile(t, dir, "sub/c.txt", []byte("gamma"))

	fs := NewNativeFileSystem()

	t.Run("exists", func(t *testing.T) {
		assert.True(t, fs.FileExists(filepath.Join(dir, "a.txt")))
		assert.False(t, fs.FileExists(filepath.Join(dir, "missing.txt")))
		assert.True(t, fs.FolderExists(filepath.Join(dir, "sub")))
		assert.False(t, fs.FolderExists(filepath.Join(dir, "a.txt")))
	})

	t.Run("read", func(t *testing.T) {
		blob := fs.ReadFile(filepath.Join(dir, "a.txt"))
		require.NotNil(t, blob)
		assert.Equal(t, []byte("alpha"), blob.Bytes())

		assert.Nil(t, fs.ReadFile(filepath.Join(dir, "missing.txt")))
	})

	t.Run("write", func(t *testing.T) {
		require.True(t, fs.WriteFile(filepath.Join(dir, "new.txt"), []byte("fresh")))
		blob := fs.ReadFile(filepath.Join(dir, "new.txt"))
		require.NotNil(t, blob)
		assert.Equal(t, []byte("fresh"), blob.Bytes())
	})

	t.Run("enumerate files", func(t *testing.T) {
		var names []string
		result := fs.EnumerateFiles(dir, []string{".txt"}, EnumerateToSlice(&names), false)
		sort.Strings(names)
		assert.Equal(t, len(names), result)
		assert.Contains(t, names, "a.txt")
		assert.NotContains(t, names, "b.bin")
		assert.NotContains(t, names, "sub")
	})

	t.Run("enumerate directories", func(t *testing.T) {
		var names []string
		result := fs.EnumerateDirectories(dir, EnumerateToSlice(&names), false)
		assert.Equal(t, 1, result)
		assert.Equal(t, []string{"sub"}, names)
	})

	t.Run("enumerate missing path", func(t *testing.T) {
		result := fs.EnumerateFiles(filepath.Join(dir, "nope"), nil, func(string) {}, false)
		assert.Equal(t, 0, result)
	})
}

func TestRelativeFileSystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHostFile(t, dir, "base/inner/f.txt", []byte("payload"))

	rel := NewRelativeFileSystem(NewNativeFileSystem(), filepath.ToSlash(filepath.Join(dir, "base")))

	assert.True(t, rel.FileExists("inner/f.txt"))
	assert.True(t, rel.FileExists("/inner/f.txt"))
	assert.True(t, rel.FolderExists("inner"))
	assert.False(t, rel.FileExists("f.txt"))

	blob := rel.ReadFile("inner/f.txt")
	require.NotNil(t, blob)
	assert.Equal(t, []byte("payload"), blob.Bytes())

	require.True(t, rel.WriteFile("inner/new.txt", []byte("n")))
	assert.True(t, rel.FileExists("inner/new.txt"))

	var names []string
	result := rel.EnumerateFiles("inner", nil, EnumerateToSlice(&names), false)
	assert.Equal(t, 2, result)
	sort.Strings(names)
	assert.Equal(t, []string{"f.txt", "new.txt"}, names)
}

func TestRelativeFileSystemNilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewRelativeFileSystem(nil, "base")
	})
}
