package vfs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftglass/vfs/internal/testutil"
)

func newCompressionFixture(t *testing.T) (*CompressionLayer, string) {
	t.Helper()

	dir := t.TempDir()
	inner := NewRelativeFileSystem(NewNativeFileSystem(), filepath.ToSlash(dir))
	return NewCompressionLayer(inner), dir
}

func TestCompressionLayerReadCompressed(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)

	content := []byte("a payload large enough to be worth compressing, repeated: " +
		"0123456789 0123456789 0123456789 0123456789")
	writeHostFile(t, dir, "asset.bin.zst", testutil.ZstdCompress(t, content))

	blob := layer.ReadFile("asset.bin")
	require.NotNil(t, blob)
	assert.Equal(t, content, blob.Bytes())
}

func TestCompressionLayerVerbatimFallback(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	writeHostFile(t, dir, "plain.txt", []byte("stored raw"))

	blob := layer.ReadFile("plain.txt")
	require.NotNil(t, blob)
	assert.Equal(t, []byte("stored raw"), blob.Bytes())
}

func TestCompressionLayerCompressedWins(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	writeHostFile(t, dir, "both.txt", []byte("raw form"))
	writeHostFile(t, dir, "both.txt.zst", testutil.ZstdCompress(t, []byte("compressed form")))

	blob := layer.ReadFile("both.txt")
	require.NotNil(t, blob)
	assert.Equal(t, []byte("compressed form"), blob.Bytes())
}

func TestCompressionLayerCorruptFrame(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	writeHostFile(t, dir, "bad.bin.zst", []byte("not a zstd frame at all"))

	// a corrupt frame is a hard failure, not a fallthrough to raw bytes
	assert.Nil(t, layer.ReadFile("bad.bin"))
}

func TestCompressionLayerEmptyCompressedForm(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	writeHostFile(t, dir, "zero.bin.zst", nil)

	blob := layer.ReadFile("zero.bin")
	require.NotNil(t, blob)
	assert.Equal(t, 0, blob.Size())
}

func TestCompressionLayerWrite(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	content := []byte(`{"settings":{"quality":"ultra","shadows":true,"padding":"xxxxxxxxxxxxxxxxxxxxxxxx"}}`)

	t.Run("suffixed writes are compressed", func(t *testing.T) {
		require.True(t, layer.WriteFile("config.json.zst", content))

		physical, err := os.ReadFile(filepath.Join(dir, "config.json.zst"))
		require.NoError(t, err)
		assert.NotEqual(t, content, physical)

		dec, err := zstd.NewReader(nil)
		require.NoError(t, err)
		defer dec.Close()
		decoded, err := dec.DecodeAll(physical, nil)
		require.NoError(t, err)
		assert.Equal(t, content, decoded)

		// the logical name reads back transparently
		blob := layer.ReadFile("config.json")
		require.NotNil(t, blob)
		assert.Equal(t, content, blob.Bytes())
	})

	t.Run("other writes pass through", func(t *testing.T) {
		require.True(t, layer.WriteFile("notes.txt", content))

		physical, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, content, physical)
	})

	t.Run("empty suffixed writes pass through", func(t *testing.T) {
		require.True(t, layer.WriteFile("empty.bin.zst", nil))

		physical, err := os.ReadFile(filepath.Join(dir, "empty.bin.zst"))
		require.NoError(t, err)
		assert.Empty(t, physical)
	})
}

func TestCompressionLayerLevel(t *testing.T) {
	t.Parallel()

	layer, _ := newCompressionFixture(t)
	assert.Equal(t, DefaultCompressionLevel, layer.CompressionLevel())

	layer.SetCompressionLevel(19)
	assert.Equal(t, 19, layer.CompressionLevel())

	custom := NewCompressionLayer(NewNativeFileSystem(), WithCompressionLevel(1))
	assert.Equal(t, 1, custom.CompressionLevel())
}

func TestCompressionLayerEnumerate(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	writeHostFile(t, dir, "a.json", []byte("raw"))
	writeHostFile(t, dir, "b.json.zst", testutil.ZstdCompress(t, []byte("packed")))
	writeHostFile(t, dir, "c.json", []byte("raw"))
	writeHostFile(t, dir, "c.json.zst", testutil.ZstdCompress(t, []byte("packed")))
	writeHostFile(t, dir, "d.txt", []byte("other type"))

	t.Run("logical names, deduplicated", func(t *testing.T) {
		var names []string
		result := layer.EnumerateFiles("", []string{".json"}, EnumerateToSlice(&names), false)
		assert.Equal(t, 3, result)
		sort.Strings(names)
		assert.Equal(t, []string{"a.json", "b.json", "c.json"}, names)
	})

	t.Run("duplicates reported when allowed", func(t *testing.T) {
		var names []string
		result := layer.EnumerateFiles("", []string{".json"}, EnumerateToSlice(&names), true)
		assert.Equal(t, 4, result)
		sort.Strings(names)
		assert.Equal(t, []string{"a.json", "b.json", "c.json", "c.json"}, names)
	})
}

func TestCompressionLayerExistsIsPhysical(t *testing.T) {
	t.Parallel()

	layer, dir := newCompressionFixture(t)
	writeHostFile(t, dir, "only.bin.zst", testutil.ZstdCompress(t, []byte("x")))

	// FileExists mirrors the inner namespace; ReadFile resolves the
	// logical name
	assert.False(t, layer.FileExists("only.bin"))
	assert.True(t, layer.FileExists("only.bin.zst"))
	assert.NotNil(t, layer.ReadFile("only.bin"))
}

func TestCompressionLayerNilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewCompressionLayer(nil)
	})
}
