package vfs

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// CompressedFileSuffix marks the physically compressed form of a logical
// file name: logical "shader.bin" is stored as "shader.bin.zst".
const CompressedFileSuffix = ".zst"

// CompressionLayer decorates another provider with transparent zstd
// compression keyed purely by the reserved filename suffix. File contents
// are never sniffed.
//
// Consumers address files by their logical, suffix-free name throughout;
// the layer resolves whichever physical form exists. It adds no locking of
// its own and is safe for concurrent use exactly when the inner provider is.
type CompressionLayer struct {
	fs     FileSystem
	logger *slog.Logger

	decoder *zstd.Decoder

	mu      sync.Mutex
	level   int
	encoder *zstd.Encoder
}

// Interface compliance.
var _ FileSystem = (*CompressionLayer)(nil)

// NewCompressionLayer decorates fs with transparent compression.
// It panics if fs is nil.
func NewCompressionLayer(fs FileSystem, opts ...Option) *CompressionLayer {
	if fs == nil {
		panic("vfs: nil file system passed to NewCompressionLayer")
	}

	o := applyOptions(opts)
	c := &CompressionLayer{
		fs:     fs,
		logger: o.logger,
		level:  o.level,
	}

	// DecodeAll and EncodeAll are safe for concurrent use on shared
	// decoder/encoder instances.
	c.decoder, _ = zstd.NewReader(nil)
	c.encoder = newEncoder(o.level)

	return c
}

func newEncoder(level int) *zstd.Encoder {
	enc, _ := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	return enc
}

// CompressionLevel returns the level applied to subsequent writes.
func (c *CompressionLayer) CompressionLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// SetCompressionLevel changes the level applied to subsequent writes.
// In-flight and past writes are unaffected.
func (c *CompressionLayer) SetCompressionLevel(level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level == c.level {
		return
	}
	c.level = level
	c.encoder = newEncoder(level)
}

func (c *CompressionLayer) FolderExists(name string) bool {
	return c.fs.FolderExists(name)
}

// FileExists reports only the exact physical name; a file stored solely in
// compressed form is visible through ReadFile and enumeration.
func (c *CompressionLayer) FileExists(name string) bool {
	return c.fs.FileExists(name)
}

// ReadFile tries the compressed form first and falls back to the verbatim
// name. A structurally corrupt compressed frame is a hard failure reported
// as absence, never silently degraded to raw bytes.
func (c *CompressionLayer) ReadFile(name string) Blob {
	compressed := c.fs.ReadFile(name + CompressedFileSuffix)
	if compressed == nil {
		return c.fs.ReadFile(name)
	}
	if compressed.Size() == 0 {
		return compressed
	}

	// the frame header carries the decompressed size, so DecodeAll can
	// allocate the output buffer up front
	data, err := c.decoder.DecodeAll(compressed.Bytes(), nil)
	if err != nil {
		c.logger.Warn("failed to decompress zstd frame",
			"file", name, "error", err)
		return nil
	}

	return NewBlob(data)
}

// WriteFile compresses data when name carries the suffix and passes every
// other name through unchanged. The compressed bytes are stored under the
// literal, suffixed name.
func (c *CompressionLayer) WriteFile(name string, data []byte) bool {
	if !strings.HasSuffix(name, CompressedFileSuffix) {
		return c.fs.WriteFile(name, data)
	}
	if len(data) == 0 {
		return c.fs.WriteFile(name, data)
	}

	c.mu.Lock()
	enc := c.encoder
	c.mu.Unlock()

	return c.fs.WriteFile(name, enc.EncodeAll(data, nil))
}

// EnumerateFiles reports logical names: the suffix is stripped from
// compressed entries, and when allowDuplicates is false a file present in
// both physical forms is reported once.
func (c *CompressionLayer) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	patched := extensions
	if len(extensions) > 0 {
		patched = make([]string, 0, len(extensions)*2)
		patched = append(patched, extensions...)
		for _, ext := range extensions {
			patched = append(patched, ext+CompressedFileSuffix)
		}
	}

	var seen map[string]struct{}
	if !allowDuplicates {
		seen = make(map[string]struct{})
	}

	raw := c.fs.EnumerateFiles(path, patched, func(name string) {
		name = strings.TrimSuffix(name, CompressedFileSuffix)
		if allowDuplicates {
			cb(name)
			return
		}
		seen[name] = struct{}{}
	}, true)

	if raw < 0 {
		return raw
	}
	if allowDuplicates {
		return raw
	}

	for name := range seen {
		cb(name)
	}
	return len(seen)
}

func (c *CompressionLayer) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	return c.fs.EnumerateDirectories(path, cb, allowDuplicates)
}
