package vfs

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/driftglass/vfs/internal/pathutil"
)

// ZipFile is a read-only provider serving the contents of a zip archive.
//
// The central directory is parsed once at open time into an in-memory
// index. Member decompression runs on the reading goroutine while a mutex
// serializes access to the shared archive handle.
type ZipFile struct {
	archivePath string
	logger      *slog.Logger

	mu     sync.Mutex
	reader *zip.ReadCloser

	files map[string]*zip.File
	dirs  map[string]struct{}
}

// Interface compliance.
var _ FileSystem = (*ZipFile)(nil)

// OpenZipFile opens a zip archive and builds its directory index.
//
// A missing or corrupt archive does not fail the caller: the returned
// provider is permanently empty (IsOpen reports false, reads report
// absence) and the error describes why. The provider is never nil.
func OpenZipFile(archivePath string, opts ...Option) (*ZipFile, error) {
	o := applyOptions(opts)
	z := &ZipFile{
		archivePath: archivePath,
		logger:      o.logger,
		files:       make(map[string]*zip.File),
		dirs:        make(map[string]struct{}),
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return z, fmt.Errorf("vfs: open zip archive: %w", err)
	}

	for _, f := range r.File {
		name := pathutil.Normalize(f.Name)
		if name == "" {
			continue
		}
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			z.dirs[name] = struct{}{}
			continue
		}
		z.files[name] = f
		for _, dir := range pathutil.Parents(name) {
			z.dirs[dir] = struct{}{}
		}
	}

	z.reader = r
	return z, nil
}

// IsOpen reports whether construction succeeded.
func (z *ZipFile) IsOpen() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.reader != nil
}

// Close releases the archive handle. The index is discarded; subsequent
// operations report absence.
func (z *ZipFile) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.reader == nil {
		return nil
	}
	err := z.reader.Close()
	z.reader = nil
	z.files = make(map[string]*zip.File)
	z.dirs = make(map[string]struct{})
	return err
}

func (z *ZipFile) FolderExists(name string) bool {
	_, ok := z.dirs[pathutil.Normalize(name)]
	return ok
}

func (z *ZipFile) FileExists(name string) bool {
	if !z.IsOpen() {
		return false
	}
	_, ok := z.files[pathutil.Normalize(name)]
	return ok
}

func (z *ZipFile) ReadFile(name string) Blob {
	normalized := pathutil.Normalize(name)
	if normalized == "" {
		return nil
	}

	entry, ok := z.files[normalized]
	if !ok {
		return nil
	}

	// working with the shared archive handle from here on
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.reader == nil {
		return nil
	}
	if entry.UncompressedSize64 == 0 {
		return nil
	}

	rc, err := entry.Open()
	if err != nil {
		z.logger.Warn("cannot open file in zip archive",
			"archive", z.archivePath, "file", normalized, "error", err)
		return nil
	}
	defer rc.Close()

	data := make([]byte, entry.UncompressedSize64)
	if _, err := io.ReadFull(rc, data); err != nil {
		z.logger.Warn("cannot extract file from zip archive",
			"archive", z.archivePath, "file", normalized, "error", err)
		return nil
	}

	return NewBlob(data)
}

// WriteFile always fails: zip archives are mounted read-only.
func (z *ZipFile) WriteFile(string, []byte) bool {
	return false
}

func (z *ZipFile) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateIndexFiles(z.files, path, extensions, cb)
}

func (z *ZipFile) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateIndexDirs(z.dirs, path, cb)
}
