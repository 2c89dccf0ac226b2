package vfs

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/driftglass/vfs/internal/pathutil"
)

const tarBlockSize = 512

// ustar header field offsets within a 512-byte block.
const (
	tarName      = 0
	tarNameLen   = 100
	tarSize      = 124
	tarSizeLen   = 12
	tarTypeflag  = 156
	tarPrefix    = 345
	tarPrefixLen = 155
)

type archiveEntry struct {
	offset int64
	size   int64
}

// TarFile is a read-only provider serving the contents of a ustar archive.
//
// The archive is scanned once at open time into an in-memory index of
// {offset, size} records; the container is never parsed again. Reads of
// different files are serialized through a mutex on the shared handle;
// CPU-bound decompression by an outer CompressionLayer still runs on the
// caller's goroutine after the read returns.
type TarFile struct {
	archivePath string
	logger      *slog.Logger

	mu   sync.Mutex
	file *os.File

	files map[string]archiveEntry
	dirs  map[string]struct{}
}

// Interface compliance.
var _ FileSystem = (*TarFile)(nil)

// OpenTarFile opens a tar archive and builds its directory index.
//
// A missing, truncated, or malformed archive does not fail the caller: the
// returned provider is permanently empty (IsOpen reports false, reads
// report absence) and the error describes why. The provider is never nil.
func OpenTarFile(archivePath string, opts ...Option) (*TarFile, error) {
	o := applyOptions(opts)
	t := &TarFile{
		archivePath: archivePath,
		logger:      o.logger,
		files:       make(map[string]archiveEntry),
		dirs:        make(map[string]struct{}),
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return t, fmt.Errorf("vfs: open tar archive: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return t, fmt.Errorf("vfs: stat tar archive: %w", err)
	}

	if err := t.scan(f, info.Size()); err != nil {
		f.Close()
		t.files = make(map[string]archiveEntry)
		t.dirs = make(map[string]struct{})
		return t, err
	}

	t.file = f
	return t, nil
}

func (t *TarFile) scan(f *os.File, archiveSize int64) error {
	var block [tarBlockSize]byte
	pos := int64(0)

	for pos+tarBlockSize <= archiveSize {
		if _, err := f.ReadAt(block[:], pos); err != nil {
			return fmt.Errorf("vfs: read tar header at %d: %w", pos, err)
		}
		pos += tarBlockSize

		size := parseOctal(block[tarSize : tarSize+tarSizeLen])
		typeflag := block[tarTypeflag]
		name := combineTarName(block[:])

		dataStart := pos

		// advance over the payload regardless of entry type so pax and
		// long-name records don't desync the scan
		if size > 0 {
			pos += (size + tarBlockSize - 1) &^ (tarBlockSize - 1)
		}

		// index regular files only
		if typeflag != '0' && typeflag != 0 {
			continue
		}
		if name == "" || size == 0 {
			continue
		}

		if dataStart+size > archiveSize {
			t.logger.Warn("malformed tar archive: file size exceeds the archive range",
				"archive", t.archivePath, "file", name, "size", size)
			return fmt.Errorf("vfs: malformed tar archive %q: entry %q exceeds archive range", t.archivePath, name)
		}

		normalized := pathutil.Normalize(name)
		t.files[normalized] = archiveEntry{offset: dataStart, size: size}
		for _, dir := range pathutil.Parents(normalized) {
			t.dirs[dir] = struct{}{}
		}
	}

	return nil
}

func combineTarName(block []byte) string {
	name := cString(block[tarName : tarName+tarNameLen])
	prefix := cString(block[tarPrefix : tarPrefix+tarPrefixLen])
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func parseOctal(b []byte) int64 {
	var n int64
	for _, c := range b {
		if c < '0' || c > '7' {
			break
		}
		n = n<<3 | int64(c-'0')
	}
	return n
}

// IsOpen reports whether construction succeeded.
func (t *TarFile) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file != nil
}

// Close releases the archive handle. The index is discarded; subsequent
// operations report absence.
func (t *TarFile) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	t.files = make(map[string]archiveEntry)
	t.dirs = make(map[string]struct{})
	return err
}

func (t *TarFile) FolderExists(name string) bool {
	_, ok := t.dirs[pathutil.Normalize(name)]
	return ok
}

func (t *TarFile) FileExists(name string) bool {
	_, ok := t.files[pathutil.Normalize(name)]
	return ok
}

func (t *TarFile) ReadFile(name string) Blob {
	normalized := pathutil.Normalize(name)
	if normalized == "" {
		return nil
	}

	entry, ok := t.files[normalized]
	if !ok {
		return nil
	}

	// serialize access to the shared handle
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}

	data := make([]byte, entry.size)
	if _, err := t.file.ReadAt(data, entry.offset); err != nil {
		t.logger.Warn("error reading file from tar archive",
			"archive", t.archivePath, "file", normalized, "size", entry.size, "error", err)
		return nil
	}

	return NewBlob(data)
}

// WriteFile always fails: tar archives are mounted read-only.
func (t *TarFile) WriteFile(string, []byte) bool {
	return false
}

func (t *TarFile) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateIndexFiles(t.files, path, extensions, cb)
}

func (t *TarFile) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateIndexDirs(t.dirs, path, cb)
}

// enumerateIndexFiles scans an archive index for entries directly under
// dir matching the extension set, reporting base names.
func enumerateIndexFiles[V any](files map[string]V, dir string, extensions []string, cb EnumerateFunc) int {
	re, err := compileSearchPattern(dir, extensions, false)
	if err != nil {
		return StatusFailed
	}

	count := 0
	for name := range files {
		if re.MatchString(name) {
			cb(pathutil.Base(name))
			count++
		}
	}
	return count
}

// enumerateIndexDirs reports the base names of directories whose parent
// is exactly dir.
func enumerateIndexDirs(dirs map[string]struct{}, dir string, cb EnumerateFunc) int {
	normalized := pathutil.Normalize(dir)

	count := 0
	for name := range dirs {
		if pathutil.Parent(name) == normalized {
			cb(pathutil.Base(name))
			count++
		}
	}
	return count
}
