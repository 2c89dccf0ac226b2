package vfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/cavaliergopher/cpio"

	"github.com/driftglass/vfs/internal/pathutil"
)

// CpioFile is a read-only provider serving the contents of an SVR4
// ("newc") cpio archive, the format used for initramfs-style asset packs.
//
// The stream is scanned once at open time into an {offset, size} index;
// reads are served with positional reads on the shared handle, serialized
// through a mutex like TarFile.
type CpioFile struct {
	archivePath string
	logger      *slog.Logger

	mu   sync.Mutex
	file *os.File

	files map[string]archiveEntry
	dirs  map[string]struct{}
}

// Interface compliance.
var _ FileSystem = (*CpioFile)(nil)

// OpenCpioFile opens a cpio archive and builds its directory index.
//
// A missing or malformed archive does not fail the caller: the returned
// provider is permanently empty (IsOpen reports false, reads report
// absence) and the error describes why. The provider is never nil.
func OpenCpioFile(archivePath string, opts ...Option) (*CpioFile, error) {
	o := applyOptions(opts)
	c := &CpioFile{
		archivePath: archivePath,
		logger:      o.logger,
		files:       make(map[string]archiveEntry),
		dirs:        make(map[string]struct{}),
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return c, fmt.Errorf("vfs: open cpio archive: %w", err)
	}

	if err := c.scan(f); err != nil {
		f.Close()
		c.files = make(map[string]archiveEntry)
		c.dirs = make(map[string]struct{})
		return c, err
	}

	c.file = f
	return c, nil
}

func (c *CpioFile) scan(f *os.File) error {
	// the counting reader tracks the stream position so each header's data
	// offset is known without the cpio reader exposing it
	cr := &countingReader{r: f}
	rdr := cpio.NewReader(cr)

	for {
		hdr, err := rdr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			c.logger.Warn("malformed cpio archive",
				"archive", c.archivePath, "error", err)
			return fmt.Errorf("vfs: malformed cpio archive %q: %w", c.archivePath, err)
		}

		if !hdr.Mode.IsRegular() || hdr.Size == 0 {
			continue
		}

		name := pathutil.Normalize(hdr.Name)
		if name == "" {
			continue
		}

		c.files[name] = archiveEntry{offset: cr.n, size: hdr.Size}
		for _, dir := range pathutil.Parents(name) {
			c.dirs[dir] = struct{}{}
		}
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// IsOpen reports whether construction succeeded.
func (c *CpioFile) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file != nil
}

// Close releases the archive handle. The index is discarded; subsequent
// operations report absence.
func (c *CpioFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	c.files = make(map[string]archiveEntry)
	c.dirs = make(map[string]struct{})
	return err
}

func (c *CpioFile) FolderExists(name string) bool {
	_, ok := c.dirs[pathutil.Normalize(name)]
	return ok
}

func (c *CpioFile) FileExists(name string) bool {
	_, ok := c.files[pathutil.Normalize(name)]
	return ok
}

func (c *CpioFile) ReadFile(name string) Blob {
	normalized := pathutil.Normalize(name)
	if normalized == "" {
		return nil
	}

	entry, ok := c.files[normalized]
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file == nil {
		return nil
	}

	data := make([]byte, entry.size)
	if _, err := c.file.ReadAt(data, entry.offset); err != nil {
		c.logger.Warn("error reading file from cpio archive",
			"archive", c.archivePath, "file", normalized, "size", entry.size, "error", err)
		return nil
	}

	return NewBlob(data)
}

// WriteFile always fails: cpio archives are mounted read-only.
func (c *CpioFile) WriteFile(string, []byte) bool {
	return false
}

func (c *CpioFile) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateIndexFiles(c.files, path, extensions, cb)
}

func (c *CpioFile) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateIndexDirs(c.dirs, path, cb)
}
