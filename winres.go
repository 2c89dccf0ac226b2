package vfs

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/driftglass/vfs/internal/peres"
	"github.com/driftglass/vfs/internal/pathutil"
)

// WinResFileSystem is a read-only provider serving named resources of one
// type out of a PE binary's resource section. The resource type defaults
// to "BINARY" and is configurable with WithResourceType.
//
// Resource names form a flat namespace: there are no directories, so
// FolderExists is always false and EnumerateDirectories reports
// StatusNotImplemented. Name matching is case-insensitive, matching how
// the OS loader stores resource names.
type WinResFileSystem struct {
	binaryPath   string
	resourceType string
	logger       *slog.Logger

	res *peres.File // nil when not open
}

// Interface compliance.
var _ FileSystem = (*WinResFileSystem)(nil)

// OpenWinResFileSystem opens the PE binary at binaryPath. An empty path
// selects the running executable.
//
// A binary that is missing, malformed, or has no resource section does not
// fail the caller: the returned provider is permanently empty (IsOpen
// reports false) and the error describes why. The provider is never nil.
func OpenWinResFileSystem(binaryPath string, opts ...Option) (*WinResFileSystem, error) {
	o := applyOptions(opts)
	w := &WinResFileSystem{
		binaryPath:   binaryPath,
		resourceType: o.resourceType,
		logger:       o.logger,
	}

	if w.binaryPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return w, fmt.Errorf("vfs: locate running executable: %w", err)
		}
		w.binaryPath = exe
	}

	res, err := peres.Open(w.binaryPath, w.resourceType)
	if err != nil {
		return w, fmt.Errorf("vfs: open resource section: %w", err)
	}

	w.res = res
	return w, nil
}

// IsOpen reports whether construction succeeded.
func (w *WinResFileSystem) IsOpen() bool {
	return w.res != nil
}

// ResourceType returns the resource type this provider serves.
func (w *WinResFileSystem) ResourceType() string {
	return w.resourceType
}

// FolderExists is always false: resource names form a flat namespace.
func (w *WinResFileSystem) FolderExists(string) bool {
	return false
}

func (w *WinResFileSystem) FileExists(name string) bool {
	if w.res == nil {
		return false
	}
	_, ok := w.res.Lookup(pathutil.Normalize(name))
	return ok
}

func (w *WinResFileSystem) ReadFile(name string) Blob {
	if w.res == nil {
		return nil
	}
	data, ok := w.res.Lookup(pathutil.Normalize(name))
	if !ok {
		return nil
	}
	// resource bytes alias the parsed section and are never modified
	return NewBlob(data)
}

// WriteFile always fails: resource sections are read-only.
func (w *WinResFileSystem) WriteFile(string, []byte) bool {
	return false
}

func (w *WinResFileSystem) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	if w.res == nil {
		return 0
	}

	re, err := compileSearchPattern(path, extensions, true)
	if err != nil {
		return StatusFailed
	}

	count := 0
	for _, name := range w.res.Names() {
		if re.MatchString(name) {
			cb(name)
			count++
		}
	}
	return count
}

// EnumerateDirectories is not supported for resource sections.
func (w *WinResFileSystem) EnumerateDirectories(string, EnumerateFunc, bool) int {
	return StatusNotImplemented
}
