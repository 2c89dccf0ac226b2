package vfs

import (
	"github.com/driftglass/vfs/internal/pathutil"
)

// RelativeFileSystem presents a subtree of another provider as an entire
// file system: it prepends a base path to every name and delegates.
type RelativeFileSystem struct {
	fs       FileSystem
	basePath string
}

// Interface compliance.
var _ FileSystem = (*RelativeFileSystem)(nil)

// NewRelativeFileSystem wraps fs so every request resolves under basePath.
// It panics if fs is nil.
func NewRelativeFileSystem(fs FileSystem, basePath string) *RelativeFileSystem {
	if fs == nil {
		panic("vfs: nil file system passed to NewRelativeFileSystem")
	}
	return &RelativeFileSystem{fs: fs, basePath: basePath}
}

// BasePath returns the path prefix prepended to every request.
func (r *RelativeFileSystem) BasePath() string {
	return r.basePath
}

func (r *RelativeFileSystem) resolve(name string) string {
	return pathutil.Join(r.basePath, pathutil.Normalize(name))
}

func (r *RelativeFileSystem) FolderExists(name string) bool {
	return r.fs.FolderExists(r.resolve(name))
}

func (r *RelativeFileSystem) FileExists(name string) bool {
	return r.fs.FileExists(r.resolve(name))
}

func (r *RelativeFileSystem) ReadFile(name string) Blob {
	return r.fs.ReadFile(r.resolve(name))
}

func (r *RelativeFileSystem) WriteFile(name string, data []byte) bool {
	return r.fs.WriteFile(r.resolve(name), data)
}

func (r *RelativeFileSystem) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	return r.fs.EnumerateFiles(r.resolve(path), extensions, cb, allowDuplicates)
}

func (r *RelativeFileSystem) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	return r.fs.EnumerateDirectories(r.resolve(path), cb, allowDuplicates)
}
