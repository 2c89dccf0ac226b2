package vfs

import (
	"log/slog"
	"strings"

	"github.com/driftglass/vfs/internal/pathutil"
)

// RootFileSystem presents one unified namespace by mounting providers
// under virtual path prefixes. It has no mounts by default.
//
// Resolution walks the mount table in registration order and forwards the
// request, with the matched prefix stripped, to the first provider whose
// prefix covers the path on a whole-segment boundary. Paths matching no
// mount fail every operation without raising a fault.
//
// The mount table is expected to be built up front; Mount and Unmount are
// not safe to call concurrently with lookups.
type RootFileSystem struct {
	mounts []mountPoint
	logger *slog.Logger
}

type mountPoint struct {
	path string
	fs   FileSystem
}

// Interface compliance.
var _ FileSystem = (*RootFileSystem)(nil)

// NewRootFileSystem returns an empty composition layer.
func NewRootFileSystem(opts ...Option) *RootFileSystem {
	o := applyOptions(opts)
	return &RootFileSystem{logger: o.logger}
}

// Mount attaches fs under mountPath. A mount whose path is already covered
// by an existing mount is rejected and logged; the first registration wins.
// Mount panics if fs is nil.
func (r *RootFileSystem) Mount(mountPath string, fs FileSystem) {
	if fs == nil {
		panic("vfs: nil file system passed to Mount")
	}

	normalized := normalizeMount(mountPath)
	if _, _, ok := r.findMountPoint(normalized); ok {
		r.logger.Error("cannot mount: another file system includes this path",
			"path", normalized)
		return
	}

	r.mounts = append(r.mounts, mountPoint{path: normalized, fs: fs})
}

// MountNative attaches the subtree of the host file system rooted at
// nativePath under mountPath.
func (r *RootFileSystem) MountNative(mountPath, nativePath string) {
	r.Mount(mountPath, NewRelativeFileSystem(NewNativeFileSystem(), nativePath))
}

// Unmount removes the mount registered at mountPath and reports whether
// one was found.
func (r *RootFileSystem) Unmount(mountPath string) bool {
	normalized := normalizeMount(mountPath)
	for i, m := range r.mounts {
		if m.path == normalized {
			r.mounts = append(r.mounts[:i], r.mounts[i+1:]...)
			return true
		}
	}
	return false
}

func normalizeMount(p string) string {
	return "/" + pathutil.Normalize(p)
}

func (r *RootFileSystem) findMountPoint(name string) (string, FileSystem, bool) {
	normalized := normalizeMount(name)
	for _, m := range r.mounts {
		if !strings.HasPrefix(normalized, m.path) {
			continue
		}
		if len(normalized) == len(m.path) {
			return "", m.fs, true
		}
		if m.path == "/" {
			return normalized[1:], m.fs, true
		}
		if normalized[len(m.path)] == '/' {
			return normalized[len(m.path)+1:], m.fs, true
		}
	}
	return "", nil, false
}

func (r *RootFileSystem) FolderExists(name string) bool {
	if rel, fs, ok := r.findMountPoint(name); ok {
		return fs.FolderExists(rel)
	}
	return false
}

func (r *RootFileSystem) FileExists(name string) bool {
	if rel, fs, ok := r.findMountPoint(name); ok {
		return fs.FileExists(rel)
	}
	return false
}

func (r *RootFileSystem) ReadFile(name string) Blob {
	if rel, fs, ok := r.findMountPoint(name); ok {
		return fs.ReadFile(rel)
	}
	return nil
}

func (r *RootFileSystem) WriteFile(name string, data []byte) bool {
	if rel, fs, ok := r.findMountPoint(name); ok {
		return fs.WriteFile(rel, data)
	}
	return false
}

func (r *RootFileSystem) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	if rel, fs, ok := r.findMountPoint(path); ok {
		return fs.EnumerateFiles(rel, extensions, cb, allowDuplicates)
	}
	return StatusPathNotFound
}

func (r *RootFileSystem) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	if rel, fs, ok := r.findMountPoint(path); ok {
		return fs.EnumerateDirectories(rel, cb, allowDuplicates)
	}
	return StatusPathNotFound
}
