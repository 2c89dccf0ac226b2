package vfs

import (
	"os"
	"path/filepath"
	"strings"
)

// NativeFileSystem maps virtual operations directly to the host file
// system. Paths are host paths; normalization defers to the OS.
type NativeFileSystem struct{}

// Interface compliance.
var _ FileSystem = (*NativeFileSystem)(nil)

// NewNativeFileSystem returns a provider backed by the host file system.
func NewNativeFileSystem() *NativeFileSystem {
	return &NativeFileSystem{}
}

func (n *NativeFileSystem) FolderExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}

func (n *NativeFileSystem) FileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

func (n *NativeFileSystem) ReadFile(name string) Blob {
	data, err := os.ReadFile(name)
	if err != nil {
		// file does not exist or is locked
		return nil
	}
	return NewBlob(data)
}

func (n *NativeFileSystem) WriteFile(name string, data []byte) bool {
	return os.WriteFile(name, data, 0o644) == nil
}

func (n *NativeFileSystem) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateNative(path, false, extensions, cb)
}

func (n *NativeFileSystem) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	_ = allowDuplicates
	return enumerateNative(path, true, nil, cb)
}

func enumerateNative(dir string, directories bool, extensions []string, cb EnumerateFunc) int {
	entries, err := os.ReadDir(filepath.FromSlash(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		return StatusFailed
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() != directories {
			continue
		}
		if !directories && !matchesExtension(entry.Name(), extensions) {
			continue
		}
		cb(entry.Name())
		count++
	}
	return count
}

func matchesExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
