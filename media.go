package vfs

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/driftglass/vfs/internal/pathutil"
)

// PackExtensions are the archive formats MediaFileSystem recognizes at the
// media root.
var PackExtensions = []string{".tar", ".zip", ".pkz", ".cpio"}

// SceneExtensions are the file types reported by AvailableScenes.
var SceneExtensions = []string{".scene.json", ".gltf", ".glb"}

// MediaFileSystem implements the file access policy for layered asset
// packages:
//
//   - all assets live under a single media root in the parent provider;
//   - at construction, package files found directly at the media root are
//     opened with the matching archive reader;
//   - paths resolve first against the parent's directory tree, then
//     against the packages in descending lexical order of filename, so
//     pack2.tar overrides pack1.tar without a manifest.
//
// A MediaFileSystem can itself be mounted under a RootFileSystem.
type MediaFileSystem struct {
	layers []FileSystem
	logger *slog.Logger
}

// Interface compliance.
var _ FileSystem = (*MediaFileSystem)(nil)

// NewMediaFileSystem builds the resolution stack for the media tree rooted
// at mediaRoot under parent. Packages are only discovered when parent is a
// NativeFileSystem; packages that fail to open are skipped and logged.
// It panics if parent is nil.
func NewMediaFileSystem(parent FileSystem, mediaRoot string, opts ...Option) *MediaFileSystem {
	if parent == nil {
		panic("vfs: nil parent passed to NewMediaFileSystem")
	}

	o := applyOptions(opts)
	m := &MediaFileSystem{logger: o.logger}

	// the media directory tree is always searched first
	mediafs := NewRelativeFileSystem(parent, mediaRoot)
	m.layers = append(m.layers, NewCompressionLayer(mediafs, opts...))

	if _, ok := parent.(*NativeFileSystem); !ok {
		return m
	}

	var packs []string
	if mediafs.EnumerateFiles("", PackExtensions, EnumerateToSlice(&packs), false) <= 0 {
		return m
	}

	// search from the highest revision of a pack down: pack2.tar wins
	// over pack1.tar
	sort.Sort(sort.Reverse(sort.StringSlice(packs)))

	for _, fileName := range packs {
		packPath := pathutil.Join(mediaRoot, fileName)

		var (
			layer FileSystem
			err   error
		)
		switch {
		case strings.HasSuffix(fileName, ".tar"):
			var tf *TarFile
			tf, err = OpenTarFile(packPath, opts...)
			if tf.IsOpen() {
				layer = NewCompressionLayer(tf, opts...)
			}
		case strings.HasSuffix(fileName, ".cpio"):
			var cf *CpioFile
			cf, err = OpenCpioFile(packPath, opts...)
			if cf.IsOpen() {
				layer = NewCompressionLayer(cf, opts...)
			}
		case strings.HasSuffix(fileName, ".zip"), strings.HasSuffix(fileName, ".pkz"):
			// zip members carry their own compression
			var zf *ZipFile
			zf, err = OpenZipFile(packPath, opts...)
			if zf.IsOpen() {
				layer = zf
			}
		}

		if layer == nil {
			m.logger.Warn("failed to mount package, skipping",
				"path", packPath, "error", err)
			continue
		}
		m.layers = append(m.layers, layer)
	}

	return m
}

// AvailableScenes returns the sorted, deduplicated paths of every scene
// file reachable through the unified namespace.
func (m *MediaFileSystem) AvailableScenes() []string {
	set := make(map[string]struct{})
	for _, layer := range m.layers {
		for _, scene := range FindScenes(layer, "/") {
			set[scene] = struct{}{}
		}
	}

	result := make([]string, 0, len(set))
	for scene := range set {
		result = append(result, scene)
	}
	sort.Strings(result)
	return result
}

func (m *MediaFileSystem) FolderExists(name string) bool {
	for _, layer := range m.layers {
		if layer.FolderExists(name) {
			return true
		}
	}
	return false
}

func (m *MediaFileSystem) FileExists(name string) bool {
	for _, layer := range m.layers {
		if layer.FileExists(name) {
			return true
		}
	}
	return false
}

func (m *MediaFileSystem) ReadFile(name string) Blob {
	for _, layer := range m.layers {
		if blob := layer.ReadFile(name); blob != nil {
			return blob
		}
	}
	return nil
}

func (m *MediaFileSystem) WriteFile(name string, data []byte) bool {
	for _, layer := range m.layers {
		if layer.WriteFile(name, data) {
			return true
		}
	}
	return false
}

func (m *MediaFileSystem) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	return m.enumerate(cb, allowDuplicates, func(layer FileSystem, cb EnumerateFunc) int {
		return layer.EnumerateFiles(path, extensions, cb, true)
	})
}

func (m *MediaFileSystem) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	return m.enumerate(cb, allowDuplicates, func(layer FileSystem, cb EnumerateFunc) int {
		return layer.EnumerateDirectories(path, cb, true)
	})
}

// enumerate unions per-layer results, deduplicating by name in priority
// order unless duplicates are allowed.
func (m *MediaFileSystem) enumerate(cb EnumerateFunc, allowDuplicates bool, visit func(FileSystem, EnumerateFunc) int) int {
	if allowDuplicates {
		total := 0
		for _, layer := range m.layers {
			if result := visit(layer, cb); result >= 0 {
				total += result
			}
		}
		return total
	}

	seen := make(map[string]struct{})
	for _, layer := range m.layers {
		visit(layer, func(name string) {
			seen[name] = struct{}{}
		})
	}

	for name := range seen {
		cb(name)
	}
	return len(seen)
}

// FindScenes walks the namespace of fs breadth-first from root and returns
// the path of every scene file found.
func FindScenes(fs FileSystem, root string) []string {
	var scenes []string

	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		fs.EnumerateFiles(current, SceneExtensions, func(name string) {
			scenes = append(scenes, pathutil.Join(current, name))
		}, false)

		fs.EnumerateDirectories(current, func(name string) {
			queue = append(queue, pathutil.Join(current, name))
		}, false)
	}

	return scenes
}
