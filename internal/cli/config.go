package cli

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/driftglass/vfs"
)

// Manifest is the YAML description of a virtual file system: an ordered
// list of mounts plus an optional read cache over the whole tree.
type Manifest struct {
	Cache  *CacheConfig  `yaml:"cache,omitempty"`
	Mounts []MountConfig `yaml:"mounts"`
}

// CacheConfig bounds the optional read-through cache.
type CacheConfig struct {
	MaxBytes int64 `yaml:"maxBytes"`
}

// MountConfig binds one provider to a mount path. Exactly one of the
// provider fields must be set.
type MountConfig struct {
	Path string `yaml:"path"`

	Native string       `yaml:"native,omitempty"`
	Tar    string       `yaml:"tar,omitempty"`
	Zip    string       `yaml:"zip,omitempty"`
	Cpio   string       `yaml:"cpio,omitempty"`
	Media  *MediaConfig `yaml:"media,omitempty"`

	// Compressed wraps the provider so transparently stored .zst
	// variants resolve under their logical names. Media mounts carry
	// their own compression and ignore this.
	Compressed bool `yaml:"compressed,omitempty"`
}

// MediaConfig configures a media mount: a host directory whose root-level
// packages are layered beneath the directory tree.
type MediaConfig struct {
	Root string `yaml:"root"`
}

// LoadManifest reads and validates a mount manifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Mounts) == 0 {
		return fmt.Errorf("no mounts defined")
	}

	for i, mount := range m.Mounts {
		if mount.Path == "" {
			return fmt.Errorf("mount %d: missing path", i)
		}

		providers := 0
		for _, set := range []bool{
			mount.Native != "",
			mount.Tar != "",
			mount.Zip != "",
			mount.Cpio != "",
			mount.Media != nil,
		} {
			if set {
				providers++
			}
		}
		if providers != 1 {
			return fmt.Errorf("mount %q: exactly one provider required, got %d", mount.Path, providers)
		}
		if mount.Media != nil && mount.Media.Root == "" {
			return fmt.Errorf("mount %q: media mount requires a root", mount.Path)
		}
	}
	return nil
}

// Workspace is an assembled virtual file system plus the media providers
// it contains, kept separately for scene discovery.
type Workspace struct {
	FS    vfs.FileSystem
	Media []*vfs.MediaFileSystem
}

// BuildWorkspace assembles the file system a manifest describes. Archive
// providers that fail to open fail the build; the root file system itself
// rejects conflicting mount paths.
func BuildWorkspace(m *Manifest, logger *slog.Logger) (*Workspace, error) {
	opts := []vfs.Option{vfs.WithLogger(logger)}

	root := vfs.NewRootFileSystem(opts...)
	ws := &Workspace{}

	for _, mount := range m.Mounts {
		provider, err := buildProvider(mount, ws, opts)
		if err != nil {
			return nil, fmt.Errorf("mount %q: %w", mount.Path, err)
		}
		if mount.Compressed && mount.Media == nil {
			provider = vfs.NewCompressionLayer(provider, opts...)
		}
		root.Mount(mount.Path, provider)
	}

	ws.FS = root
	if m.Cache != nil {
		ws.FS = vfs.NewCacheLayer(root, append(opts, vfs.WithCacheSize(m.Cache.MaxBytes))...)
	}
	return ws, nil
}

func buildProvider(mount MountConfig, ws *Workspace, opts []vfs.Option) (vfs.FileSystem, error) {
	switch {
	case mount.Native != "":
		return vfs.NewRelativeFileSystem(vfs.NewNativeFileSystem(), mount.Native), nil

	case mount.Tar != "":
		tf, err := vfs.OpenTarFile(mount.Tar, opts...)
		if err != nil {
			return nil, err
		}
		return tf, nil

	case mount.Zip != "":
		zf, err := vfs.OpenZipFile(mount.Zip, opts...)
		if err != nil {
			return nil, err
		}
		return zf, nil

	case mount.Cpio != "":
		cf, err := vfs.OpenCpioFile(mount.Cpio, opts...)
		if err != nil {
			return nil, err
		}
		return cf, nil

	case mount.Media != nil:
		media := vfs.NewMediaFileSystem(vfs.NewNativeFileSystem(), mount.Media.Root, opts...)
		ws.Media = append(ws.Media, media)
		return media, nil
	}

	// validate guarantees one provider is set
	return nil, fmt.Errorf("no provider configured")
}
