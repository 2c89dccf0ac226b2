package vfs

import "log/slog"

// Enumeration status codes. Non-negative results are match counts.
const (
	StatusOK             = 0
	StatusFailed         = -1
	StatusPathNotFound   = -2
	StatusNotImplemented = -3
)

// EnumerateFunc receives one matching name per call during enumeration.
// Names are relative to the enumerated path and carry no directory component.
type EnumerateFunc func(name string)

// EnumerateToSlice returns an EnumerateFunc that appends every name to dst.
func EnumerateToSlice(dst *[]string) EnumerateFunc {
	return func(name string) {
		*dst = append(*dst, name)
	}
}

// FileSystem is the contract all providers implement.
//
// Paths are slash-separated and interpreted relative to the mount root of
// the instance handling them. Normalization is provider-specific: archive
// readers normalize to relative POSIX-style paths, the native provider
// defers to the host.
type FileSystem interface {
	// FolderExists reports whether name denotes a known directory.
	FolderExists(name string) bool

	// FileExists reports whether name denotes a known file.
	FileExists(name string) bool

	// ReadFile reads the entire file. A nil Blob means the file cannot be
	// read; absence is not an error.
	ReadFile(name string) Blob

	// WriteFile writes the entire file. It returns false for read-only
	// providers and on I/O failure.
	WriteFile(name string, data []byte) bool

	// EnumerateFiles invokes cb once per file directly under path whose
	// extension is in extensions (empty set matches all). It returns the
	// number of matches, or a negative status code. When allowDuplicates
	// is false, composing layers report each logical name once.
	EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int

	// EnumerateDirectories invokes cb once per directory directly under
	// path. It returns the number of matches, or a negative status code.
	EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int
}

// Defaults for provider options.
const (
	// DefaultResourceType is the PE resource type served by WinResFileSystem.
	DefaultResourceType = "BINARY"

	// DefaultCompressionLevel is the zstd level used by CompressionLayer.
	DefaultCompressionLevel = 5

	// DefaultCacheSize bounds CacheLayer memory use in bytes.
	DefaultCacheSize = 256 << 20
)

type options struct {
	logger       *slog.Logger
	resourceType string
	level        int
	cacheBytes   int64
}

// Option configures a provider. Options that do not apply to the provider
// being constructed are ignored.
type Option func(*options)

// WithLogger sets the diagnostic sink used for internal warnings.
// Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResourceType sets the PE resource type served by WinResFileSystem.
func WithResourceType(resourceType string) Option {
	return func(o *options) {
		if resourceType != "" {
			o.resourceType = resourceType
		}
	}
}

// WithCompressionLevel sets the initial zstd level for CompressionLayer.
func WithCompressionLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithCacheSize bounds the total bytes retained by CacheLayer.
func WithCacheSize(maxBytes int64) Option {
	return func(o *options) {
		if maxBytes > 0 {
			o.cacheBytes = maxBytes
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:       slog.Default(),
		resourceType: DefaultResourceType,
		level:        DefaultCompressionLevel,
		cacheBytes:   DefaultCacheSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	return o
}
