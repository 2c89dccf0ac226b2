// Package vfs provides a composable virtual file system for asset loading.
//
// Providers implement the [FileSystem] contract and compose freely:
//   - [NativeFileSystem] passes through to the host file system.
//   - [TarFile], [ZipFile], [CpioFile], and [WinResFileSystem] present
//     read-only namespaces parsed out of container formats at open time.
//   - [CompressionLayer] adds transparent zstd compression keyed by a
//     filename suffix.
//   - [RootFileSystem] mounts providers under virtual path prefixes.
//   - [MediaFileSystem] layers a directory tree over auto-discovered
//     archives with deterministic override ordering.
//   - [CacheLayer] adds a size-bounded read-through blob cache.
//
// Absence is a normal outcome throughout: a missing file reads as a nil
// [Blob] and exists-checks return false. Providers never panic or return
// faults for missing files, unsupported writes, or malformed containers;
// a corrupt archive behaves exactly like an empty one.
//
// All operations on a single provider instance are safe for concurrent use.
package vfs
