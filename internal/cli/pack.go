package cli

import (
	"archive/tar"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/driftglass/vfs"
)

var packCmd = &cobra.Command{
	Use:   "pack <dir> <out.tar>",
	Short: "Pack a host directory into a tar package",
	Long: `Pack walks a host directory and writes its files into a ustar archive
suitable for mounting as a media package.

Files matching --compress-ext are stored zstd-compressed under their
name plus the ` + vfs.CompressedFileSuffix + ` suffix; the compression layer resolves them
back to their logical names at read time.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcDir, outPath := args[0], args[1]

		level, _ := cmd.Flags().GetInt("level")
		compressExts, _ := cmd.Flags().GetStringSlice("compress-ext")

		out, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer out.Close()

		sink := &tarWriterFS{tw: tar.NewWriter(out)}
		layer := vfs.NewCompressionLayer(sink,
			vfs.WithLogger(newLogger(cmd)),
			vfs.WithCompressionLevel(level))

		count := 0
		err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(srcDir, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)
			if slices.Contains(compressExts, filepath.Ext(name)) {
				name += vfs.CompressedFileSuffix
			}

			if !layer.WriteFile(name, data) {
				return fmt.Errorf("%s: write failed", name)
			}
			count++
			return nil
		})
		if err != nil {
			return err
		}
		if sink.err != nil {
			return sink.err
		}
		if err := sink.tw.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "packed %d files into %s\n", count, outPath)
		return nil
	},
}

// tarWriterFS is a write-only provider that appends each written file as a
// ustar entry. It exists so the compression layer's write path can feed the
// archive directly.
type tarWriterFS struct {
	tw  *tar.Writer
	err error
}

// Interface compliance.
var _ vfs.FileSystem = (*tarWriterFS)(nil)

func (s *tarWriterFS) WriteFile(name string, data []byte) bool {
	if s.err != nil {
		return false
	}

	hdr := &tar.Header{
		Name:   name,
		Mode:   0o644,
		Size:   int64(len(data)),
		Format: tar.FormatUSTAR,
	}
	if s.err = s.tw.WriteHeader(hdr); s.err != nil {
		return false
	}
	if _, s.err = s.tw.Write(data); s.err != nil {
		return false
	}
	return true
}

func (s *tarWriterFS) FolderExists(string) bool { return false }
func (s *tarWriterFS) FileExists(string) bool   { return false }
func (s *tarWriterFS) ReadFile(string) vfs.Blob { return nil }

func (s *tarWriterFS) EnumerateFiles(string, []string, vfs.EnumerateFunc, bool) int {
	return vfs.StatusNotImplemented
}

func (s *tarWriterFS) EnumerateDirectories(string, vfs.EnumerateFunc, bool) int {
	return vfs.StatusNotImplemented
}

func init() {
	packCmd.Flags().Int("level", vfs.DefaultCompressionLevel, "Zstd compression level (1-22)")
	packCmd.Flags().StringSlice("compress-ext", nil, "Extensions to store compressed, e.g. .json,.gltf")
	rootCmd.AddCommand(packCmd)
}
