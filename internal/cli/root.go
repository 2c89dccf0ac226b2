// Package cli implements the vfstool command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vfstool",
	Short: "Inspect and manipulate layered virtual file systems",
	Long: `vfstool assembles a virtual file system from a mount manifest and
runs queries against the unified namespace.

The manifest is a YAML file (default: mounts.yaml) listing mount points
and their providers: native directories, tar/zip/cpio archives, or media
trees with package discovery. See the ls, cat, digest, extract, scenes,
and pack subcommands.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("manifest", "m", "mounts.yaml", "Mount manifest file")
	rootCmd.PersistentFlags().String("media", "", "Serve a single media directory instead of a manifest")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// newLogger builds the logger shared by all subcommands, honoring the
// persistent verbose flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openManifest(cmd *cobra.Command) (*Workspace, error) {
	if mediaRoot, _ := cmd.Flags().GetString("media"); mediaRoot != "" {
		manifest := &Manifest{Mounts: []MountConfig{
			{Path: "/", Media: &MediaConfig{Root: mediaRoot}},
		}}
		return BuildWorkspace(manifest, newLogger(cmd))
	}

	path, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return BuildWorkspace(manifest, newLogger(cmd))
}
