package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/driftglass/vfs"
	"github.com/driftglass/vfs/internal/pathutil"
)

var extractCmd = &cobra.Command{
	Use:   "extract <path>",
	Short: "Copy a virtual subtree to a host directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openManifest(cmd)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		jobs, _ := cmd.Flags().GetInt("jobs")
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}

		files := collectFiles(ws.FS, args[0])
		if len(files) == 0 {
			return fmt.Errorf("%s: no files found", args[0])
		}

		var g errgroup.Group
		g.SetLimit(jobs)
		for _, name := range files {
			name := name
			g.Go(func() error {
				blob := ws.FS.ReadFile(name)
				if blob == nil {
					return fmt.Errorf("%s: read failed", name)
				}

				rel := pathutil.Normalize(name)
				dest := filepath.Join(out, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
					return err
				}
				return os.WriteFile(dest, blob.Bytes(), 0o644)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "extracted %d files to %s\n", len(files), out)
		return nil
	},
}

// collectFiles walks the subtree under root breadth-first and returns every
// file path in it.
func collectFiles(fs vfs.FileSystem, root string) []string {
	var files []string

	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		fs.EnumerateFiles(current, nil, func(name string) {
			files = append(files, pathutil.Join(current, name))
		}, false)

		fs.EnumerateDirectories(current, func(name string) {
			queue = append(queue, pathutil.Join(current, name))
		}, false)
	}

	return files
}

func init() {
	extractCmd.Flags().StringP("out", "o", ".", "Destination directory")
	extractCmd.Flags().IntP("jobs", "j", 0, "Concurrent file copies (default: number of CPUs)")
	rootCmd.AddCommand(extractCmd)
}
