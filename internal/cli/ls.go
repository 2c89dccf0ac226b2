package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/driftglass/vfs"
)

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List files or directories at a path in the virtual tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openManifest(cmd)
		if err != nil {
			return err
		}

		extensions, _ := cmd.Flags().GetStringSlice("ext")
		dirs, _ := cmd.Flags().GetBool("dirs")
		dups, _ := cmd.Flags().GetBool("dups")

		var names []string
		var result int
		if dirs {
			result = ws.FS.EnumerateDirectories(args[0], vfs.EnumerateToSlice(&names), dups)
		} else {
			result = ws.FS.EnumerateFiles(args[0], extensions, vfs.EnumerateToSlice(&names), dups)
		}
		if result < 0 {
			return fmt.Errorf("enumerate %q: status %d", args[0], result)
		}

		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().StringSlice("ext", nil, "Only list files with these extensions")
	lsCmd.Flags().Bool("dirs", false, "List directories instead of files")
	lsCmd.Flags().Bool("dups", false, "Report names once per layer that has them")
	rootCmd.AddCommand(lsCmd)
}
