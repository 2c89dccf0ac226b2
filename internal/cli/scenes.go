package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List scene files reachable through media mounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openManifest(cmd)
		if err != nil {
			return err
		}
		if len(ws.Media) == 0 {
			return fmt.Errorf("manifest has no media mounts")
		}

		set := make(map[string]struct{})
		for _, media := range ws.Media {
			for _, scene := range media.AvailableScenes() {
				set[scene] = struct{}{}
			}
		}

		scenes := make([]string, 0, len(set))
		for scene := range set {
			scenes = append(scenes, scene)
		}
		sort.Strings(scenes)

		for _, scene := range scenes {
			fmt.Fprintln(cmd.OutOrStdout(), scene)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenesCmd)
}
