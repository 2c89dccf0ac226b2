package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print the content of a file in the virtual tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openManifest(cmd)
		if err != nil {
			return err
		}

		blob := ws.FS.ReadFile(args[0])
		if blob == nil {
			return fmt.Errorf("%s: no such file", args[0])
		}
		_, err = cmd.OutOrStdout().Write(blob.Bytes())
		return err
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
