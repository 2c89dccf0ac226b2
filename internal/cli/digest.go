package cli

import (
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest <path>...",
	Short: "Print the sha256 digest of files in the virtual tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openManifest(cmd)
		if err != nil {
			return err
		}

		for _, name := range args {
			blob := ws.FS.ReadFile(name)
			if blob == nil {
				return fmt.Errorf("%s: no such file", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digest.FromBytes(blob.Bytes()), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
}
