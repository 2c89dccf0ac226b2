package main

import (
	"fmt"
	"os"

	"github.com/driftglass/vfs/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vfstool:", err)
		os.Exit(1)
	}
}
