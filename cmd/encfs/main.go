// Command encfs is a minimal CLI over the encfs library: open a volume,
// list and read its files, extract them to the host filesystem, and create
// new volumes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "encfs",
	Short:   "Open, inspect, and create EncFS-compatible volumes",
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "encfs:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
