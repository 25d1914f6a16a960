package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"encfs"
	"encfs/internal/provider/localfs"
)

func openVolume(rootDir string) (*encfs.Volume, error) {
	pw, err := readPassword("Password: ")
	if err != nil {
		return nil, err
	}
	provider := localfs.New(rootDir)
	return encfs.Open(provider, pw)
}

var openCmd = &cobra.Command{
	Use:   "open <volume-dir>",
	Short: "Open a volume and print its configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		cfg := v.Config()
		fmt.Printf("cipher:            %s\n", cfg.CipherAlgorithm)
		fmt.Printf("key bits:          %d\n", cfg.KeyBits)
		fmt.Printf("block size:        %d\n", cfg.BlockSize)
		fmt.Printf("block MAC bytes:   %d\n", cfg.BlockMACBytes)
		fmt.Printf("block MAC rand:    %d\n", cfg.BlockMACRandBytes)
		fmt.Printf("unique IV:         %t\n", cfg.UseUniqueIV)
		fmt.Printf("chained name IV:   %t\n", cfg.UseChainedNameIV)
		fmt.Printf("external IV chain: %t\n", cfg.ExternalIVChaining)
		fmt.Printf("allow holes:       %t\n", cfg.AllowHoles)
		fmt.Printf("filename mode:     %s\n", cfg.FilenameAlgorithm)
		fmt.Printf("iterations:        %d\n", cfg.Iterations)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
