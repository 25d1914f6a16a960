package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <volume-dir> <logical-path>",
	Short: "Print a file's decrypted contents to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		r, err := v.OpenRead(args[1])
		if err != nil {
			return err
		}
		defer r.Close()

		_, err = io.Copy(os.Stdout, r)
		return err
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
