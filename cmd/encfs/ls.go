package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls <volume-dir> [logical-path]",
	Short: "List a logical directory's contents",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		entries, err := v.List(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			kind := "file"
			if e.IsDirectory() {
				kind = "dir "
			}
			fmt.Printf("%s  %10d  %s\n", kind, e.Length(), e.PlainName())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
