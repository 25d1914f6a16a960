package main

import (
	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv <volume-dir> <src-path> <dst-path>",
	Short: "Move or rename a logical file or directory",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		return v.MoveWithProgress(args[1], args[2], newReporter())
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <volume-dir> <src-path> <dst-path>",
	Short: "Copy a logical file or directory, re-encrypting its contents",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		return v.CopyWithProgress(args[1], args[2], newReporter())
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <volume-dir> <path>",
	Short: "Delete a logical file, or a directory and everything beneath it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		return v.DeleteWithProgress(args[1], newReporter())
	},
}

func init() {
	rootCmd.AddCommand(mvCmd, cpCmd, rmCmd)
}
