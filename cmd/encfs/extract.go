package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"encfs"
)

func extractRecursive(v *encfs.Volume, logicalPath, hostDest string) error {
	info, err := v.Stat(logicalPath)
	if err != nil {
		return err
	}

	if info.IsDirectory() {
		if err := os.MkdirAll(hostDest, 0o755); err != nil {
			return err
		}
		children, err := v.List(logicalPath)
		if err != nil {
			return err
		}
		for _, child := range children {
			childLogical := logicalPath
			if childLogical != "/" {
				childLogical += "/"
			}
			childLogical += child.PlainName()
			if err := extractRecursive(v, childLogical, filepath.Join(hostDest, child.PlainName())); err != nil {
				return err
			}
		}
		return nil
	}

	r, err := v.OpenRead(logicalPath)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.Create(hostDest)
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, r)
	return err
}

var extractCmd = &cobra.Command{
	Use:   "extract <volume-dir> <logical-path> <host-dest>",
	Short: "Decrypt a file or directory out to the host filesystem",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVolume(args[0])
		if err != nil {
			return err
		}
		defer v.Close()

		if err := extractRecursive(v, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "extracted %s -> %s\n", args[1], args[2])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
