package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nagarh/anthroab-dist/internal/pkginfo"
	"github.com/nagarh/anthroab-dist/internal/sdist"
)

func newInspectCmd() *cobra.Command {
	var format string
	var list bool

	cmd := &cobra.Command{
		Use:   "inspect <sdist.tar.gz>",
		Short: "Show the metadata of a source distribution and verify its checksums",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pkginfo.ParseFormat(format)
			if err != nil {
				return err
			}

			report, err := sdist.Inspect(args[0])
			if err != nil {
				return fmt.Errorf("inspecting %s: %w", args[0], err)
			}

			if err := pkginfo.Write(os.Stdout, report.Metadata, f); err != nil {
				return err
			}

			if list {
				fmt.Println()
				for _, name := range report.Files {
					fmt.Println(name)
				}
			}

			for _, name := range report.Mismatched {
				fmt.Fprintf(os.Stderr, "checksum mismatch: %s\n", name)
			}
			for _, name := range report.Missing {
				fmt.Fprintf(os.Stderr, "missing from archive: %s\n", name)
			}
			if !report.OK() {
				return fmt.Errorf("%s failed checksum verification", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(pkginfo.FormatPKGInfo), "Output format: pkg-info, json, yaml or toml")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List archive members")
	return cmd
}
