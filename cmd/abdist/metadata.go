package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nagarh/anthroab-dist/internal/pkginfo"
)

func newMetadataCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the distribution metadata record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pkginfo.ParseFormat(format)
			if err != nil {
				return err
			}

			e, err := setup()
			if err != nil {
				return err
			}
			m, err := e.build()
			if err != nil {
				return err
			}

			return pkginfo.Write(os.Stdout, m, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(pkginfo.FormatPKGInfo), "Output format: pkg-info, json, yaml or toml")
	return cmd
}
