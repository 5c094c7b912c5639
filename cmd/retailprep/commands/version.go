package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/retailprep/internal/output"
	"github.com/jmylchreest/retailprep/internal/version"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			format, _ := cmd.Flags().GetString("format")

			if format != "" {
				f, err := output.ParseFormat(format)
				if err != nil {
					return err
				}
				enc, err := output.NewEncoder(cmd.OutOrStdout(), f)
				if err != nil {
					return err
				}
				return enc.Encode(version.Get())
			}

			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.Full())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
	cmd.Flags().Bool("full", false, "print commit, build date and platform")
	cmd.Flags().String("format", "", "structured output: json, yaml")
	return cmd
}
