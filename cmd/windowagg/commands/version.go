package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paveg/windowagg/internal/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), version.Info().String())
			return err
		},
	}
}
