package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sprintd version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), root.Version)
		},
	}
}
