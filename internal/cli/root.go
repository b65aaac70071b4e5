// Package cli wires the sprintd command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MeenalAppSphere/sprintd/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	var homeOverride string

	cmd := &cobra.Command{
		Use:          "sprintd",
		Short:        "sprintd — sprint capacity, scheduling, and reporting engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if homeOverride != "" {
				cmd.SetContext(config.WithHome(cmd.Context(), homeOverride))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Override sprintd home directory (default: ~/.sprintd, env: SPRINTD_HOME)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newBackfillReportsCmd())
	cmd.AddCommand(newVersionCmd(cmd))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
