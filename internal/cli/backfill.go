package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeenalAppSphere/sprintd/internal/sprint"
)

func newBackfillReportsCmd() *cobra.Command {
	var (
		dbPath string
		dbURL  string
	)

	cmd := &cobra.Command{
		Use:   "backfill-reports",
		Short: "Generate reports for closed sprints that are missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, dbPath, dbURL)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			mgr := sprint.NewManager(st, nil)
			created, err := mgr.CreateMissingReports(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %d report(s)\n", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: <home>/protected/db.sqlite)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL URL; overrides --db")

	return cmd
}
