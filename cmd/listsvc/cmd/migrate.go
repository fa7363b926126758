package cmd

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := st.Migrate(ctx); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "schema ready", "driver", a.cfg.Database.Driver)
			return nil
		},
	}
}
