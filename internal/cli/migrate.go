package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helptoken/helptoken/internal/migrations"
	"github.com/helptoken/helptoken/internal/storage/repository"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				db, err := repository.New(cfg.StorageConnectionString)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				db, err := repository.New(cfg.StorageConnectionString)
				if err != nil {
					return err
				}
				defer db.Close()
				version, dirty, err := migrations.Version(db.DB, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}
