package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saucecodee/praise/internal/adapter/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current and latest schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		current, latest, err := postgres.MigrationStatus(ctx, pool)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "current: %d\nlatest:  %d\n", current, latest)
		if int(current) < latest {
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) pending\n", latest-int(current))
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert missing default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.SeedSettings(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "default settings seeded")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}
