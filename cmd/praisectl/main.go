// Command praisectl runs operator tasks against the praise database:
// migrations, settings seeding, token minting and period transitions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/saucecodee/praise/internal/adapter/postgres"
	"github.com/saucecodee/praise/internal/app"
	"github.com/saucecodee/praise/internal/platform/config"
	"github.com/saucecodee/praise/internal/platform/logging"
)

var rootCmd = &cobra.Command{
	Use:           "praisectl",
	Short:         "Operator tool for the praise quantification engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, tokenCmd, userCmd, periodCmd, versionCmd)
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// openPool connects without metrics; the CLI is short-lived.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	return postgres.Connect(ctx, configFrom(ctx).DatabaseURL, nil)
}

// openService builds a Postgres-backed service. The returned func closes the pool.
func openService(ctx context.Context) (*app.Service, func(), error) {
	pool, err := openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := app.NewService(app.Repositories{
		Periods:         postgres.NewPeriodRepo(pool),
		Praise:          postgres.NewPraiseRepo(pool),
		Quantifications: postgres.NewQuantificationRepo(pool),
		Settings:        postgres.NewSettingRepo(pool),
		Users:           postgres.NewUserRepo(pool),
	}, clockwork.NewRealClock())
	return svc, pool.Close, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
