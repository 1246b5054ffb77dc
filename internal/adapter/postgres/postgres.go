// Package postgres implements the domain repositories on PostgreSQL with pgx.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"

	"github.com/saucecodee/praise/internal/adapter/metrics"
	"github.com/saucecodee/praise/internal/platform/retry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Connect opens a pool and waits for the database to accept connections.
// m may be nil, which disables query metrics.
func Connect(ctx context.Context, databaseURL string, m *metrics.DBMetrics) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if m != nil {
		poolCfg.ConnConfig.Tracer = NewMetricsTracer(m)
	}

	slog.Info("Database SSL mode", "sslmode", extractSSLMode(databaseURL))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	policy := retry.StartupPolicy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Database not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}
	if err := retry.DoVoid(ctx, policy, classifyConnectError, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

// classifyConnectError stops on authentication and catalog errors, waits
// longer while the server reports it is starting and retries everything else.
func classifyConnectError(err error) retry.Action {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "57P03": // cannot_connect_now
			return retry.Wait
		case "28P01", "28000", "3D000": // invalid_password, invalid_authorization, invalid_catalog_name
			return retry.Stop
		}
	}
	return retry.Retry
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		return "prefer (default)"
	}
	return mode
}

const (
	// migrationLockID is the advisory lock held while migrating.
	// Value: 0x707261697365 ("praise" in ASCII hex)
	migrationLockID             = 0x707261697365
	migrationLockReleaseTimeout = 5 * time.Second
)

// RunMigrationsWithLock migrates to the latest schema while holding an
// advisory lock, so concurrently starting instances migrate once.
func RunMigrationsWithLock(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	unlock, err := migrationLock(ctx, conn.Conn(), migrationLockReleaseTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	slog.Info("Running database migrations")
	return runMigrations(ctx, conn.Conn())
}

func newMigrator(ctx context.Context, conn *pgx.Conn) (*migrate.Migrator, error) {
	migrationFS, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, "public.schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.LoadMigrations(migrationFS); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return migrator, nil
}

func runMigrations(ctx context.Context, conn *pgx.Conn) error {
	migrator, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	currentVersion, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		slog.Debug("Could not get current DB version (likely fresh DB)", "error", err)
	} else {
		slog.Info("Current DB version", "version", currentVersion, "latest", len(migrator.Migrations))
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// MigrationStatus reports the applied and latest schema versions.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) (current int32, latest int, err error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	migrator, err := newMigrator(ctx, conn.Conn())
	if err != nil {
		return 0, 0, err
	}
	current, err = migrator.GetCurrentVersion(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return current, len(migrator.Migrations), nil
}

func migrationLock(ctx context.Context, conn *pgx.Conn, releaseTimeout time.Duration) (func(), error) {
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Error("Failed to release migration lock", "error", err)
		}
	}, nil
}
