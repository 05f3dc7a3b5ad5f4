package migrate

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs all migrations up using the embedded migration files.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return run(ctx, pool, nil, func(m *migrate.Migrate) error { return m.Up() })
}

// ApplyLogged is Apply with the resulting schema version logged.
func ApplyLogged(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	return run(ctx, pool, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	return run(ctx, pool, logger, func(m *migrate.Migrate) error { return m.Steps(-1) })
}

func run(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger, step func(*migrate.Migrate) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return errors.Wrap(err, "init iofs")
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return errors.Wrap(err, "open sql db")
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping sql db")
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "init db driver")
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer m.Close()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(err, "migrate (every version needs both .up.sql and .down.sql; migrations are embedded, so rebuild after adding one)")
		}
		return errors.Wrap(err, "migrate")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(err, "read version")
	}
	logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
