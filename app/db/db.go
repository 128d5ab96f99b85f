package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	uuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/FACorreiaa/go-vietspot-suggestions/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForDB pings with a linear backoff until the store answers.
func WaitForDB(ctx context.Context, pool Pinger, logger *slog.Logger) bool {
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		err := pool.Ping(ctx)
		if err == nil {
			logger.InfoContext(ctx, "Database connection successful")
			return true
		}

		wait := time.Duration(attempt) * 200 * time.Millisecond
		logger.WarnContext(ctx, "Database ping failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", defaultRetries),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
		if attempt == defaultRetries {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
	logger.ErrorContext(ctx, "Database connection failed after retries")
	return false
}

// RunMigrations applies the embedded migrations.
func RunMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations")

	if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
		return errors.New("invalid database URL scheme for migrate, expected postgresql://")
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Error closing migration source", slog.Any("error", srcErr))
		}
		if dbErr != nil {
			logger.Warn("Error closing migration database connection", slog.Any("error", dbErr))
		}
	}()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	switch {
	case err != nil:
		logger.Warn("Could not determine migration version", slog.Any("error", err))
	case dirty:
		return fmt.Errorf("database migration state is dirty at version %d", version)
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info("No new migrations to apply", slog.Uint64("current_version", uint64(version)))
	default:
		logger.Info("Database migrations applied", slog.Uint64("new_version", uint64(version)))
	}
	return nil
}

// NewDatabaseConfig builds the postgresql:// URL used by both migrate and pgx.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		return nil, errors.New("postgres configuration is missing or invalid")
	}
	pg := cfg.Repositories.Postgres

	sslMode := pg.SSLMODE
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("timezone", "utc")
	if pg.MAXCONWAITINGTIME > 0 {
		query.Set("connect_timeout", fmt.Sprint(pg.MAXCONWAITINGTIME))
	}

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     fmt.Sprintf("%s:%s", pg.Host, pg.Port),
		Path:     pg.DB,
		RawQuery: query.Encode(),
	}
	logger.Info("Database connection URL generated", slog.String("host", connURL.Host), slog.String("database", pg.DB))

	return &DatabaseConfig{ConnectionURL: connURL.String()}, nil
}

// Init opens the pgx pool and registers the google/uuid codec on every
// connection.
func Init(ctx context.Context, connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Initializing database connection pool")
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		uuid.Register(conn.TypeMap())
		return nil
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}

	logger.Info("Database connection pool initialized", slog.Int("max_conns", int(cfg.MaxConns)))
	return pool, nil
}
