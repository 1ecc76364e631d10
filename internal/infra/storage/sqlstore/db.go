package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // registers the "postgres" driver
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"github.com/pressly/goose/v3"

	"github.com/vietddude/feedwatch/internal/indexing/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

// Config holds audit database configuration.
type Config struct {
	Driver    string        `yaml:"driver"    validate:"omitempty,oneof=postgres pgx sqlite3"`
	URL       string        `yaml:"url"`
	MaxConns  int           `yaml:"max_conns" validate:"gte=0"`
	MinConns  int           `yaml:"min_conns" validate:"gte=0"`
	Retention time.Duration `yaml:"retention"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	return c
}

// Enabled reports whether a database is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// DB wraps the audit database connection.
type DB struct {
	*sqlx.DB
	driver  string
	builder sq.StatementBuilderType
}

// Open connects to the database and applies the embedded migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	cfg = cfg.WithDefaults()

	db, err := sqlx.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pool configuration
	if cfg.Driver == DriverSQLite {
		// sqlite serialises writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MinConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	var placeholder sq.PlaceholderFormat = sq.Dollar
	if cfg.Driver == DriverSQLite {
		placeholder = sq.Question
	}

	return &DB{
		DB:      db,
		driver:  cfg.Driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}

func migrate(db *sqlx.DB, driver string) error {
	dialect := "postgres"
	if driver == DriverSQLite {
		dialect = "sqlite3"
	}

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// StartMetricsCollector starts a background goroutine to collect DB metrics.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.DBConnectionsInUse.Set(float64(db.Stats().InUse))
			}
		}
	}()
}

// Health checks if the database is healthy.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
