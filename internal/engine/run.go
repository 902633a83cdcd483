package engine

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	// Database drivers for local execution targets.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"

	"github.com/fhirlake-labs/fhirsql/internal/config"
)

// RunResult holds the rows returned by executing one compiled statement.
type RunResult struct {
	ID       uuid.UUID
	SQL      string
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Runner executes compiled SQL against a configured database target.
type Runner struct {
	db      *sql.DB
	dialect string
}

// NewRunner opens a connection for the target. The caller owns the returned
// Runner and must Close it.
func NewRunner(target *config.TargetConfig) (*Runner, error) {
	driver, dsn, err := driverDSN(target)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s target: %w", target.Type, err)
	}
	return &Runner{db: db, dialect: strings.ToLower(target.Type)}, nil
}

// Dialect returns the dialect name the runner executes against.
func (r *Runner) Dialect() string { return r.dialect }

// Execute runs one statement and materializes the full result set.
func (r *Runner) Execute(ctx context.Context, query string) (*RunResult, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &RunResult{
		ID:       uuid.New(),
		SQL:      query,
		Columns:  columns,
		Rows:     out,
		Duration: time.Since(start),
	}, nil
}

// Close releases the underlying connection pool.
func (r *Runner) Close() error {
	return r.db.Close()
}

// driverDSN maps a target onto a database/sql driver name and DSN.
func driverDSN(target *config.TargetConfig) (driver, dsn string, err error) {
	switch strings.ToLower(target.Type) {
	case "duckdb":
		// empty DSN is an in-memory database
		return "duckdb", target.Database, nil
	case "sqlite":
		path := target.Database
		if path == "" {
			path = ":memory:"
		}
		return "sqlite", path, nil
	case "postgres":
		u := &url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", target.Host, target.Port),
			Path:   "/" + target.Database,
		}
		if target.User != "" {
			if target.Password != "" {
				u.User = url.UserPassword(target.User, target.Password)
			} else {
				u.User = url.User(target.User)
			}
		}
		q := u.Query()
		if target.Schema != "" {
			q.Set("search_path", target.Schema)
		}
		for k, v := range target.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return "pgx", u.String(), nil
	case "snowflake":
		return "", "", fmt.Errorf("snowflake targets are compile-only: no local driver is bundled")
	default:
		return "", "", fmt.Errorf("no driver for target type %q", target.Type)
	}
}
