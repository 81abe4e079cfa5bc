package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playtube/backend/internal/config"
	"github.com/playtube/backend/internal/db"
)

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// migrator tracks applied schema versions in a schema_migrations table and
// applies pending .sql files in lexical order.
type migrator struct {
	conn    *pgxpool.Conn
	dir     string
	logger  *slog.Logger
	applied map[string]struct{}
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	dir, err := resolveDir(cfg.MigrationDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	m := &migrator{conn: conn, dir: dir, logger: slog.Default()}
	if err := m.loadApplied(ctx); err != nil {
		return err
	}

	switch command {
	case "status":
		return m.status(ctx)
	case "up", "":
		return m.up(ctx)
	case "down":
		return errors.New("down migrations are not supported yet")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func (m *migrator) loadApplied(ctx context.Context) error {
	if _, err := m.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := m.conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	m.applied = make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("scan applied migration: %w", err)
		}
		m.applied[version] = struct{}{}
	}
	return rows.Err()
}

func (m *migrator) pending() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (m *migrator) status(ctx context.Context) error {
	names, err := m.pending()
	if err != nil {
		return err
	}
	for _, name := range names {
		mark := "[ ]"
		if _, ok := m.applied[name]; ok {
			mark = "[x]"
		}
		fmt.Printf("%s %s\n", mark, name)
	}
	return nil
}

func (m *migrator) up(ctx context.Context) error {
	names, err := m.pending()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		m.logger.Info("no migrations to apply")
		return nil
	}

	for _, name := range names {
		if _, ok := m.applied[name]; ok {
			continue
		}

		contents, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if err := m.applyWithRetry(ctx, name, string(contents)); err != nil {
			return err
		}

		m.logger.Info("applied migration", "name", name)
	}
	return nil
}

// applyWithRetry runs the migration and its bookkeeping insert in one
// serializable transaction, retrying on transient serialization and lock
// errors with exponential backoff.
func (m *migrator) applyWithRetry(ctx context.Context, name, contents string) error {
	backoff := migrationBaseBackoff
	for attempt := 1; ; attempt++ {
		err := m.applyOnce(ctx, name, contents)
		if err == nil {
			return nil
		}
		if !shouldRetryMigration(err) || attempt >= migrationMaxRetries {
			return err
		}

		m.logger.Warn("transient migration error, retrying",
			"name", name, "attempt", attempt, "max", migrationMaxRetries, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > migrationMaxBackoff {
			backoff = migrationMaxBackoff
		}
	}
}

func (m *migrator) applyOnce(ctx context.Context, name, contents string) error {
	tx, err := m.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction for %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, contents); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryablePgErrorCodes[pgErr.Code]
		return ok
	}
	return false
}

func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
