package dbdeploy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultHistoryTable is the ledger table used when none is configured.
const DefaultHistoryTable = "dbdeploy_history"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// NewClient creates a ledger Client for the driver ("pg" or "sqlite3").
func NewClient(driver, table string, db *sql.DB) (Client, error) {
	if table == "" {
		table = DefaultHistoryTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid history table name %q", table)
	}
	switch strings.ToLower(driver) {
	case "pg":
		return NewPostgresClient(table, db), nil
	case "sqlite3":
		return NewSqlite3Client(table, db), nil
	default:
		return nil, fmt.Errorf("db driver '%s' not supported. Must be one of: sqlite3 or pg", driver)
	}
}

// Client records deployed migrations in a ledger table on the target database.
type Client interface {
	EnsureTable(ctx context.Context) error
	AppliedChecksum(ctx context.Context, name string) (string, bool, error)
	Apply(ctx context.Context, m *Migration, statements int) error
}

// baseClient holds the dialect-independent logic. Dialects fill in the
// function fields.
type baseClient struct {
	table string
	db    *sql.DB

	quotedTableFn func() string
	columnsSqlFn  func() string
	placeholderFn func(n int) string
	preambleFn    func() []string
}

// hasColumn checks for a column name (case insensitive).
func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// EnsureTable creates the ledger table when it is missing and adds the
// statements column to ledgers created before it existed.
func (c *baseClient) EnsureTable(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, c.columnsSqlFn())
	if err != nil {
		return err
	}
	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			rows.Close()
			return err
		}
		columns = append(columns, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var queries []string
	if len(columns) == 0 {
		queries = append(queries, c.preambleFn()...)
		queries = append(queries, fmt.Sprintf(`
          CREATE TABLE %s (
            name TEXT PRIMARY KEY,
            version TEXT,
            md5 TEXT NOT NULL,
            statements INTEGER,
            run_at TIMESTAMP
          );`, c.quotedTableFn()))
	} else if !hasColumn(columns, "statements") {
		queries = append(queries, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN statements INTEGER;`, c.quotedTableFn()))
	}

	for _, q := range queries {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// AppliedChecksum returns the recorded checksum for name, if any.
func (c *baseClient) AppliedChecksum(ctx context.Context, name string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT md5 FROM %s WHERE name = %s;`, c.quotedTableFn(), c.placeholderFn(1))
	var sum string
	err := c.db.QueryRowContext(ctx, query, name).Scan(&sum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sum, true, nil
}

// Apply runs the migration script and records it in one transaction.
func (c *baseClient) Apply(ctx context.Context, m *Migration, statements int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("running %s: %w", m.Key(), err)
	}
	insert := fmt.Sprintf(`
      INSERT INTO %s (name, version, md5, statements, run_at)
      VALUES (%s, %s, %s, %s, %s);`,
		c.quotedTableFn(),
		c.placeholderFn(1), c.placeholderFn(2), c.placeholderFn(3), c.placeholderFn(4), c.placeholderFn(5))
	if _, err := tx.ExecContext(ctx, insert, m.Key(), m.Version, m.Md5, statements, time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording %s: %w", m.Key(), err)
	}
	return tx.Commit()
}
