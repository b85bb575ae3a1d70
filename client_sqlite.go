package dbdeploy

import (
	"database/sql"
	"fmt"
	"strings"
)

// Sqlite3Client implements the Client interface for SQLite.
type Sqlite3Client struct {
	baseClient
}

// NewSqlite3Client creates a new Sqlite3Client.
func NewSqlite3Client(table string, db *sql.DB) *Sqlite3Client {
	sqliteClient := &Sqlite3Client{
		baseClient: baseClient{
			table: table,
			db:    db,
		},
	}
	// Set function pointers.
	sqliteClient.quotedTableFn = sqliteClient.quotedTable
	sqliteClient.columnsSqlFn = sqliteClient.columnsSql
	sqliteClient.placeholderFn = func(int) string { return "?" }
	sqliteClient.preambleFn = func() []string { return nil }
	return sqliteClient
}

// quotedTable drops any schema qualifier; SQLite has a single main schema.
func (c *Sqlite3Client) quotedTable() string {
	if _, table, ok := strings.Cut(c.table, "."); ok {
		return fmt.Sprintf(`"%s"`, table)
	}
	return fmt.Sprintf(`"%s"`, c.table)
}

func (c *Sqlite3Client) columnsSql() string {
	return fmt.Sprintf(`
      SELECT name AS column_name
      FROM pragma_table_info('%s');
    `, strings.Trim(c.quotedTable(), `"`))
}
