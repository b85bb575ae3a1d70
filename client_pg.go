package dbdeploy

import (
	"database/sql"
	"fmt"
	"strings"
)

// PostgresClient implements Client for PostgreSQL.
type PostgresClient struct {
	baseClient
}

// NewPostgresClient creates a new PostgresClient.
func NewPostgresClient(table string, db *sql.DB) *PostgresClient {
	c := &PostgresClient{
		baseClient: baseClient{
			table: table,
			db:    db,
		},
	}
	c.quotedTableFn = c.quotedTable
	c.columnsSqlFn = c.columnsSql
	c.placeholderFn = c.placeholder
	c.preambleFn = c.preamble
	return c
}

// splitTable returns schema and table, defaulting the schema to public.
func (c *PostgresClient) splitTable() (string, string) {
	if schema, table, ok := strings.Cut(c.table, "."); ok {
		return schema, table
	}
	return "public", c.table
}

// quotedTable returns the table name with each part quoted.
func (c *PostgresClient) quotedTable() string {
	parts := strings.Split(c.table, ".")
	for i, part := range parts {
		parts[i] = fmt.Sprintf(`"%s"`, part)
	}
	return strings.Join(parts, ".")
}

func (c *PostgresClient) columnsSql() string {
	schema, table := c.splitTable()
	return fmt.Sprintf(`SELECT column_name FROM information_schema.columns WHERE table_schema = '%s' AND table_name = '%s';`, schema, table)
}

func (c *PostgresClient) placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// preamble creates the schema when the table name is qualified.
func (c *PostgresClient) preamble() []string {
	if !strings.Contains(c.table, ".") {
		return nil
	}
	schema, _ := c.splitTable()
	return []string{fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s";`, schema)}
}
