package dbdeploy_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/dbdeploy"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openSqlite(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func loadMigration(t *testing.T, dir, name, content string) *dbdeploy.Migration {
	t.Helper()
	m, err := dbdeploy.LoadMigration(writeTestFile(t, dir, name, content), "")
	require.NoError(t, err)
	return m
}

func TestNewClient(t *testing.T) {
	db, _ := openSqlite(t)

	_, err := dbdeploy.NewClient("mysql", "", db)
	assert.Error(t, err)

	_, err = dbdeploy.NewClient("sqlite3", `bad"; DROP TABLE x; --`, db)
	assert.Error(t, err)

	c, err := dbdeploy.NewClient("pg", "deploy.history", db)
	require.NoError(t, err)
	assert.IsType(t, &dbdeploy.PostgresClient{}, c)
}

func TestDBApplier_ApplyOnce(t *testing.T) {
	ctx := context.Background()
	db, _ := openSqlite(t)
	client, err := dbdeploy.NewClient("sqlite3", "", db)
	require.NoError(t, err)
	applier := dbdeploy.NewDBApplier(client)

	m := loadMigration(t, t.TempDir(), "20260103_plans.sql", `-- plans
CREATE TABLE plans (id INTEGER PRIMARY KEY, name TEXT);
INSERT INTO plans (name) VALUES ('basic');
INSERT INTO plans (name) VALUES ('pro');
`)

	applied, err := applier.Apply(ctx, m)
	require.NoError(t, err)
	assert.True(t, applied)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM plans`).Scan(&n))
	assert.Equal(t, 2, n)

	var md5 string
	var statements int
	require.NoError(t, db.QueryRow(
		`SELECT md5, statements FROM dbdeploy_history WHERE name = ?`, m.Key(),
	).Scan(&md5, &statements))
	assert.Equal(t, m.Md5, md5)
	// Every chunk the script was cut into, the commented one included.
	assert.Equal(t, 3, statements)

	// A second run is a no-op.
	applied, err = applier.Apply(ctx, m)
	require.NoError(t, err)
	assert.False(t, applied)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM plans`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestDBApplier_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db, _ := openSqlite(t)
	client, err := dbdeploy.NewClient("sqlite3", "", db)
	require.NoError(t, err)
	applier := dbdeploy.NewDBApplier(client)

	dir := t.TempDir()
	first := loadMigration(t, dir, "001_t.sql", "CREATE TABLE t (id INTEGER);\n")
	_, err = applier.Apply(ctx, first)
	require.NoError(t, err)

	changed := loadMigration(t, dir, "001_t.sql", "CREATE TABLE t (id INTEGER, v TEXT);\n")
	_, err = applier.Apply(ctx, changed)
	require.ErrorIs(t, err, dbdeploy.ErrChecksumMismatch)
}

func TestDBApplier_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db, _ := openSqlite(t)
	client, err := dbdeploy.NewClient("sqlite3", "", db)
	require.NoError(t, err)
	applier := dbdeploy.NewDBApplier(client)

	m := loadMigration(t, t.TempDir(), "001_broken.sql", "CREATE TABLE ok (id INTEGER);\nNOT VALID SQL;\n")
	applied, err := applier.Apply(ctx, m)
	require.Error(t, err)
	assert.False(t, applied)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM dbdeploy_history`).Scan(&n))
	assert.Zero(t, n)

	err = db.QueryRow(`SELECT COUNT(*) FROM ok`).Scan(&n)
	assert.Error(t, err, "table from the failed script should have been rolled back")
}

func TestSqlite3Client_AddsStatementsColumn(t *testing.T) {
	ctx := context.Background()
	db, _ := openSqlite(t)
	_, err := db.Exec(`CREATE TABLE dbdeploy_history (name TEXT PRIMARY KEY, version TEXT, md5 TEXT NOT NULL, run_at TIMESTAMP)`)
	require.NoError(t, err)

	client, err := dbdeploy.NewClient("sqlite3", "", db)
	require.NoError(t, err)
	require.NoError(t, client.EnsureTable(ctx))

	rows, err := db.Query(`SELECT name FROM pragma_table_info('dbdeploy_history')`)
	require.NoError(t, err)
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	assert.Contains(t, cols, "statements")
}
