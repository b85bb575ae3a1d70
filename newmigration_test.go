package dbdeploy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

func TestCreateMigration_Timestamp(t *testing.T) {
	fixClock(t, time.Date(2026, 1, 3, 14, 5, 9, 0, time.UTC))
	dir := filepath.Join(t.TempDir(), "supabase", "migrations")

	path, err := CreateMigration(dir, "Stripe Elements: extended subscriptions", "timestamp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260103140509_stripe_elements_extended_subscriptions.sql"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Write your migration SQL here")
}

func TestCreateMigration_Date(t *testing.T) {
	fixClock(t, time.Date(2026, 1, 3, 23, 0, 0, 0, time.UTC))
	dir := t.TempDir()

	path, err := CreateMigration(dir, "add index", "date")
	require.NoError(t, err)
	assert.Equal(t, "20260103_add_index.sql", filepath.Base(path))

	_, err = CreateMigration(dir, "add index", "date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateMigration_Int(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001_init.sql", "")
	writeFile(t, dir, "007_users.sql", "")

	path, err := CreateMigration(dir, "Add new table", "int")
	require.NoError(t, err)
	assert.Equal(t, "008_add_new_table.sql", filepath.Base(path))
}

func TestCreateMigration_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := CreateMigration(dir, "desc", "weekly")
	assert.Error(t, err)

	_, err = CreateMigration(dir, "!!!", "int")
	assert.Error(t, err)
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "hello_world", snakeCase("  Hello, World!  "))
	assert.Equal(t, "a_b_c", snakeCase("a--b__c"))
}
