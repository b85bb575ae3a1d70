package dbdeploy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", `# platform settings
VITE_SUPABASE_URL=https://abcd.supabase.co

SUPABASE_SERVICE_ROLE_KEY=secret
  PADDED =  spaced value  
WITH_EQUALS=a=b=c
DUP=first
DUP=second
`)

	env, err := LoadEnvFile(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"VITE_SUPABASE_URL":         "https://abcd.supabase.co",
		"SUPABASE_SERVICE_ROLE_KEY": "secret",
		"PADDED":                    "spaced value",
		"WITH_EQUALS":               "a=b=c",
		"DUP":                       "second",
	}, env)
}

func TestLoadEnvFile_Quoted(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "NAME=\"quoted value\"\nexport OTHER=x\n")

	env, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "quoted value", env["NAME"])
	assert.Equal(t, "x", env["OTHER"])
}

func TestLoadEnvFile_InlineComments(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "NOTE=a #b\nHASH=abc#def\nPASS=pa$word\n")

	env, err := LoadEnvFile(path)
	require.NoError(t, err)
	// An unquoted value ends at " #".
	assert.Equal(t, "a", env["NOTE"])
	assert.Equal(t, "abc#def", env["HASH"])
	assert.Equal(t, "pa$word", env["PASS"])
}

func TestLoadEnvFile_Missing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	require.ErrorIs(t, err, ErrEnvFileNotFound)
}
