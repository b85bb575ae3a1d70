package dbdeploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "two single-line statements",
			sql:  "SELECT 1;\nSELECT 2;\n",
			want: []string{"SELECT 1;", "SELECT 2;"},
		},
		{
			name: "multi-line statement",
			sql:  "CREATE TABLE t (\n  id int\n);\nSELECT 1;",
			want: []string{"CREATE TABLE t (\n  id int\n);", "SELECT 1;"},
		},
		{
			name: "trailing remainder without semicolon",
			sql:  "SELECT 1;\nSELECT 2",
			want: []string{"SELECT 1;", "SELECT 2"},
		},
		{
			name: "semicolon followed by spaces",
			sql:  "SELECT 1;   \n",
			want: []string{"SELECT 1;"},
		},
		{
			name: "crlf line endings",
			sql:  "SELECT 1;\r\nSELECT 2;\r\n",
			want: []string{"SELECT 1;", "SELECT 2;"},
		},
		{
			name: "blank input",
			sql:  "\n\n  \n",
			want: nil,
		},
		{
			name: "semicolon mid-line does not split",
			sql:  "SELECT ';' AS x, 1\nFROM t;\n",
			want: []string{"SELECT ';' AS x, 1\nFROM t;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.sql))
		})
	}
}

func TestSplitStatements_EndWithSemicolon(t *testing.T) {
	for _, s := range SplitStatements("SELECT 1;\nSELECT 2;\n") {
		assert.Equal(t, byte(';'), s[len(s)-1])
	}
}

func TestFilterStatements(t *testing.T) {
	got := FilterStatements([]string{
		"-- only a comment;",
		"CREATE TABLE a (id int);",
		"",
		"-- leading comment\nCREATE TABLE b (id int);",
		"INSERT INTO a VALUES (1); -- trailing comment",
	})
	assert.Equal(t, []string{
		"CREATE TABLE a (id int);",
		"INSERT INTO a VALUES (1); -- trailing comment",
	}, got)
}

func TestSummarize(t *testing.T) {
	sql := `-- Migration: subscriptions;
CREATE TABLE plans (
  id uuid PRIMARY KEY
);

ALTER TABLE plans ADD COLUMN name text;
-- done;
`
	s := Summarize(sql)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Valid)
	assert.Len(t, s.Statements, 2)
}
