package dbdeploy

import "strings"

// Summary is the display breakdown of a migration's statements.
type Summary struct {
	// Total counts every chunk produced by SplitStatements.
	Total int
	// Valid counts the chunks left after FilterStatements.
	Valid int
	// Statements holds the valid chunks in file order.
	Statements []string
}

// SplitStatements cuts sql into statements at lines whose trimmed text ends
// with a semicolon. Text after the last such line becomes a final statement
// when it is not blank. Semicolons inside literals, comments or function
// bodies are not understood; use the result for counting only.
func SplitStatements(sql string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	for _, line := range strings.Split(sql, "\n") {
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

// FilterStatements drops empty statements and statements starting with the
// "--" comment marker.
func FilterStatements(stmts []string) []string {
	var out []string
	for _, s := range stmts {
		if s == "" || strings.HasPrefix(s, "--") {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Summarize splits and filters sql.
func Summarize(sql string) Summary {
	all := SplitStatements(sql)
	valid := FilterStatements(all)
	return Summary{
		Total:      len(all),
		Valid:      len(valid),
		Statements: valid,
	}
}
