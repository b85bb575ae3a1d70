package dbdeploy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// now is swapped in tests.
var now = time.Now

// CreateMigration creates a new empty migration file in dir and returns its path.
// description: a human-readable description that will be snake_cased for the filename.
// mode: "timestamp" (default, YYYYMMDDHHMMSS in UTC), "date" (YYYYMMDD) or
// "int" for the next triple zero-padded integer.
func CreateMigration(dir, description, mode string) (string, error) {
	desc := snakeCase(description)
	if desc == "" {
		return "", fmt.Errorf("description %q has no usable characters", description)
	}

	var version string
	switch strings.ToLower(mode) {
	case "", "timestamp":
		version = now().UTC().Format("20060102150405")
	case "date":
		version = now().UTC().Format("20060102")
	case "int":
		files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
		if err != nil {
			return "", fmt.Errorf("failed to scan migration files: %w", err)
		}
		max := 0
		for _, file := range files {
			v, _ := parseMigrationName(file)
			// Parse without padding.
			num, err := strconv.Atoi(v)
			if err != nil {
				continue
			}
			if num > max {
				max = num
			}
		}
		version = fmt.Sprintf("%03d", max+1)
	default:
		return "", fmt.Errorf("mode must be one of: timestamp, date, int")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migration folder %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, desc))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration file %s already exists", path)
		}
		return "", fmt.Errorf("failed to create migration file %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString("-- Write your migration SQL here\n"); err != nil {
		return "", fmt.Errorf("failed to write migration file %s: %w", path, err)
	}
	return path, nil
}

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

// snakeCase converts a string to snake_case.
func snakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
