package dbdeploy

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Migration represents a single migration file.
type Migration struct {
	// Version is the leading digit run of the file name, e.g. "20260103".
	Version string

	// Name is the descriptive part of the file name after the version.
	Name string

	// Filename is the path to the migration file.
	Filename string

	// SQL is the raw file content.
	SQL string

	// Md5 is the MD5 checksum of SQL.
	Md5 string
}

// Size returns the length of the migration text in characters.
func (m *Migration) Size() int {
	return utf8.RuneCountInString(m.SQL)
}

// Summary splits the migration text for display.
func (m *Migration) Summary() Summary {
	return Summarize(m.SQL)
}

// Key identifies the migration in the deployment ledger.
func (m *Migration) Key() string {
	return filepath.Base(m.Filename)
}

// LoadMigration reads the migration at path. lineEnding, when set, is
// applied before computing the checksum.
func LoadMigration(path, lineEnding string) (*Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMigrationNotFound, path)
		}
		return nil, fmt.Errorf("reading migration %s: %w", path, err)
	}
	content := string(data)
	sum, err := checksum(content, lineEnding)
	if err != nil {
		return nil, err
	}
	version, name := parseMigrationName(path)
	return &Migration{
		Version:  version,
		Name:     name,
		Filename: path,
		SQL:      content,
		Md5:      sum,
	}, nil
}

// parseMigrationName splits "<version>_<name>.sql". Files without a numeric
// prefix get an empty version and the whole base name as name.
func parseMigrationName(path string) (version, name string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix, rest, found := strings.Cut(base, "_")
	if !found || !isDigits(prefix) {
		return "", base
	}
	return prefix, rest
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sortMigrations sorts migrations by version, then by name.
func sortMigrations(migs []*Migration) {
	sort.Slice(migs, func(i, j int) bool {
		if len(migs[i].Version) != len(migs[j].Version) {
			return len(migs[i].Version) < len(migs[j].Version)
		}
		if migs[i].Version != migs[j].Version {
			return migs[i].Version < migs[j].Version
		}
		return migs[i].Name < migs[j].Name
	})
}

// convertLineEnding converts all newline variations in content to the target style.
func convertLineEnding(content, lineEnding string) (string, error) {
	var target string
	switch lineEnding {
	case "LF":
		target = "\n"
	case "CR":
		target = "\r"
	case "CRLF":
		target = "\r\n"
	default:
		return "", fmt.Errorf("newline must be one of: LF, CR, CRLF")
	}
	re := regexp.MustCompile(`\r\n|\r|\n`)
	return re.ReplaceAllString(content, target), nil
}

// checksum computes the MD5 checksum of the content after converting line endings if set.
func checksum(content, lineEnding string) (string, error) {
	if lineEnding != "" {
		var err error
		content, err = convertLineEnding(content, lineEnding)
		if err != nil {
			return "", err
		}
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}

// ListMigrations loads every *.sql file matching pattern, sorted by version.
// Two files sharing a version are rejected.
func ListMigrations(pattern, lineEnding string) ([]*Migration, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var migrations []*Migration
	versions := make(map[string]string)
	for _, file := range files {
		if filepath.Ext(file) != ".sql" {
			continue
		}
		mig, err := LoadMigration(file, lineEnding)
		if err != nil {
			return nil, err
		}
		if mig.Version != "" {
			if prev, exists := versions[mig.Version]; exists {
				return nil, fmt.Errorf("duplicate migration version %s: %s and %s", mig.Version, prev, file)
			}
			versions[mig.Version] = file
		}
		migrations = append(migrations, mig)
	}
	sortMigrations(migrations)
	return migrations, nil
}
