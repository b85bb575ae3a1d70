package dbdeploy

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads KEY=VALUE pairs from path. Blank lines and lines
// starting with # are skipped, keys and values are trimmed, and the last
// occurrence of a key wins.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEnvFileNotFound, path)
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	slog.Debug("loaded env file", "path", path, "keys", len(env))
	return env, nil
}
