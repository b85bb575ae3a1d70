package dbdeploy

import (
	"context"
	"fmt"
	"log/slog"
)

// Applier deploys a migration. It reports false when the migration was
// already deployed and nothing ran.
type Applier interface {
	Apply(ctx context.Context, m *Migration) (bool, error)
}

// DBApplier runs migrations over a direct database connection and keeps a
// ledger of what it deployed.
type DBApplier struct {
	client Client
}

// NewDBApplier creates a DBApplier on top of a ledger client.
func NewDBApplier(client Client) *DBApplier {
	return &DBApplier{client: client}
}

// Apply runs m unless the ledger already holds it. A ledger entry with a
// different checksum means the file changed after deployment and is an error.
func (a *DBApplier) Apply(ctx context.Context, m *Migration) (bool, error) {
	if err := a.client.EnsureTable(ctx); err != nil {
		return false, fmt.Errorf("preparing history table: %w", err)
	}
	sum, ok, err := a.client.AppliedChecksum(ctx, m.Key())
	if err != nil {
		return false, fmt.Errorf("reading history: %w", err)
	}
	if ok {
		if sum != m.Md5 {
			return false, fmt.Errorf("%w: %s was deployed with md5 %s, file now has %s", ErrChecksumMismatch, m.Key(), sum, m.Md5)
		}
		slog.Info("migration already deployed", "name", m.Key(), "md5", sum)
		return false, nil
	}
	if err := a.client.Apply(ctx, m, m.Summary().Total); err != nil {
		return false, err
	}
	slog.Info("migration deployed", "name", m.Key(), "md5", m.Md5)
	return true, nil
}

// APIApplier sends migrations to the platform's management API.
type APIApplier struct {
	platform *PlatformClient
}

// NewAPIApplier creates an APIApplier.
func NewAPIApplier(platform *PlatformClient) *APIApplier {
	return &APIApplier{platform: platform}
}

// Apply posts the whole migration as one query.
func (a *APIApplier) Apply(ctx context.Context, m *Migration) (bool, error) {
	if err := a.platform.RunQuery(ctx, m.SQL); err != nil {
		return false, err
	}
	slog.Info("migration deployed", "name", m.Key(), "via", "api")
	return true, nil
}
