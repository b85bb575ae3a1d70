package dbdeploy

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" for the default OpenDB
)

const (
	// DefaultEnvFile is read when Config.EnvFile is empty.
	DefaultEnvFile = ".env"

	// DefaultMigrationFile is deployed when Config.MigrationFile is empty.
	DefaultMigrationFile = "supabase/migrations/20260103_stripe_elements_extended_subscriptions.sql"

	// DefaultDocsFile is the manual deployment guide the output points to.
	DefaultDocsFile = "DATABASE_DEPLOYMENT_GUIDE.md"
)

// Execute modes.
const (
	ExecuteNone = ""
	ExecuteDB   = "db"
	ExecuteAPI  = "api"
)

// Config holds settings for a deployment run.
type Config struct {
	// EnvFile is the KEY=VALUE file holding platform settings.
	EnvFile string

	// MigrationFile is the SQL file to deploy.
	MigrationFile string

	// DocsFile is named in the output as the manual deployment guide.
	DocsFile string

	// Newline normalises line endings ("LF", "CR" or "CRLF") before checksumming.
	Newline string

	// AssumeYes skips the confirmation prompt.
	AssumeYes bool

	// Probe checks the REST endpoint with the service credential after confirmation.
	Probe bool

	// Execute selects programmatic deployment: ExecuteNone, ExecuteDB or ExecuteAPI.
	Execute string

	// Driver is the database driver for ExecuteDB, "pg" (default) or "sqlite3".
	Driver string

	// HistoryTable is the ledger table for ExecuteDB.
	HistoryTable string

	// OpenDB opens the ExecuteDB connection. Defaults to sql.Open with the
	// registered driver name ("pgx" for pg).
	OpenDB func(driver, dsn string) (*sql.DB, error)

	// HTTPClient is used for platform calls. Nil uses a 30s timeout client.
	HTTPClient *http.Client
}

// Deployer walks the operator through deploying one migration.
type Deployer struct {
	cfg Config
	in  io.Reader
	out io.Writer
}

// NewDeployer creates a Deployer reading answers from in and writing the
// console output to out.
func NewDeployer(cfg Config, in io.Reader, out io.Writer) *Deployer {
	if cfg.EnvFile == "" {
		cfg.EnvFile = DefaultEnvFile
	}
	if cfg.MigrationFile == "" {
		cfg.MigrationFile = DefaultMigrationFile
	}
	if cfg.DocsFile == "" {
		cfg.DocsFile = DefaultDocsFile
	}
	if cfg.Driver == "" {
		cfg.Driver = "pg"
	}
	if cfg.HistoryTable == "" {
		cfg.HistoryTable = DefaultHistoryTable
	}
	if cfg.OpenDB == nil {
		cfg.OpenDB = openDB
	}
	return &Deployer{
		cfg: cfg,
		in:  in,
		out: out,
	}
}

func openDB(driver, dsn string) (*sql.DB, error) {
	if strings.ToLower(driver) == "pg" {
		driver = "pgx"
	}
	return sql.Open(driver, dsn)
}

func (d *Deployer) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

func (d *Deployer) println(args ...any) {
	fmt.Fprintln(d.out, args...)
}

var (
	heavyRule = strings.Repeat("=", 70)
	lightRule = strings.Repeat("─", 70)
)

// Run executes the deployment pipeline. It returns nil when the operator
// declines.
func (d *Deployer) Run(ctx context.Context) error {
	switch d.cfg.Execute {
	case ExecuteNone, ExecuteDB, ExecuteAPI:
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownExecuteMode, d.cfg.Execute, ExecuteDB, ExecuteAPI)
	}

	d.println("🚀 Database Migration Deployer")
	d.println(heavyRule)
	d.println()

	env, err := LoadEnvFile(d.cfg.EnvFile)
	if err != nil {
		return err
	}
	settings, err := SettingsFromEnv(env)
	if err != nil {
		return err
	}
	slog.Debug("settings loaded", "url", settings.URL, "ref", settings.ProjectRef(), "key", settings.MaskedKey())

	mig, err := LoadMigration(d.cfg.MigrationFile, d.cfg.Newline)
	if err != nil {
		return err
	}

	d.printf("📋 Migration File: %s\n", mig.Filename)
	d.printf("📏 Size: %d characters\n", mig.Size())
	d.printf("🔗 Supabase Project: %s\n", settings.URL)
	d.println()

	d.println("⏳ Preparing deployment...")
	d.println()

	summary := mig.Summary()
	d.printf("📊 SQL Statements: %d\n", summary.Total)
	d.printf("✅ Valid Statements: %d\n", summary.Valid)
	d.println()

	d.printNotice(settings, mig)

	proceed := d.cfg.AssumeYes
	if !proceed {
		proceed, err = Confirm(d.in, d.out, "🤔 Continue with programmatic deployment? (y/n): ")
		if err != nil {
			return err
		}
	}
	if !proceed {
		d.println()
		d.printf("📖 See %s for manual deployment instructions\n", d.cfg.DocsFile)
		return nil
	}

	d.println()
	d.println("⚙️  Deploying migration...")
	d.println()

	if err := d.deploy(ctx, settings, mig); err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}
	return nil
}

func (d *Deployer) printNotice(s *Settings, m *Migration) {
	d.println("📌 IMPORTANT NOTICE:")
	d.println(lightRule)
	d.println()
	d.println("This helper can deploy via the Supabase APIs.")
	d.println("However, the recommended way is to use Supabase Dashboard:")
	d.println()
	d.printf("1. Open: %s\n", s.SQLEditorURL())
	d.println("2. Create a new query")
	d.println("3. Copy & paste the contents of:")
	d.printf("   %s\n", m.Filename)
	d.println("4. Click 'Run'")
	d.println()
	d.println(lightRule)
	d.println()
}

func (d *Deployer) deploy(ctx context.Context, s *Settings, m *Migration) error {
	platform := NewPlatformClient(s, d.cfg.HTTPClient)

	if d.cfg.Probe {
		d.println("🔍 Probing REST endpoint...")
		if err := platform.Probe(ctx); err != nil {
			return err
		}
		d.println("✅ REST endpoint accepted the service credential")
		d.println()
	}

	var applier Applier
	switch d.cfg.Execute {
	case ExecuteNone:
		d.printManualSteps(s, m)
		return nil
	case ExecuteAPI:
		applier = NewAPIApplier(platform)
	case ExecuteDB:
		if s.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingSettings)
		}
		db, err := d.cfg.OpenDB(d.cfg.Driver, s.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		client, err := NewClient(d.cfg.Driver, d.cfg.HistoryTable, db)
		if err != nil {
			return err
		}
		applier = NewDBApplier(client)
	}

	applied, err := applier.Apply(ctx, m)
	if err != nil {
		return err
	}
	if applied {
		d.printf("✅ Migration applied: %s\n", m.Key())
	} else {
		d.printf("⏭️  Migration already deployed: %s\n", m.Key())
	}
	d.println()
	d.println("✨ Migration deployment complete")
	return nil
}

func (d *Deployer) printManualSteps(s *Settings, m *Migration) {
	d.println("⚠️  Note: REST API execution may have limitations")
	d.println("   Recommended: Use Supabase Dashboard for reliable deployment")
	d.println()
	d.println("📌 To complete deployment via Dashboard:")
	d.println()
	d.printf("1. URL: %s\n", s.SQLEditorURL())
	d.printf("2. Copy entire contents of: %s\n", m.Filename)
	d.println("3. Paste into SQL Editor")
	d.println("4. Click 'Run' button")
	d.println()
	d.println("✨ Migration deployment guide created:")
	d.printf("   See: %s\n", d.cfg.DocsFile)
}
