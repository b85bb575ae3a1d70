package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/spf13/cobra"

	"github.com/sitebridge/dbdeploy"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// logOptions are the persistent logging flags.
type logOptions struct {
	level  string
	format string
}

// deployOptions are the flags shared by the root command and deploy.
type deployOptions struct {
	envFile      string
	migration    string
	docs         string
	newline      string
	yes          bool
	probe        bool
	execute      string
	driver       string
	historyTable string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	logs := &logOptions{}
	opts := &deployOptions{}

	root := &cobra.Command{
		Use:   "dbdeploy",
		Short: "Deploy a SQL migration to a Supabase project",
		Long: `dbdeploy reads platform settings from an env file, summarises a SQL
migration and walks you through deploying it. Without --execute it only
prints the dashboard steps; nothing is sent over the network.`,
		Version: dbdeploy.Version,
		// Errors are printed once by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			logger, err := newLogger(logs.level, logs.format)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), opts, in, out)
		},
	}
	root.SetVersionTemplate("dbdeploy version: {{.Version}}\n")
	root.SetOut(out)

	root.PersistentFlags().StringVar(&logs.level, "log-level", "warn", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&logs.format, "log-format", "text", "Log format: text or json")
	addDeployFlags(root, opts)

	root.AddCommand(
		deployCmd(in, out),
		listCmd(out),
		newCmd(out),
	)
	return root
}

func addDeployFlags(cmd *cobra.Command, opts *deployOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.envFile, "env-file", dbdeploy.DefaultEnvFile, "Path to the KEY=VALUE settings file")
	f.StringVarP(&opts.migration, "migration", "m", dbdeploy.DefaultMigrationFile, "Path to the migration SQL file")
	f.StringVar(&opts.docs, "docs", dbdeploy.DefaultDocsFile, "Manual deployment guide to point to")
	f.StringVar(&opts.newline, "newline", "", "Normalise line endings before checksumming: LF, CR or CRLF")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	f.BoolVar(&opts.probe, "probe", false, "Check the REST endpoint with the service credential before deploying")
	f.StringVar(&opts.execute, "execute", "", `Deploy programmatically: "db" (DATABASE_URL) or "api" (management API)`)
	f.StringVar(&opts.driver, "driver", "pg", "Database driver for --execute=db: pg or sqlite3")
	f.StringVar(&opts.historyTable, "history-table", dbdeploy.DefaultHistoryTable, "Ledger table for --execute=db")
}

// ── deploy ────────────────────────────────────────────────────────────────────

func deployCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &deployOptions{}
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Summarise the migration and deploy it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), opts, in, out)
		},
	}
	addDeployFlags(cmd, opts)
	return cmd
}

func runDeploy(ctx context.Context, opts *deployOptions, in io.Reader, out io.Writer) error {
	d := dbdeploy.NewDeployer(dbdeploy.Config{
		EnvFile:       opts.envFile,
		MigrationFile: opts.migration,
		DocsFile:      opts.docs,
		Newline:       opts.newline,
		AssumeYes:     opts.yes,
		Probe:         opts.probe,
		Execute:       opts.execute,
		Driver:        opts.driver,
		HistoryTable:  opts.historyTable,
		OpenDB:        openDB,
	}, in, out)
	return d.Run(ctx)
}

// openDB opens the direct connection for --execute=db.
func openDB(driver, dsn string) (*sql.DB, error) {
	switch strings.ToLower(driver) {
	case "pg":
		connCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse db url: %w", err)
		}
		// The platform's connection pooler runs PgBouncer in transaction mode,
		// and a migration script is several statements in one Exec.
		connCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		slog.Debug("opening postgres connection",
			"host", connCfg.Host,
			"port", connCfg.Port,
			"database", connCfg.Database,
			"user", connCfg.User,
		)
		return stdlib.OpenDB(*connCfg), nil
	case "sqlite3":
		slog.Debug("opening sqlite database", "path", dsn)
		return sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("db driver '%s' not supported. Must be one of: sqlite3 or pg", driver)
	}
}

// ── list ──────────────────────────────────────────────────────────────────────

func listCmd(out io.Writer) *cobra.Command {
	var pattern, newline, target string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List migrations with statement counts and checksums",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			migs, err := dbdeploy.ListMigrations(pattern, newline)
			if err != nil {
				return fmt.Errorf("loading migrations: %w", err)
			}
			if len(migs) == 0 {
				fmt.Fprintf(out, "No migrations found matching %s\n", pattern)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tSTATEMENTS\tMD5\t")
			for _, m := range migs {
				annot := ""
				if filepath.Clean(m.Filename) == filepath.Clean(target) {
					annot = "<== deploy target"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", m.Version, m.Name, m.Summary().Valid, m.Md5, annot)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "supabase/migrations/*.sql", "Glob pattern for migration files")
	cmd.Flags().StringVar(&newline, "newline", "", "Normalise line endings before checksumming: LF, CR or CRLF")
	cmd.Flags().StringVarP(&target, "migration", "m", dbdeploy.DefaultMigrationFile, "Migration the deploy command targets")
	return cmd
}

// ── new ───────────────────────────────────────────────────────────────────────

func newCmd(out io.Writer) *cobra.Command {
	var dir, mode string
	cmd := &cobra.Command{
		Use:   "new <description>",
		Short: "Create a new empty migration file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := dbdeploy.CreateMigration(dir, strings.Join(args, " "), mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "📝 Created migration: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "supabase/migrations", "Directory to create the migration in")
	cmd.Flags().StringVar(&mode, "mode", "timestamp", `Version numbering: "timestamp", "date" or "int"`)
	return cmd
}

// ── helpers ───────────────────────────────────────────────────────────────────

// newLogger creates a stderr slog.Logger for the given level and format.
func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
