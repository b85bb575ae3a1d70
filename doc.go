// SPDX-License-Identifier: MIT

// Package dbdeploy provides a small deployment helper for SQL migrations
// targeting a hosted Postgres platform (Supabase).  It reads a local *.env*
// file, loads a migration file, summarises its statements and walks the
// operator through deploying it.
//
// By default nothing leaves the machine: after confirmation the helper
// prints the SQL editor URL and the manual steps.  Programmatic paths are
// opt-in.
//
// # Quick start
//
//	d := dbdeploy.NewDeployer(dbdeploy.Config{
//	    EnvFile:       ".env",
//	    MigrationFile: "supabase/migrations/20260103_init.sql",
//	}, os.Stdin, os.Stdout)
//	if err := d.Run(context.Background()); err != nil {
//	    fmt.Fprintln(os.Stderr, "❌ Error:", err)
//	    os.Exit(1)
//	}
//
// # Environment file
//
// One KEY=VALUE per line; blank lines and lines starting with # are
// ignored.  Two keys are required:
//
//   - VITE_SUPABASE_URL         : project base URL
//   - SUPABASE_SERVICE_ROLE_KEY : service credential
//
// Optional keys: SUPABASE_PROJECT_REF, SUPABASE_ACCESS_TOKEN,
// SUPABASE_API_URL, SUPABASE_DASHBOARD_URL, DATABASE_URL.
//
// # Statements
//
// SplitStatements cuts the migration at lines ending in a semicolon.  The
// heuristic ignores string literals, comments and function bodies, so the
// result is only fit for display counts.
//
// # Programmatic deployment
//
// Config.Probe checks the REST endpoint with the service credential.
// Config.Execute selects how the migration is applied:
//
//   - ""   : print manual instructions only (default)
//   - "db" : run the script over DATABASE_URL and record it in a ledger table
//   - "api": send the script to the management API query endpoint
//
// # Exit codes
//
// The library returns errors; the CLI exits 1 on any of them and 0 on
// success or when the operator declines.
package dbdeploy
