// SPDX-License-Identifier: MIT

// Command dbdeploy walks an operator through deploying a SQL migration to a
// hosted Supabase project.
//
// # Install
//
//	go install github.com/sitebridge/dbdeploy/cmd/dbdeploy@latest
//
// # Synopsis
//
//	dbdeploy [command] [flags]
//
// # Commands
//
//	deploy           Summarise the migration and deploy it (default when no command is given).
//	list             List migrations with statement counts and checksums.
//	new <desc>       Scaffold an empty migration file labelled *desc*.
//
// # Deploy flags
//
//	--env-file string       KEY=VALUE settings file (default ".env").
//	-m, --migration string  Migration SQL file (default
//	                        "supabase/migrations/20260103_stripe_elements_extended_subscriptions.sql").
//	--docs string           Guide named in the output (default "DATABASE_DEPLOYMENT_GUIDE.md").
//	-y, --yes               Skip the confirmation prompt.
//	--probe                 Check the REST endpoint with the service credential.
//	--execute string        "db" to run over DATABASE_URL, "api" for the management API.
//	--driver string         Driver for --execute=db: "pg" or "sqlite3" (default "pg").
//	--history-table string  Ledger table for --execute=db (default "dbdeploy_history").
//	--newline string        Normalise line endings before checksumming: LF, CR or CRLF.
//
// # Global flags
//
//	--log-level string   debug, info, warn or error (default "warn").
//	--log-format string  text or json (default "text").
//	--version            Print the dbdeploy version.
//
// # Environment file
//
//	VITE_SUPABASE_URL          Project URL (required).
//	SUPABASE_SERVICE_ROLE_KEY  Service credential (required).
//	SUPABASE_PROJECT_REF       Project ref when it cannot be read from the URL.
//	SUPABASE_ACCESS_TOKEN      Management API token for --execute=api.
//	DATABASE_URL               Connection string for --execute=db.
//
// Example:
//
//	dbdeploy --yes --execute db -m supabase/migrations/20260103_init.sql
//
// # Exit codes
//
//	0  success, or the operator declined
//	1  missing env file, missing settings, missing migration, or a failed deployment
package main
