package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-scraper/internal/config"
	"github.com/jonathan/job-scraper/internal/db"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the locations, companies and job_reqs tables",
	Long:  "Applies the relational mirror schema to a PostgreSQL database. Existing tables are left untouched.",
	RunE:  runInitDB,
}

var (
	initDBURL   string
	initDBPrint bool
)

func init() {
	initDBCmd.Flags().StringVar(&initDBURL, "database-url", "", "PostgreSQL URL (overrides DATABASE_URL env var)")
	initDBCmd.Flags().BoolVar(&initDBPrint, "print", false, "Print the schema instead of applying it")

	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	if initDBPrint {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), db.Schema())
		return nil
	}

	databaseURL := initDBURL
	if databaseURL == "" {
		databaseURL = os.Getenv(config.EnvDatabaseURL)
	}
	if databaseURL == "" {
		return fmt.Errorf("database URL required: set --database-url flag or %s environment variable", config.EnvDatabaseURL)
	}

	ctx := cmd.Context()
	store, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ApplySchema(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Schema applied: locations, companies, job_reqs")
	return nil
}
