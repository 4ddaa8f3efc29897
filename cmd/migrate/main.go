package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"jobsearch.app/internal/migrate"
)

var dsn string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withManager opens the database for the duration of fn.
func withManager(fn func(*migrate.Manager) error) error {
	if dsn == "" {
		return fmt.Errorf("missing DSN: provide via --dsn or JOBBOARD_PG_DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return fn(migrate.NewManager(db))
}

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the jobsearch database schema",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *migrate.Manager) error {
			if err := m.Up(); err != nil {
				return err
			}
			st, err := m.Status()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [n]",
	Short: "Roll back n migrations, or all of them when n is omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 0
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				return fmt.Errorf("n must be a positive integer, got %q", args[0])
			}
			n = v
		}
		return withManager(func(m *migrate.Manager) error { return m.Down(n) })
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *migrate.Manager) error {
			st, err := m.Status()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st)
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations, clearing the dirty flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version must be an integer, got %q", args[0])
		}
		return withManager(func(m *migrate.Manager) error { return m.Force(v) })
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("JOBBOARD_PG_DSN"), "PostgreSQL DSN")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd, forceCmd)
}
