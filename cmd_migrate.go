package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seotools/core"
	"seotools/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the usage database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := core.LoadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateDown(cfg.DatabasePath, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DatabasePath)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back (-1 for all)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := core.LoadConfig()
				if err != nil {
					return err
				}
				// Open creates the directory and applies pending migrations.
				database, err := db.Open(cfg.DatabasePath)
				if err != nil {
					return core.ErrDatabaseUnavailable(cfg.DatabasePath, err)
				}
				if err := database.Close(); err != nil {
					return err
				}
				return printVersion(cmd, cfg.DatabasePath)
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := core.LoadConfig()
				if err != nil {
					return err
				}
				return printVersion(cmd, cfg.DatabasePath)
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, path string) error {
	version, dirty, err := db.MigrationVersion(path)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%s)\n", path, version, state)
	return nil
}
