// Command seotools serves the SEO and text tools API and manages its
// usage database.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"seotools/core"
	"seotools/logging"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and maps the outcome to a process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if code := core.GetErrorCode(err); code != "" {
			fmt.Fprintf(stderr, "Error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return core.ExitCodeFor(err)
	}
	return core.ExitCodeSuccess
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "seotools",
		Short: "SEO and text tools HTTP API",
		Long: `seotools serves the /api/tools endpoints: text metrics, keyword density,
meta tags, case conversion, hashing, image processing, OCR and domain lookups.

Configuration comes from the environment, optionally loaded from a .env file.
Running without a subcommand starts the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUsageCmd(),
		newCheckCmd(),
		newServiceCmd(),
		newVersionCmd(),
	)
	return root
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing default file is fine; a missing file the
// user asked for is not.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return core.ErrEnvFileMissing(path)
			}
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *core.Config) (*logging.Logger, error) {
	return logging.NewLogger(logging.Options{
		Level:       logging.ParseLogLevel(cfg.LogLevel, logging.InfoLevel),
		Development: cfg.DevMode,
		FilePath:    cfg.LogFile,
	})
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := core.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return serve(cmd.Context(), cfg, logger, true)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "seotools %s\n", core.GetVersionInfo())
			return nil
		},
	}
}
