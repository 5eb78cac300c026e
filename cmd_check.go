package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"seotools/api"
	"seotools/core"
	"seotools/db"
	"seotools/imaging"
	"seotools/ocrprocessor"
)

type checkStatus int

const (
	checkPassed checkStatus = iota
	checkWarning
	checkFailed
	checkSkipped
)

type checkResult struct {
	name    string
	status  checkStatus
	message string
	err     error
}

func newCheckCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration, database and collaborators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			color.New(color.FgCyan, color.Bold).Fprintf(out, "\n━━━ seotools %s ━━━\n\n", core.Version)

			start := time.Now()
			cfg, err := core.LoadConfig()
			if err != nil {
				printCheck(out, checkResult{name: "Configuration", status: checkFailed, err: err})
				return err
			}
			printCheck(out, checkResult{name: "Configuration", status: checkPassed, message: cfg.Addr()})

			results := runChecks(cmd.Context(), cfg, serverURL)
			failed := 0
			for _, r := range results {
				printCheck(out, r)
				if r.status == checkFailed {
					failed++
				}
			}

			fmt.Fprintln(out)
			passed := len(results) + 1 - failed
			if failed > 0 {
				color.New(color.FgRed, color.Bold).Fprintf(out, "━━━ Check Failed ")
				color.New(color.FgHiBlack).Fprintf(out, "(%d passed, %d failed)\n\n", passed, failed)
				return fmt.Errorf("%d checks failed", failed)
			}
			color.New(color.FgGreen, color.Bold).Fprintf(out, "━━━ Check Passed ")
			color.New(color.FgHiBlack).Fprintf(out, "(%d checks in %v)\n\n", passed, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "url", "", "also check /health on a running server, e.g. http://localhost:5000")
	return cmd
}

// runChecks validates everything serve would touch, without listening.
func runChecks(ctx context.Context, cfg *core.Config, serverURL string) []checkResult {
	results := []checkResult{
		checkDatabase(ctx, cfg),
		checkOutputDir(cfg),
		checkRewriter(cfg),
		checkOCR(cfg),
		checkDomains(cfg),
		checkAdmin(cfg),
	}
	if serverURL != "" {
		r := checkResult{name: "Running server", status: checkPassed, message: serverURL}
		client := core.NewHTTPClient(5 * time.Second)
		if err := healthz(ctx, client, strings.TrimSuffix(serverURL, "/")); err != nil {
			r.status, r.err = checkFailed, err
		}
		results = append(results, r)
	}
	return results
}

func checkDatabase(ctx context.Context, cfg *core.Config) checkResult {
	r := checkResult{name: "Database"}
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		r.status, r.err = checkFailed, err
		return r
	}
	defer database.Close()

	if err := database.Ping(ctx); err != nil {
		r.status, r.err = checkFailed, err
		return r
	}
	version, dirty, err := db.MigrationVersion(cfg.DatabasePath)
	if err != nil {
		r.status, r.err = checkFailed, err
		return r
	}
	r.message = fmt.Sprintf("%s (schema v%d)", cfg.DatabasePath, version)
	if dirty {
		r.status = checkFailed
		r.err = fmt.Errorf("schema version %d is dirty; run migrate down then up", version)
	}
	return r
}

func checkOutputDir(cfg *core.Config) checkResult {
	r := checkResult{name: "Output directory", message: cfg.OutputDir}
	store, err := imaging.NewStore(cfg.OutputDir, cfg.PublicBaseURL)
	if err != nil {
		r.status, r.err = checkFailed, err
		return r
	}
	scratch, err := os.CreateTemp(store.Dir(), imaging.TempPrefix+"check*")
	if err != nil {
		r.status, r.err = checkFailed, fmt.Errorf("not writable: %w", err)
		return r
	}
	scratch.Close()
	os.Remove(scratch.Name())
	return r
}

func checkRewriter(cfg *core.Config) checkResult {
	r := checkResult{name: "Paraphrase / rewrite"}
	if !cfg.RewriteEnabled() {
		r.status, r.message = checkWarning, "no LLM configured, using fixed prefixes"
		return r
	}
	endpoint := cfg.RewriteLLMURL
	if endpoint == "" {
		endpoint = "OpenAI"
	}
	r.message = fmt.Sprintf("%s, model %s", endpoint, cfg.RewriteModel)
	return r
}

func checkOCR(cfg *core.Config) checkResult {
	r := checkResult{name: "Image to text"}
	if cfg.GoogleVisionAPIKey == "" {
		r.status, r.message = checkWarning, "no GOOGLE_VISION_API_KEY, returning sample text"
		return r
	}
	if err := ocrprocessor.ValidateGoogleAPIKey(cfg.GoogleVisionAPIKey); err != nil {
		r.status, r.err = checkFailed, err
		return r
	}
	r.message = "Google Vision " + ocrprocessor.MaskAPIKey(cfg.GoogleVisionAPIKey)
	return r
}

func checkDomains(cfg *core.Config) checkResult {
	r := checkResult{name: "Domain lookups"}
	if cfg.DomainProvider == "static" {
		r.status, r.message = checkWarning, "static placeholder data"
		return r
	}
	r.message = "DNS + RDAP " + cfg.RDAPURL
	return r
}

func checkAdmin(cfg *core.Config) checkResult {
	r := checkResult{name: "Admin usage report"}
	hash, err := adminHash(cfg)
	switch {
	case err != nil:
		r.status, r.err = checkFailed, err
	case hash == "":
		r.status, r.message = checkSkipped, "disabled"
	default:
		if err := api.ValidateHashStrength(hash); err != nil {
			r.status, r.err = checkFailed, err
		}
	}
	return r
}

func printCheck(out io.Writer, r checkResult) {
	var icon string
	var clr *color.Color
	switch r.status {
	case checkPassed:
		icon, clr = "✓", color.New(color.FgGreen)
	case checkFailed:
		icon, clr = "✗", color.New(color.FgRed)
	case checkWarning:
		icon, clr = "!", color.New(color.FgYellow)
	default:
		icon, clr = "○", color.New(color.FgHiBlack)
	}

	clr.Fprintf(out, "  %s %s", icon, r.name)
	if r.message != "" {
		color.New(color.FgHiBlack).Fprintf(out, " - %s", r.message)
	}
	fmt.Fprintln(out)
	if r.status == checkFailed && r.err != nil {
		color.New(color.FgRed).Fprintf(out, "    └─ %s\n", r.err.Error())
	}
}
