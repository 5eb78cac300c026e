package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"seotools/core"
	"seotools/db"
)

func newUsageCmd() *cobra.Command {
	var (
		since  string
		recent int
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show per-tool request statistics",
		Long: `Summarizes the tool_usage table written by the server.

Examples:
  seotools usage                  # all recorded requests
  seotools usage --since 24h      # last 24 hours
  seotools usage --since 7d       # last 7 days
  seotools usage --recent 20      # also list the 20 newest requests`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseSince(since, time.Now())
			if err != nil {
				return err
			}
			cfg, err := core.LoadConfig()
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DatabasePath)
			if err != nil {
				return core.ErrDatabaseUnavailable(cfg.DatabasePath, err)
			}
			defer database.Close()

			return printUsage(cmd.Context(), cmd.OutOrStdout(), db.NewUsageRepository(database, nil), from, recent)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "window to report: a duration (24h, 7d) or an RFC3339 time")
	cmd.Flags().IntVar(&recent, "recent", 0, "also list this many of the newest requests")
	return cmd
}

// parseSince accepts "", Go durations, whole days ("7d") or RFC3339.
func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or 7d, or an RFC3339 time", raw)
}

func printUsage(ctx context.Context, out io.Writer, repo *db.UsageRepository, since time.Time, recent int) error {
	summaries, err := repo.Summary(ctx, since)
	if err != nil {
		return err
	}

	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)

	label := "all time"
	if !since.IsZero() {
		label = "since " + since.Local().Format("2006-01-02 15:04")
	}
	title.Fprint(out, "Tool usage ")
	dim.Fprintf(out, "(%s)\n\n", label)

	if len(summaries) == 0 {
		dim.Fprintln(out, "No requests recorded for this period.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Tool", "Requests", "Errors", "Avg ms", "Last used"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	var total, failed int64
	for _, s := range summaries {
		total += s.Requests
		failed += s.Errors
		errs := humanize.Comma(s.Errors)
		if s.Errors > 0 {
			errs = color.RedString(errs)
		}
		table.Append([]string{
			s.Tool,
			humanize.Comma(s.Requests),
			errs,
			fmt.Sprintf("%.0f", s.AvgDurationMS),
			humanize.Time(s.LastUsed),
		})
	}
	table.SetFooter([]string{"Total", humanize.Comma(total), humanize.Comma(failed), "", ""})
	table.Render()

	if recent <= 0 {
		return nil
	}

	records, err := repo.Recent(ctx, recent)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	title.Fprintln(out, "Recent requests")
	fmt.Fprintln(out)

	list := tablewriter.NewWriter(out)
	list.SetHeader([]string{"Time", "Tool", "Status", "ms", "IP", "Request ID"})
	list.SetBorder(false)
	list.SetAutoWrapText(false)
	for _, rec := range records {
		status := strconv.Itoa(rec.StatusCode)
		if rec.StatusCode >= 400 {
			status = color.RedString(status)
		}
		list.Append([]string{
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Tool,
			status,
			strconv.FormatInt(rec.DurationMS, 10),
			rec.IPAddress,
			rec.RequestID,
		})
	}
	list.Render()
	return nil
}
