package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/migranthealth/tbdash/internal/domain/surveillance"
	"github.com/migranthealth/tbdash/internal/platform/db"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print dashboard metrics and distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			recent, _ := cmd.Flags().GetInt("recent")
			asJSON, _ := cmd.Flags().GetBool("json")
			if err := checkRecentFlag(recent, cmd.Flags().Changed("recent")); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Keep stdout clean for the report itself.
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			store, pool, err := openRoster(context.Background(), cfg, logger)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			rep := surveillance.NewService(store, cfg.RecentLimit).Dashboard(recent)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			renderSummary(os.Stdout, rep)
			return nil
		},
	}
	cmd.Flags().Int("recent", 0, "Rows in the recent patients table (default: RECENT_LIMIT)")
	cmd.Flags().Bool("json", false, "Print the full report as JSON")
	return cmd
}

// checkRecentFlag rejects an explicit --recent below 1. An unset flag means
// RECENT_LIMIT.
func checkRecentFlag(recent int, set bool) error {
	if set && recent < 1 {
		return fmt.Errorf("--recent must be a positive integer, got %d", recent)
	}
	return nil
}

func renderSummary(w io.Writer, rep *surveillance.Report) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "TB surveillance summary (%s, loaded %s)\n\n", rep.Source, rep.LoadedAt.Format("2006-01-02 15:04"))
	p.Fprintf(w, "  %-20s %8d\n", "Total patients", rep.Metrics.TotalPatients)
	p.Fprintf(w, "  %-20s %8d\n", "Cured", rep.Metrics.Cured)
	p.Fprintf(w, "  %-20s %8d\n", "On treatment", rep.Metrics.OnTreatment)
	p.Fprintf(w, "  %-20s %8d\n", "Drug resistant", rep.Metrics.DrugResistant)

	total := rep.Metrics.TotalPatients
	renderCounts(p, w, "TB type", rep.TBTypes, total)
	renderCounts(p, w, "Drug resistance", rep.DrugResistance, total)
	renderCounts(p, w, "Treatment outcome", rep.TreatmentOutcomes, total)
	renderCounts(p, w, "Region", rep.Regions, total)

	p.Fprintf(w, "\nCases by month\n")
	for _, m := range rep.CasesByMonth {
		p.Fprintf(w, "  %-20s %8d\n", m.Label, m.Count)
	}
	if rep.Excluded.CasesByMonth > 0 {
		p.Fprintf(w, "  (%d record(s) without a usable diagnosis date)\n", rep.Excluded.CasesByMonth)
	}

	p.Fprintf(w, "\nRecent patients\n")
	for _, r := range rep.RecentPatients {
		p.Fprintf(w, "  %-12s %-24s %-12s %s\n", r.DiagnosisDate, r.Name, r.ID, r.OutcomeStatus)
	}

	if rep.DataIssues > 0 {
		p.Fprintf(w, "\n%d data issue(s) found at load\n", rep.DataIssues)
	}
}

func renderCounts(p *message.Printer, w io.Writer, title string, counts []surveillance.CategoryCount, total int) {
	p.Fprintf(w, "\n%s\n", title)
	for _, c := range counts {
		share := 0.0
		if total > 0 {
			share = float64(c.Count) * 100 / float64(total)
		}
		p.Fprintf(w, "  %-20s %8d  %5.1f%%\n", c.Label, c.Count, share)
	}
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
