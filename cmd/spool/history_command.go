package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"spool/internal/ledger"
	"spool/internal/services"
)

// historyView is the stable row shape emitted by spool history --json.
type historyView struct {
	RunID           string   `json:"run_id"`
	JobID           string   `json:"job_id"`
	Status          string   `json:"status"`
	FailedStage     string   `json:"failed_stage,omitempty"`
	FailedSlides    string   `json:"failed_slides,omitempty"`
	OutputPath      string   `json:"output_path,omitempty"`
	Quality         string   `json:"quality,omitempty"`
	SlideCount      int      `json:"slide_count"`
	TransitionCount int      `json:"transition_count"`
	DurationSeconds float64  `json:"duration_seconds"`
	GPU             string   `json:"gpu,omitempty"`
	CostUSD         *float64 `json:"cost_usd,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded render runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return services.Wrap(services.ErrConfiguration, "cli", "history",
					"history is disabled in the configuration", nil)
			}

			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				views := make([]historyView, 0, len(records))
				for _, rec := range records {
					views = append(views, newHistoryView(rec))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					shortID(rec.RunID),
					rec.JobID,
					historyStatus(rec),
					strconv.Itoa(rec.SlideCount),
					formatSeconds(rec.DurationSeconds),
					formatCost(rec.CostUSD),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Run", "Job", "Status", "Slides", "Duration", "Cost"},
				rows, 4, 5, 6))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 lists everything)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit records as JSON")

	return cmd
}

func newHistoryView(rec ledger.Record) historyView {
	return historyView{
		RunID:           rec.RunID,
		JobID:           rec.JobID,
		Status:          string(rec.Status),
		FailedStage:     rec.FailedStage,
		FailedSlides:    rec.FailedSlides,
		OutputPath:      rec.OutputPath,
		Quality:         rec.Quality,
		SlideCount:      rec.SlideCount,
		TransitionCount: rec.TransitionCount,
		DurationSeconds: rec.DurationSeconds,
		GPU:             rec.GPU,
		CostUSD:         rec.CostUSD,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// historyStatus renders the status column, folding the failed stage into
// failed rows so the table answers "where" without a second lookup.
func historyStatus(rec ledger.Record) string {
	status := titleize(string(rec.Status))
	if rec.Status == ledger.StatusFailed && rec.FailedStage != "" {
		status = fmt.Sprintf("%s (%s)", status, rec.FailedStage)
	}
	return status
}
