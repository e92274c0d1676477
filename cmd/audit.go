package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/cost"
	"github.com/sells-group/visibility-cli/internal/pipeline"
)

var (
	auditFresh  bool
	auditWizard string
	auditSample int
	auditReport bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run or resume the visibility audit",
	Long:  "Runs the five audit stages, resuming from the last checkpointed stage. Use --fresh to discard the checkpoint first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if auditWizard != "" {
			cfg.Pipeline.WizardPath = auditWizard
		}
		if cmd.Flags().Changed("sample") {
			cfg.Pipeline.SampleSize = auditSample
		}

		env, err := initAudit(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if auditFresh {
			if err := env.Store.Delete(ctx); err != nil {
				return eris.Wrap(err, "discard checkpoint")
			}
			zap.L().Info("checkpoint discarded")
		}

		result, err := env.Orchestrator.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "audit run")
		}

		formatCost(os.Stderr, env.Tracker.Entries())

		if auditReport {
			path, err := writeReport(cfg.Report.Output, result.Context, result.EnrichedAudit, cfg.Report.StripQuery)
			if err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", path))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summarizeRun(result, env.Tracker.Total()))
	},
}

type runSummary struct {
	RunID            string   `json:"run_id"`
	Brand            string   `json:"brand"`
	Resumed          []string `json:"resumed"`
	Computed         []string `json:"computed"`
	Keywords         int      `json:"keywords"`
	EnrichedKeywords int      `json:"enriched_keywords"`
	AuditRows        int      `json:"audit_rows"`
	CostUSD          float64  `json:"cost_usd"`
}

func summarizeRun(r *pipeline.Result, costUSD float64) runSummary {
	return runSummary{
		RunID:            r.RunID,
		Brand:            r.Context.BrandInfo.Name,
		Resumed:          nonNil(r.Resumed),
		Computed:         nonNil(r.Computed),
		Keywords:         len(r.KeywordRecords),
		EnrichedKeywords: len(r.EnrichedKeywords),
		AuditRows:        len(r.EnrichedAudit),
		CostUSD:          costUSD,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// formatCost writes the per-stage spend table.
func formatCost(w io.Writer, entries []cost.Entry) {
	if len(entries) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tPROVIDER\tCALLS\tUSD")
	var total float64
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\n", e.Stage, e.Provider, e.Calls, e.USD)
		total += e.USD
	}
	fmt.Fprintf(tw, "\t\t\t%.4f\n", total)
	_ = tw.Flush()
}

func init() {
	auditCmd.Flags().BoolVar(&auditFresh, "fresh", false, "discard the checkpoint and start over")
	auditCmd.Flags().StringVar(&auditWizard, "wizard", "", "import the context from a wizard export (JSON or YAML)")
	auditCmd.Flags().IntVar(&auditSample, "sample", 0, "enrich at most this many keywords (first computation only)")
	auditCmd.Flags().BoolVar(&auditReport, "report", false, "write the XLSX report when the audit completes")
	rootCmd.AddCommand(auditCmd)
}
