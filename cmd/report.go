package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/config"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/report"
)

var (
	reportOutput string
	reportJSON   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the visibility report from a completed audit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeReport); err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		snap, err := st.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		pc, rows, err := auditResults(snap)
		if err != nil {
			return err
		}

		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report.Build(pc.Brands, rows, cfg.Report.StripQuery))
		}

		out := cfg.Report.Output
		if reportOutput != "" {
			out = reportOutput
		}
		path, err := writeReport(out, pc, rows, cfg.Report.StripQuery)
		if err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", path), zap.Int("rows", len(rows)))
		return nil
	},
}

// auditResults returns the context and enriched audit of a finished run.
func auditResults(snap *checkpoint.Snapshot) (model.PipelineContext, []model.EnrichedAuditRow, error) {
	pc, ok := snap.Context.Get()
	if !ok {
		return model.PipelineContext{}, nil, eris.New("report: no context in checkpoint; run the audit first")
	}
	rows, ok := snap.EnrichedAudit.Get()
	if !ok {
		return model.PipelineContext{}, nil, eris.New("report: audit is not complete; run the audit to finish it")
	}
	return pc, rows, nil
}

func writeReport(path string, pc model.PipelineContext, rows []model.EnrichedAuditRow, stripQuery bool) (string, error) {
	if path == "" {
		path = "visibility.xlsx"
	}
	if err := report.WriteXLSX(path, pc, report.Build(pc.Brands, rows, stripQuery), rows); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "XLSX output path (default from config)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the summaries as JSON instead of writing XLSX")
	rootCmd.AddCommand(reportCmd)
}
