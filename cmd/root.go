package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/config"
)

var cfg *config.Config

var (
	checkpointPath string
	runKey         string
)

var rootCmd = &cobra.Command{
	Use:   "visibility-cli",
	Short: "Brand visibility audit across AI answer engines",
	Long: `Audits how often a brand and its competitors appear in AI answer engines.

An audit runs five stages in order: context, keywordRecords, enrichedKeywords,
audit and enrichedAudit. Each completed stage is saved to the checkpoint before
the next one starts. Running audit again with the same checkpoint resumes after
the last completed stage and never recomputes a saved one; --fresh discards the
checkpoint first. status shows which stages are saved and report renders the
visibility tables from a finished checkpoint.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		applyStoreFlags(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		zap.L().Debug("checkpoint store selected",
			zap.String("backend", cfg.Store.Backend),
			zap.String("path", cfg.Store.Path),
			zap.String("run_key", cfg.Store.RunKey),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file to resume from (file backend; overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&runKey, "run-key", "", "run to resume in a database backend (overrides store.run_key)")
}

// applyStoreFlags lets the flags pick which checkpoint a command resumes.
func applyStoreFlags(cmd *cobra.Command, c *config.Config) {
	if f := cmd.Flags().Lookup("checkpoint"); f != nil && f.Changed {
		c.Store.Path = checkpointPath
	}
	if f := cmd.Flags().Lookup("run-key"); f != nil && f.Changed {
		c.Store.RunKey = runKey
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
