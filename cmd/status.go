package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/config"
)

var statusJSON bool

// stageInfo describes one checkpoint slot.
type stageInfo struct {
	Stage   string `json:"stage"`
	Present bool   `json:"present"`
	Items   int    `json:"items"`
}

// stageStatus reports every stage in pipeline order.
func stageStatus(snap *checkpoint.Snapshot) []stageInfo {
	count := map[string]func() (int, bool){
		checkpoint.StageContext: func() (int, bool) {
			_, ok := snap.Context.Get()
			if !ok {
				return 0, false
			}
			return 1, true
		},
		checkpoint.StageKeywordRecords:   lenOf(snap.KeywordRecords),
		checkpoint.StageEnrichedKeywords: lenOf(snap.EnrichedKeywords),
		checkpoint.StageAudit:            lenOf(snap.Audit),
		checkpoint.StageEnrichedAudit:    lenOf(snap.EnrichedAudit),
	}
	out := make([]stageInfo, 0, len(checkpoint.StageNames))
	for _, name := range checkpoint.StageNames {
		n, ok := count[name]()
		out = append(out, stageInfo{Stage: name, Present: ok, Items: n})
	}
	return out
}

func lenOf[T any](s checkpoint.Stage[[]T]) func() (int, bool) {
	return func() (int, bool) {
		v, ok := s.Get()
		return len(v), ok
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which audit stages are checkpointed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeStatus); err != nil {
			return err
		}

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		snap, err := st.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		info := stageStatus(snap)
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		formatStatus(os.Stdout, info)
		return nil
	},
}

func formatStatus(w io.Writer, info []stageInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tSTATUS\tITEMS")
	for _, s := range info {
		status, items := "pending", "-"
		if s.Present {
			status, items = "done", fmt.Sprint(s.Items)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Stage, status, items)
	}
	_ = tw.Flush()
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(statusCmd)
}
