package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hookscope/internal/config"
	"hookscope/internal/report"
	"hookscope/internal/store"
)

type historyFlags struct {
	list    store.ListOptions
	show    string
	remove  string
	jsonOut bool
}

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	var flags historyFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		Long: `List analyses recorded in the local history store, newest first.

Examples:
  hookscope history --limit 10
  hookscope history --degraded
  hookscope history --show <request-id>
  hookscope history --delete <request-id>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().IntVar(&flags.list.Limit, "limit", 20, "maximum number of entries")
	cmd.Flags().IntVar(&flags.list.Offset, "offset", 0, "entries to skip")
	cmd.Flags().BoolVar(&flags.list.DegradedOnly, "degraded", false, "only fallback evaluations")
	cmd.Flags().StringVar(&flags.show, "show", "", "print the full report for one analysis")
	cmd.Flags().StringVar(&flags.remove, "delete", "", "remove one analysis from the history")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "print JSON")
	cmd.MarkFlagsMutuallyExclusive("show", "delete")

	return cmd
}

func runHistory(ctx context.Context, out io.Writer, flags historyFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Store.Enabled {
		return fmt.Errorf("history store is disabled (store.enabled=false)")
	}

	st, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer st.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if flags.remove != "" {
		if err := st.DeleteAnalysis(ctx, flags.remove); err != nil {
			return fmt.Errorf("failed to delete analysis %s: %w", flags.remove, err)
		}
		fmt.Fprintf(out, "Deleted analysis %s\n", flags.remove)
		return nil
	}

	if flags.show != "" {
		resp, err := st.GetAnalysis(ctx, flags.show)
		if err != nil {
			return fmt.Errorf("failed to load analysis %s: %w", flags.show, err)
		}
		if flags.jsonOut {
			return enc.Encode(resp)
		}
		fmt.Fprintln(out, report.Render(resp, 0))
		return nil
	}

	items, err := st.ListAnalyses(ctx, flags.list)
	if err != nil {
		return err
	}
	if flags.jsonOut {
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No analyses recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tANALYZED\tSCORE\tMODEL\tRAG\tTITLE")
	for _, it := range items {
		score := fmt.Sprintf("%.1f", it.TotalScore)
		if it.Degraded {
			score += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			it.ID, it.AnalyzedAt.Local().Format("2006-01-02 15:04"), score, it.AIModel, it.RAGContextCount, it.Title)
	}
	return tw.Flush()
}
