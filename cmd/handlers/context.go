package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"hookscope/internal/analysis"
	"hookscope/internal/config"
	"hookscope/internal/core"
	"hookscope/internal/grounding"
	"hookscope/internal/report"
)

// NewContextCmd creates the context command
func NewContextCmd() *cobra.Command {
	var (
		windowDays int
		topK       int
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "context <category-id>",
		Short: "Show the grounding context for a category",
		Long: `Fetch the most liked recent releases of a category and print the
briefs that would be sent to the model.

Examples:
  hookscope context 5
  hookscope context 1 --window-days 14 --top-k 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := strconv.Atoi(args[0])
			if err != nil || categoryID < 1 {
				return fmt.Errorf("invalid category id %q", args[0])
			}
			return runContext(cmd.Context(), cmd.OutOrStdout(), categoryID, windowDays, topK, jsonOut)
		},
	}

	cmd.Flags().IntVar(&windowDays, "window-days", analysis.DefaultWindowDays, "look-back window in days")
	cmd.Flags().IntVar(&topK, "top-k", analysis.DefaultTopK, "number of releases")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")

	return cmd
}

func runContext(ctx context.Context, out io.Writer, categoryID, windowDays, topK int, jsonOut bool) error {
	if windowDays < 1 || windowDays > analysis.MaxWindowDays {
		return fmt.Errorf("--window-days must be between 1 and %d", analysis.MaxWindowDays)
	}
	if topK < 1 || topK > analysis.MaxTopK {
		return fmt.Errorf("--top-k must be between 1 and %d", analysis.MaxTopK)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := buildApp(ctx, cfg, wireOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	releases, err := a.context.Candidates(ctx, categoryID, windowDays, topK)
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}
	briefs := make([]core.ContextBrief, 0, len(releases))
	for _, r := range releases {
		briefs = append(briefs, grounding.Compact(r))
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(briefs)
	}

	from, to := a.context.DateRange(windowDays)
	fmt.Fprintf(out, "%s (%d)  %s .. %s\n\n", core.Categories[categoryID], categoryID, from, to)
	fmt.Fprintln(out, report.ContextTable(briefs, 0))
	return nil
}
