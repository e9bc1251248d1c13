package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hookscope/internal/config"
	"hookscope/internal/core"
	"hookscope/internal/logger"
	"hookscope/internal/render"
	"hookscope/internal/report"
	"hookscope/internal/tui"
)

type analyzeFlags struct {
	file       string
	title      string
	persona    string
	imageURL   string
	category   int
	windowDays int
	topK       int
	jsonOut    bool
	interact   bool
	noStore    bool
	outputDir  string
}

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Evaluate a press release draft",
		Long: `Evaluate a Markdown or HTML press release draft against the nine media hooks.

The draft is read from --file, or from stdin when --file is "-" or omitted.
When --title is not given, the first Markdown heading is used.

Examples:
  hookscope analyze --file draft.md --category 5
  cat draft.md | hookscope analyze --title "新サービス" --json
  hookscope analyze --file draft.md --tui
  hookscope analyze --file draft.md --output-dir reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var category *int
			if cmd.Flags().Changed("category") {
				category = &f.category
			}
			return runAnalyze(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), f, category)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "-", "draft file (Markdown or HTML), - for stdin")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "draft title (default: first heading)")
	cmd.Flags().StringVar(&f.persona, "persona", "", "target reader persona")
	cmd.Flags().StringVar(&f.imageURL, "image", "", "top image URL")
	cmd.Flags().IntVarP(&f.category, "category", "c", 0, "category id used for grounding context")
	cmd.Flags().IntVar(&f.windowDays, "window-days", 0, "context window in days (default 30)")
	cmd.Flags().IntVar(&f.topK, "top-k", 0, "number of context releases (default 12)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the raw JSON response")
	cmd.Flags().BoolVar(&f.interact, "tui", false, "browse the result interactively")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "do not record the analysis in history")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "also write a Markdown report into this directory")

	return cmd
}

func runAnalyze(ctx context.Context, stdin io.Reader, out io.Writer, f analyzeFlags, category *int) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	body, err := readDraft(stdin, f.file)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(f.title)
	if title == "" {
		title = firstHeading(body)
	}

	req := core.AnalysisRequest{
		Title:             title,
		ContentMarkdown:   body,
		ContextCategoryID: category,
		ContextWindowDays: f.windowDays,
		ContextTopK:       f.topK,
	}
	if f.persona != "" {
		req.Metadata = &core.DraftMetadata{Persona: f.persona}
	}
	if f.imageURL != "" {
		req.TopImage = &core.ImageData{URL: f.imageURL}
	}

	a, err := buildApp(ctx, cfg, wireOptions{withStore: !f.noStore})
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.service.Analyze(ctx, req)
	if err != nil {
		return err
	}

	if f.outputDir != "" {
		path, err := render.RenderMarkdownReport(req.Title, resp, f.outputDir)
		if err != nil {
			return err
		}
		logger.Info("Markdown report written", "path", path)
	}

	switch {
	case f.jsonOut:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(resp)
	case f.interact:
		return tui.Run(resp)
	default:
		fmt.Fprintln(out, report.Render(resp, 0))
		return nil
	}
}

func readDraft(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return "", fmt.Errorf("failed to read draft: %w", err)
	}
	return string(data), nil
}

// firstHeading returns the text of the first Markdown heading, or "".
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
