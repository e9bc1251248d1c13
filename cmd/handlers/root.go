package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hookscope/internal/config"
	"hookscope/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hookscope",
		Short: "Score press release drafts against nine media hooks",
		Long: `hookscope evaluates a press release draft against nine media hooks,
grounded on the most liked recent PR TIMES releases in the same category.

Without a Gemini API key every analysis returns a clearly marked fallback
evaluation, so the commands keep working offline.

Examples:
  # Start the HTTP API
  hookscope serve --port 8000

  # Analyze a Markdown draft with category 5 as context
  hookscope analyze --file draft.md --title "新サービス開始" --category 5

  # Show the context window used for grounding
  hookscope context 5 --top-k 5

  # List stored analyses
  hookscope history`,
		Version:      "1.0.0",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .hookscope.yaml in . or $HOME)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewContextCmd())
	rootCmd.AddCommand(NewHistoryCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration and applies the logging settings.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if used := viperConfigFile(); used != "" {
		logger.Debug("Using config file", "path", used)
	}
}
