package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smart-qa/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts       shellOptions
		clearCache bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "smartqa",
		Short: "Summarize, question and extract facts from a document with an LLM",
		Long: `smartqa reads a document (or text typed at the prompt) and offers an
interactive menu: summarize it, ask questions answered only from its content,
or extract its explicit facts as JSON. Results are memoized for the session.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := app.BuildCLI(logLevel)
			if err != nil {
				return fmt.Errorf("failed to build dependencies: %w", err)
			}
			defer deps.Close()

			if clearCache {
				if err := deps.Assistant.ClearCache(ctx); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
				deps.Log.Info("cache cleared")
			}

			sh := newShell(deps.Assistant, deps.Log, opts, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "path to the source document (.txt, .md, .docx, .pdf)")
	cmd.Flags().StringVar(&opts.save, "save", "", "directory to save results into instead of printing them")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "clear cached responses before starting")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.SetContext(context.Background())
	return cmd
}
