package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pattern]",
	Short: "Ingest documents matching a glob pattern",
	Long: `Converts every matched PDF, classifies its domain, extracts metadata,
and writes text chunks plus figure/table summaries into the per-domain
content stores. Interrupting with Ctrl-C stops before the next document.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("user", "", "owning user id (required)")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.ledger.Close()

	// Cancellation is cooperative: SIGINT stops the batch before the
	// next document, never mid-document.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := a.pipeline.Run(ctx, args[0], userID)
	if err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Printf("Ingested %d documents (%d skipped, %d failed): %d chunks, %d figures, %d tables\n",
		result.Ingested, result.Skipped, result.Failed,
		result.Chunks, result.Figures, result.Tables)
	return nil
}
