package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"scirag/internal/classifier"
	"scirag/internal/converter"
	"scirag/internal/domain"
	"scirag/internal/llm"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text-or-path]",
	Short: "Classify raw text or a document into a domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := domain.Builtin(cfg.DataDir)
	if err != nil {
		return err
	}
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.BaseURL)
	if err != nil {
		return err
	}

	clf := classifier.New(llm.NewRetryProvider(provider, cfg.Retries), cfg.Model,
		registry, converter.NewDoclingClient(cfg.DoclingURL))

	name, ok, err := clf.Classify(context.Background(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No domain found")
		return nil
	}
	fmt.Println(name)
	return nil
}
