package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question over the ingested corpus",
	Long: `Classifies the question's domain, retrieves the most relevant text
chunks and media via metadata-filtered and semantic search, and composes
a grounded answer with citations to the best figures and tables.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("user", "", "owning user id (required)")
	queryCmd.Flags().Int("top-k", 0, "number of text chunks to retrieve (default from config)")
	queryCmd.Flags().Bool("json", false, "output the full result as JSON")
	_ = queryCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	topK, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if topK <= 0 {
		topK = cfg.TopK
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.ledger.Close()

	resp, err := a.engine.Query(context.Background(), args[0], userID, topK)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if verbose && resp.Domain != "" {
		fmt.Printf("Domain: %s\n\n", resp.Domain)
	}
	fmt.Println(resp.Answer)
	for _, m := range resp.Media {
		fmt.Printf("[%s] %s\n", m.Kind, m.Path)
	}
	return nil
}
