package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"scirag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .scirag.yml configuration interactively",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err == nil {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists, overwrite", cfgFile),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			return nil
		}
	}

	cfg := config.DefaultConfig()

	providerSelect := promptui.Select{
		Label: "LLM provider",
		Items: []string{"openai", "ollama"},
	}
	_, provider, err := providerSelect.Run()
	if err != nil {
		return err
	}
	cfg.Provider = config.ProviderType(provider)
	cfg.EmbeddingProvider = cfg.Provider

	model := promptui.Prompt{Label: "Chat model", Default: cfg.Model}
	if cfg.Model, err = model.Run(); err != nil {
		return err
	}

	dataDir := promptui.Prompt{Label: "Data directory", Default: cfg.DataDir}
	if cfg.DataDir, err = dataDir.Run(); err != nil {
		return err
	}

	doclingURL := promptui.Prompt{Label: "docling-serve URL", Default: cfg.DoclingURL}
	if cfg.DoclingURL, err = doclingURL.Run(); err != nil {
		return err
	}

	port := promptui.Prompt{
		Label:   "HTTP API port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := port.Run()
	if err != nil {
		return err
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(cfgFile); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", cfgFile)
	return nil
}
