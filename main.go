package main

import (
	"os"

	"github.com/joho/godotenv"

	"scirag/cmd"
)

func main() {
	// Best effort: API keys may come from a local .env file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
