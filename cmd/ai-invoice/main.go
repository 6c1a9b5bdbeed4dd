package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/open-kbs/ai-invoice/internal/commands"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
