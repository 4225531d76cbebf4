package main

import (
	"os"

	"cardsync/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardsync",
	Short: "Collaborative daily-card backend",
	Long: `cardsync serves the daily-card collaboration backend: the live
WebSocket room channel, the permission-gated save endpoint, and the
grant management API.`,
}

func main() {
	// Missing .env just means the OS environment is used directly.
	_ = godotenv.Load()
	logger.Init()
	defer logger.Log.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
