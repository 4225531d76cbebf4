package main

import (
	"net/http"
	"os"

	"cardsync/config/database"
	"cardsync/pkg/logger"
	"cardsync/router"
	"cardsync/socket"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP and WebSocket server",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer() {
	db := database.Connect()
	defer db.Close()

	registry := socket.NewRegistry()
	hub := socket.NewHub(registry)
	go hub.Run()
	defer hub.Shutdown()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Sugar.Infof("cardsync listening on :%s", port)
	if err := http.ListenAndServe(":"+port, router.Setup(db, hub)); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
