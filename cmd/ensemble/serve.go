package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmichie/ensemble/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ensemble pipeline over HTTP with SSE streaming",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	orch, err := buildOrchestrator()
	if err != nil {
		return err
	}

	return server.New(orch, slog.Default()).Run(viper.GetString("addr"))
}
