package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/purposenavigator/self-analyzation/internal/analysis"
	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/conversation"
	"github.com/purposenavigator/self-analyzation/internal/db"
	mcpserver "github.com/purposenavigator/self-analyzation/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing topic and values-profile tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Stdout carries the MCP protocol; everything else goes to stderr.
		logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "selfanalyze"})

		provider, err := createProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating provider: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "selfanalyze.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		cat := catalog.New()
		store := conversation.NewSQLiteStore(database)
		analysisSvc := analysis.NewService(store, provider, cat, cfg.Model, logger)

		mcpserver.Version = Version
		fmt.Fprintln(os.Stderr, "selfanalyze MCP server started on stdio")

		srv := mcpserver.NewServer(cat, analysisSvc)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
