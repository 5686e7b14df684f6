package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/purposenavigator/self-analyzation/internal/analysis"
	"github.com/purposenavigator/self-analyzation/internal/catalog"
	"github.com/purposenavigator/self-analyzation/internal/conversation"
	"github.com/purposenavigator/self-analyzation/internal/db"
	"github.com/purposenavigator/self-analyzation/internal/searchindex"
	"github.com/purposenavigator/self-analyzation/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reflection HTTP server",
	Long:  `Starts the selfanalyze server with the conversation, analysis and search APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments set the environment directly.
		_ = godotenv.Load()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "selfanalyze"})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}

		provider, err := createProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating provider: %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(filepath.Join(cfg.DataDir, "selfanalyze.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		cat := catalog.New()
		store := conversation.NewSQLiteStore(database)

		// The search index is optional: without embedding credentials the
		// server still runs, minus the related-conversations API.
		var index *searchindex.Index
		if embedder, err := createEmbedderFromConfig(cfg); err != nil {
			logger.Warn("search index disabled", "err", err)
		} else {
			index, err = searchindex.NewIndex(embedder)
			if err != nil {
				return fmt.Errorf("creating search index: %w", err)
			}
			if err := index.Load(cfg.DataDir); err != nil {
				logger.Warn("starting with an empty search index", "err", err)
			}
		}

		engineCfg := conversation.EngineConfig{
			Model:        cfg.Model,
			TitleModel:   cfg.TitleModel,
			StrictResume: cfg.StrictResume,
			Logger:       logger,
		}
		if index != nil {
			engineCfg.Indexer = index
		}
		engine := conversation.NewEngine(store, provider, cat, engineCfg)
		analysisSvc := analysis.NewService(store, provider, cat, cfg.Model, logger)

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: true,
		}, database, logger)

		conversation.RegisterRoutes(srv.Router(), engine, cat)
		analysis.RegisterRoutes(srv.Router(), analysisSvc)
		if index != nil {
			searchindex.RegisterRoutes(srv.Router(), index, store, logger)
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			logger.Info("shutting down")
			if index != nil {
				if err := index.Persist(cfg.DataDir); err != nil {
					logger.Error("persisting search index failed", "err", err)
				}
			}
			srv.Shutdown(context.Background())
		}()

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured HTTP port")
	rootCmd.AddCommand(serveCmd)
}
