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
	"github.com/purposenavigator/self-analyzation/internal/progress"
)

var analyzeUser string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run value analysis over a user's conversations",
	Long: `Walks every conversation of the given user that has reflection content
and computes its value analysis. Conversations whose summaries are unchanged
hit the cache and are skipped without a model call.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "selfanalyze"})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}

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
		svc := analysis.NewService(store, provider, cat, cfg.Model, logger)

		ctx := cmd.Context()
		convs, err := store.ListWithStreams(ctx, analyzeUser)
		if err != nil {
			return fmt.Errorf("listing conversations: %w", err)
		}
		if len(convs) == 0 {
			fmt.Printf("No analyzable conversations for user %s\n", analyzeUser)
			return nil
		}

		reporter := progress.NewReporter()
		reporter.Start(len(convs))
		failed := 0
		for i, conv := range convs {
			title := conv.Title
			if title == "" {
				title = conv.ID
			}
			reporter.Update(i+1, title)
			if _, err := svc.GetOrCompute(ctx, conv.ID); err != nil {
				failed++
				logger.Error("analysis failed", "conversation", conv.ID, "err", err)
			}
		}
		reporter.Finish()

		if failed > 0 {
			return fmt.Errorf("%d of %d conversations failed", failed, len(convs))
		}
		fmt.Printf("Analyzed %d conversations\n", len(convs))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "user id to analyze (required)")
	analyzeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(analyzeCmd)
}
