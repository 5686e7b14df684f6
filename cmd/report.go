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
	"github.com/purposenavigator/self-analyzation/internal/report"
)

var (
	reportUser string
	reportOut  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a values report for a user",
	Long: `Aggregates the cached analyses of a user's conversations into a labeled
values profile and writes it as Markdown, or as a standalone HTML page when
the output path ends in .html.`,
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

		profile, err := svc.UserProfile(cmd.Context(), reportUser)
		if err != nil {
			return fmt.Errorf("building profile: %w", err)
		}

		rep := report.New(reportUser, profile)
		if reportOut == "" {
			fmt.Print(rep.Markdown())
			return nil
		}
		if err := rep.WriteFile(reportOut); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportOut)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportUser, "user", "", "user id to report on (required)")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (.md or .html); stdout when omitted")
	reportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(reportCmd)
}
