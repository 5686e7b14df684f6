package cmd

import (
	"github.com/spf13/cobra"

	"github.com/purposenavigator/self-analyzation/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize selfanalyze configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure selfanalyze and generates a .selfanalyze.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
