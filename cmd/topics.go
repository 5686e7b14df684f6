package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the available reflection topics",
	Run: func(cmd *cobra.Command, args []string) {
		cat := catalog.New()
		for _, t := range cat.Topics() {
			fmt.Printf("%2d. %-24s %s\n", t.ID, t.Name, t.Question)
		}
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
