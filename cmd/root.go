package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salesradar/salesradar/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "salesradar",
	Short: "Lead and client scoring engine for Tally channel partners",
	Long:  "Scores leads and clients against configurable weight tables, recommends automation packs, and rolls results up by state and city.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
