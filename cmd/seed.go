package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/salesradar/salesradar/internal/seed"
)

var seedValue int64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data: weights, packs, leads, clients, tickets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "seed: migrate")
		}

		summary, err := seed.New(st, seedValue).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "seed: run")
		}

		fmt.Printf("Seeded %d weights, %d packs, %d leads, %d clients, %d tickets, %d installations\n",
			summary.Weights, summary.Packs, summary.Leads, summary.Clients,
			summary.Tickets, summary.Installations)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed for reproducible data")
	rootCmd.AddCommand(seedCmd)
}
