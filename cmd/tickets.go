package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Support ticket reporting",
}

var ticketsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Ticket counts by type and status, plus the busiest clients",
	RunE:  runTicketsStats,
}

func init() {
	ticketsStatsCmd.Flags().String("format", "table", "output format: table or json")

	ticketsCmd.AddCommand(ticketsStatsCmd)
	rootCmd.AddCommand(ticketsCmd)
}

func runTicketsStats(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("tickets: --format must be table or json (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "tickets: migrate")
	}

	stats, err := st.TicketStats(ctx)
	if err != nil {
		return eris.Wrap(err, "tickets: stats")
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printCountTable("By issue type", stats.ByType)
	printCountTable("By status", stats.ByStatus)

	if len(stats.TopClients) > 0 {
		fmt.Println("Busiest clients")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Company\tTickets")
		for _, c := range stats.TopClients {
			fmt.Fprintf(w, "%s\t%d\n", c.Company, c.Count)
		}
		w.Flush()
	}
	return nil
}

func printCountTable(title string, counts map[string]int) {
	fmt.Println(title)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
	}
	w.Flush()
	fmt.Println()
}
