package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/salesradar/salesradar/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import [leads|clients|tickets] <file>",
	Short: "Import records from a CSV or XLSX file",
	Long: `Import leads, clients, or tickets from a spreadsheet. Column headers
are matched case-insensitively with spaces treated as underscores
("Last Contact Date" maps to last_contact_date). Rows that fail
validation are skipped and logged, not fatal.

Examples:
  salesradar import leads leads.xlsx
  salesradar import clients clients.csv
  salesradar import tickets tickets.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "import: migrate")
	}

	importer := ingest.NewImporter(st)

	var result ingest.Result
	switch args[0] {
	case "leads":
		result, err = importer.ImportLeads(ctx, args[1])
	case "clients":
		result, err = importer.ImportClients(ctx, args[1])
	case "tickets":
		result, err = importer.ImportTickets(ctx, args[1])
	default:
		return eris.Errorf("import: unknown target %q (want leads, clients, or tickets)", args[0])
	}
	if err != nil {
		return eris.Wrapf(err, "import: %s", args[0])
	}

	fmt.Printf("Imported %d %s (%d skipped)\n", result.Imported, args[0], result.Skipped)
	return nil
}
