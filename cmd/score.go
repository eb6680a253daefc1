package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/ranker"
)

var scoreCmd = &cobra.Command{
	Use:   "score [leads|clients]",
	Short: "Score leads or clients and print a ranked list",
	Long: `Score leads or clients against the configured weight table.

Leads are ranked by priority score (sector, size, source, interest,
recency). Clients are ranked by upsell opportunity and annotated with
pack recommendations and support risk.

Examples:
  salesradar score leads --limit 10
  salesradar score leads --status qualified --min-score 60 --save
  salesradar score clients --sector manufacturing --format csv --output clients.csv
  salesradar score clients --risk-flag TRAINING_NEEDED`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("status", "", "restrict leads to one pipeline status")
	f.String("sector", "", "restrict to one sector")
	f.String("state", "", "restrict to one state")
	f.String("risk-flag", "", "restrict clients to one risk flag (e.g. TRAINING_NEEDED)")
	f.Float64("min-score", 0, "minimum score threshold")
	f.Int("limit", 0, "maximum number of results (0=all)")
	f.Bool("save", false, "record each score in the history table")
	f.String("weights", "", "YAML file of weight overrides")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table, csv, or json")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" && format != "json" {
		return eris.Errorf("score: --format must be table, csv, or json (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "score: migrate")
	}

	weightsFile, _ := cmd.Flags().GetString("weights")
	r, err := newRanker(st, weightsFile)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	limit, _ := cmd.Flags().GetInt("limit")
	save, _ := cmd.Flags().GetBool("save")
	sector, _ := cmd.Flags().GetString("sector")
	state, _ := cmd.Flags().GetString("state")

	log := zap.L().With(zap.String("command", "score"))

	switch args[0] {
	case "leads":
		status, _ := cmd.Flags().GetString("status")
		opts := ranker.LeadRunOptions{
			Sector:   model.Sector(sector),
			State:    state,
			MinScore: minScore,
			Limit:    limit,
			Save:     save,
		}
		if status != "" {
			opts.Status = model.ParseLeadStatus(status)
		}
		results, err := r.RankLeads(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "score: rank leads")
		}
		log.Info("lead scoring complete", zap.Int("total", len(results)))
		return outputLeadResults(results, format, outputPath)

	case "clients":
		riskFlag, _ := cmd.Flags().GetString("risk-flag")
		results, err := r.RankClients(ctx, ranker.ClientRunOptions{
			Sector:   model.Sector(sector),
			State:    state,
			RiskFlag: riskFlag,
			MinScore: minScore,
			Limit:    limit,
			Save:     save,
		})
		if err != nil {
			return eris.Wrap(err, "score: rank clients")
		}
		log.Info("client scoring complete", zap.Int("total", len(results)))
		return outputClientResults(results, format, outputPath)

	default:
		return eris.Errorf("score: unknown target %q (want leads or clients)", args[0])
	}
}

func openOutput(outputPath string) (*os.File, func(), error) {
	if outputPath == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "score: create output file %s", outputPath)
	}
	return f, func() { _ = f.Close() }, nil
}

func outputLeadResults(results []ranker.RankedLead, format, outputPath string) error {
	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		cw := csv.NewWriter(w)
		defer cw.Flush()
		header := []string{"name", "company", "sector", "state", "status", "score", "next_action"}
		if err := cw.Write(header); err != nil {
			return eris.Wrap(err, "score: write CSV header")
		}
		for _, r := range results {
			row := []string{
				r.Lead.Name,
				r.Lead.Company,
				string(r.Lead.Sector),
				r.Lead.State,
				string(r.Lead.Status),
				fmt.Sprintf("%.1f", r.Score.Score),
				r.Score.NextAction,
			}
			if err := cw.Write(row); err != nil {
				return eris.Wrap(err, "score: write CSV row")
			}
		}
		return nil
	default:
		return writeLeadTable(w, results)
	}
}

func writeLeadTable(w *os.File, results []ranker.RankedLead) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No leads matched.")
		return nil
	}
	fmt.Fprintf(w, "%-30s %-25s %-14s %-15s %6s  %s\n",
		"Company", "Name", "Sector", "State", "Score", "Next Action")
	fmt.Fprintln(w, strings.Repeat("-", 115))
	for _, r := range results {
		company := r.Lead.Company
		if len(company) > 30 {
			company = company[:27] + "..."
		}
		fmt.Fprintf(w, "%-30s %-25s %-14s %-15s %6.1f  %s\n",
			company, r.Lead.Name, r.Lead.Sector, r.Lead.State,
			r.Score.Score, r.Score.NextAction)
	}
	return nil
}

func outputClientResults(results []ranker.RankedClient, format, outputPath string) error {
	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		cw := csv.NewWriter(w)
		defer cw.Flush()
		header := []string{"company", "sector", "state", "upsell_score", "risk_score", "risk_flag", "recommended_packs"}
		if err := cw.Write(header); err != nil {
			return eris.Wrap(err, "score: write CSV header")
		}
		for _, r := range results {
			row := []string{
				r.Client.Company,
				string(r.Client.Sector),
				r.Client.State,
				fmt.Sprintf("%.1f", r.Score.UpsellScore),
				fmt.Sprintf("%.1f", r.Score.RiskScore),
				r.Score.RiskFlag,
				strings.Join(r.Score.RecommendedPacks, ";"),
			}
			if err := cw.Write(row); err != nil {
				return eris.Wrap(err, "score: write CSV row")
			}
		}
		return nil
	default:
		return writeClientTable(w, results)
	}
}

func writeClientTable(w *os.File, results []ranker.RankedClient) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No clients matched.")
		return nil
	}
	fmt.Fprintf(w, "%-30s %-14s %-15s %7s %6s %-18s %s\n",
		"Company", "Sector", "State", "Upsell", "Risk", "Flag", "Packs")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range results {
		company := r.Client.Company
		if len(company) > 30 {
			company = company[:27] + "..."
		}
		fmt.Fprintf(w, "%-30s %-14s %-15s %7.1f %6.1f %-18s %s\n",
			company, r.Client.Sector, r.Client.State,
			r.Score.UpsellScore, r.Score.RiskScore, r.Score.RiskFlag,
			strings.Join(r.Score.RecommendedPacks, ", "))
	}
	return nil
}
