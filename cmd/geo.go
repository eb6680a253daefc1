package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/scoring"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Summarize lead and client scores by state",
	Long: `Roll scored leads and clients up by state: counts, average lead
score, opportunity density, risk level, recommended action, and the
top cities in each state.

Examples:
  salesradar geo
  salesradar geo --sector trading --format json`,
	RunE: runGeo,
}

func init() {
	f := geoCmd.Flags()
	f.String("sector", "", "restrict to one sector")
	f.String("weights", "", "YAML file of weight overrides")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(geoCmd)
}

func runGeo(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("geo: --format must be table or json (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "geo: migrate")
	}

	weightsFile, _ := cmd.Flags().GetString("weights")
	r, err := newRanker(st, weightsFile)
	if err != nil {
		return err
	}

	sector, _ := cmd.Flags().GetString("sector")
	summary, err := r.GeoSummary(ctx, model.Sector(sector))
	if err != nil {
		return eris.Wrap(err, "geo: summarize")
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	printGeoTable(summary)
	return nil
}

func printGeoTable(summary scoring.GeoSummary) {
	if len(summary.States) == 0 {
		fmt.Println("No geographic data.")
		return
	}

	names := make([]string, 0, len(summary.States))
	for name := range summary.States {
		names = append(names, name)
	}
	// Highest density first; name breaks ties.
	sort.Slice(names, func(i, j int) bool {
		a, b := summary.States[names[i]], summary.States[names[j]]
		if a.OpportunityDensity != b.OpportunityDensity {
			return a.OpportunityDensity > b.OpportunityDensity
		}
		return names[i] < names[j]
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "State\tRegion\tLeads\tClients\tAvg Score\tDensity\tRisk\tAction\tTop Cities")
	for _, name := range names {
		s := summary.States[name]
		cities := make([]string, 0, len(s.TopCities))
		for _, c := range s.TopCities {
			cities = append(cities, c.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f\t%.1f\t%s\t%s\t%s\n",
			s.Name, s.Region, s.LeadCount, s.ClientCount,
			s.AvgLeadScore, s.OpportunityDensity, s.RiskLevel,
			s.RecommendedAction, strings.Join(cities, ", "))
	}
	w.Flush()

	if summary.Unmapped > 0 {
		fmt.Printf("\n%d record(s) had no state and were left out.\n", summary.Unmapped)
	}
}
