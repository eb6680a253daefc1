package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "List automation packs",
	RunE:  runPacksList,
}

var packsPotentialCmd = &cobra.Command{
	Use:   "potential",
	Short: "Report installed vs candidate counts per pack",
	Long: `For every active automation pack, count current installations and
the clients whose scoring run recommends it. High candidate counts
point at packs worth a campaign.`,
	RunE: runPacksPotential,
}

func init() {
	packsCmd.Flags().Bool("all", false, "include inactive packs")
	packsPotentialCmd.Flags().String("format", "table", "output format: table or json")
	packsPotentialCmd.Flags().String("weights", "", "YAML file of weight overrides")

	packsCmd.AddCommand(packsPotentialCmd)
	rootCmd.AddCommand(packsCmd)
}

func runPacksList(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "packs: migrate")
	}

	all, _ := cmd.Flags().GetBool("all")
	packs, err := st.ListPacks(ctx, !all)
	if err != nil {
		return eris.Wrap(err, "packs: list")
	}

	if len(packs) == 0 {
		fmt.Println("No packs found. Run 'salesradar seed' to load the catalog.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Code\tName\tPrice Band\tActive\tTarget Sectors")
	for _, p := range packs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
			p.Code, p.Name, p.PriceBand, p.IsActive, joinSet(p.SectorNames()))
	}
	return w.Flush()
}

func runPacksPotential(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("packs: --format must be table or json (got %q)", format)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "packs: migrate")
	}

	weightsFile, _ := cmd.Flags().GetString("weights")
	r, err := newRanker(st, weightsFile)
	if err != nil {
		return err
	}

	potentials, err := r.PackPotentials(ctx)
	if err != nil {
		return eris.Wrap(err, "packs: potential")
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(potentials)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Code\tName\tInstalled\tCandidates")
	for _, p := range potentials {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", p.Code, p.Name, p.Installed, p.Candidates)
	}
	return w.Flush()
}

func joinSet(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for _, v := range values[1:] {
		out += ", " + v
	}
	return out
}
