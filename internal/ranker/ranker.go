// Package ranker orchestrates scoring runs: it loads entities and
// weight configuration from the store, builds a scoring engine pinned
// to a single reference time, and produces ranked listings.
package ranker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/scoring"
	"github.com/salesradar/salesradar/internal/store"
)

const defaultConcurrency = 8

// Ranker runs batch scoring over the store's entities.
type Ranker struct {
	store       store.Store
	overrides   scoring.Table
	concurrency int
	now         func() time.Time
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithConcurrency bounds per-client data loading during client runs.
func WithConcurrency(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithOverrides layers a weight table on top of the stored
// configuration. Used for ad-hoc what-if runs from the CLI.
func WithOverrides(t scoring.Table) Option {
	return func(r *Ranker) { r.overrides = t }
}

// WithNow fixes the reference time. Tests use this; production code
// leaves it at time.Now.
func WithNow(now func() time.Time) Option {
	return func(r *Ranker) { r.now = now }
}

// New creates a Ranker over the given store.
func New(st store.Store, opts ...Option) *Ranker {
	r := &Ranker{
		store:       st,
		concurrency: defaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// engine builds a scoring engine for one batch run: defaults, then
// stored weight entries, then any ad-hoc overrides. Every entity in
// the batch is scored against the same weights and the same clock.
func (r *Ranker) engine(ctx context.Context) (*scoring.Engine, error) {
	entries, err := r.store.WeightEntries(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ranker: load weight entries")
	}
	table := scoring.Defaults().
		Merge(scoring.FromEntries(entries)).
		Merge(r.overrides)
	return scoring.NewEngine(table, r.now()), nil
}

// RankedLead pairs a lead with its score for one run.
type RankedLead struct {
	Lead  model.Lead        `json:"lead"`
	Score scoring.LeadScore `json:"score"`
}

// LeadRunOptions filters a lead scoring run.
type LeadRunOptions struct {
	// Status restricts the run to one pipeline status. When empty,
	// won and lost leads are excluded so the ranking stays actionable.
	Status   model.LeadStatus
	Sector   model.Sector
	State    string
	MinScore float64
	Limit    int
	// Save records each score in the history table for trend analysis.
	Save bool
}

// RankLeads scores leads and returns them ordered by priority,
// highest first.
func (r *Ranker) RankLeads(ctx context.Context, opts LeadRunOptions) ([]RankedLead, error) {
	eng, err := r.engine(ctx)
	if err != nil {
		return nil, err
	}

	leads, err := r.store.ListLeads(ctx, store.LeadFilter{
		Status: opts.Status,
		Sector: opts.Sector,
		State:  opts.State,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ranker: list leads")
	}

	ranked := make([]RankedLead, 0, len(leads))
	for _, lead := range leads {
		if opts.Status == "" && lead.Status.Closed() {
			continue
		}
		score := eng.ScoreLead(lead)
		if score.Score < opts.MinScore {
			continue
		}
		ranked = append(ranked, RankedLead{Lead: lead, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Score > ranked[j].Score.Score
	})
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	if opts.Save {
		records := make([]model.ScoreRecord, 0, len(ranked))
		for _, rl := range ranked {
			records = append(records, model.ScoreRecord{
				EntityID:   rl.Lead.ID,
				EntityType: "lead",
				Score:      rl.Score.Score,
				RecordedAt: eng.Now(),
			})
		}
		if err := r.store.SaveScoreHistory(ctx, records); err != nil {
			return nil, eris.Wrap(err, "ranker: save lead scores")
		}
	}

	zap.L().Debug("lead run complete",
		zap.Int("scored", len(leads)),
		zap.Int("returned", len(ranked)))
	return ranked, nil
}

// RankedClient pairs a client with its score for one run.
type RankedClient struct {
	Client model.Client        `json:"client"`
	Score  scoring.ClientScore `json:"score"`
}

// ClientRunOptions filters a client scoring run.
type ClientRunOptions struct {
	Sector   model.Sector
	State    string
	RiskFlag string
	MinScore float64
	Limit    int
	Save     bool
}

// RankClients scores clients and returns them ordered by upsell
// opportunity, highest first. Per-client ticket and installation
// loading runs concurrently.
func (r *Ranker) RankClients(ctx context.Context, opts ClientRunOptions) ([]RankedClient, error) {
	eng, err := r.engine(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := r.store.ListClients(ctx, store.ClientFilter{
		Sector: opts.Sector,
		State:  opts.State,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ranker: list clients")
	}

	packs, err := r.store.ListPacks(ctx, true)
	if err != nil {
		return nil, eris.Wrap(err, "ranker: list packs")
	}

	scored := make([]RankedClient, len(clients))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, client := range clients {
		i, client := i, client
		g.Go(func() error {
			tickets, err := r.store.ListTickets(gctx, store.TicketFilter{ClientID: client.ID})
			if err != nil {
				return eris.Wrapf(err, "ranker: tickets for %s", client.ID)
			}
			installed, err := r.store.InstalledPackCodes(gctx, client.ID)
			if err != nil {
				return eris.Wrapf(err, "ranker: installed packs for %s", client.ID)
			}
			scored[i] = RankedClient{
				Client: client,
				Score:  eng.ScoreClient(client, tickets, installed, packs),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]RankedClient, 0, len(scored))
	for _, rc := range scored {
		if opts.RiskFlag != "" && !riskFlagMatches(rc.Score.RiskFlag, opts.RiskFlag) {
			continue
		}
		if rc.Score.UpsellScore < opts.MinScore {
			continue
		}
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.UpsellScore > ranked[j].Score.UpsellScore
	})
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	if opts.Save {
		records := make([]model.ScoreRecord, 0, len(ranked))
		for _, rc := range ranked {
			records = append(records, model.ScoreRecord{
				EntityID:   rc.Client.ID,
				EntityType: "client",
				Score:      rc.Score.UpsellScore,
				RecordedAt: eng.Now(),
			})
		}
		if err := r.store.SaveScoreHistory(ctx, records); err != nil {
			return nil, eris.Wrap(err, "ranker: save client scores")
		}
	}

	zap.L().Debug("client run complete",
		zap.Int("scored", len(clients)),
		zap.Int("returned", len(ranked)))
	return ranked, nil
}

// riskFlagMatches compares a client's risk flag against user input
// leniently: case-insensitive, underscores read as spaces, so
// "TRAINING_NEEDED" matches "Training needed".
func riskFlagMatches(flag, query string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", " "))
	}
	return norm(flag) == norm(query)
}

// PackPotential summarizes one automation pack's market: how many
// clients already run it, and how many would currently be recommended
// it.
type PackPotential struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Installed  int    `json:"installed"`
	Candidates int    `json:"candidates"`
}

// PackPotentials reports installed and candidate counts for every
// active pack, ordered by candidate count descending.
func (r *Ranker) PackPotentials(ctx context.Context) ([]PackPotential, error) {
	ranked, err := r.RankClients(ctx, ClientRunOptions{})
	if err != nil {
		return nil, err
	}
	counts, err := r.store.InstallationCounts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ranker: installation counts")
	}
	packs, err := r.store.ListPacks(ctx, true)
	if err != nil {
		return nil, eris.Wrap(err, "ranker: list packs")
	}

	candidates := make(map[string]int)
	for _, rc := range ranked {
		for _, code := range rc.Score.RecommendedPacks {
			candidates[code]++
		}
	}

	out := make([]PackPotential, 0, len(packs))
	for _, p := range packs {
		out = append(out, PackPotential{
			Code:       p.Code,
			Name:       p.Name,
			Installed:  counts[p.Code],
			Candidates: candidates[p.Code],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Candidates != out[j].Candidates {
			return out[i].Candidates > out[j].Candidates
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

// GeoSummary aggregates lead and client scores by state. Closed leads
// are excluded, matching the lead ranking.
func (r *Ranker) GeoSummary(ctx context.Context, sector model.Sector) (scoring.GeoSummary, error) {
	leads, err := r.RankLeads(ctx, LeadRunOptions{Sector: sector})
	if err != nil {
		return scoring.GeoSummary{}, err
	}
	clients, err := r.RankClients(ctx, ClientRunOptions{Sector: sector})
	if err != nil {
		return scoring.GeoSummary{}, err
	}

	entities := make([]scoring.GeoEntity, 0, len(leads)+len(clients))
	for _, rl := range leads {
		entities = append(entities, scoring.GeoEntity{
			Kind:   scoring.KindLead,
			Score:  rl.Score.Score,
			City:   rl.Lead.City,
			Region: rl.Lead.Region,
			State:  rl.Lead.State,
		})
	}
	for _, rc := range clients {
		entities = append(entities, scoring.GeoEntity{
			Kind:   scoring.KindClient,
			Score:  rc.Score.UpsellScore,
			City:   rc.Client.City,
			Region: rc.Client.Region,
			State:  rc.Client.State,
		})
	}
	return scoring.AggregateGeo(entities), nil
}
