// Package seed populates a store with a realistic demo dataset:
// Indian SME leads and clients, automation packs, support tickets,
// pack installations, and the default scoring weights.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/store"
)

var companyNames = []string{
	"Shree Ganesh Traders", "Patel Engineering Co.", "Sharma Industries",
	"Rajesh Textiles Pvt Ltd", "Gupta Iron & Steel", "Mehta Plastics",
	"Jain Brothers Trading", "Agarwal Exports", "Singh Manufacturing",
	"Kumar Pharmaceuticals", "Desai Electronics", "Bhandari Chemicals",
	"Chopra Auto Parts", "Malhotra Foods", "Verma Cement Works",
	"Reddy Agro Industries", "Kapoor Garments", "Saxena IT Solutions",
	"Bansal Hardware", "Arora Electricals", "Mittal Steel Corp",
	"Goyal Paper Mills", "Thakur Construction", "Nair Exports",
	"Iyer Software Services", "Pillai Traders", "Choudhary Motors",
	"Bhalla Machinery", "Sethi Marble Works", "Dhawan Logistics",
}

type city struct {
	name, state, region string
}

var cities = []city{
	{"Mumbai", "Maharashtra", "West"},
	{"Pune", "Maharashtra", "West"},
	{"Ahmedabad", "Gujarat", "West"},
	{"Surat", "Gujarat", "West"},
	{"Delhi", "Delhi", "North"},
	{"Gurgaon", "Haryana", "North"},
	{"Chandigarh", "Punjab", "North"},
	{"Jaipur", "Rajasthan", "North"},
	{"Bangalore", "Karnataka", "South"},
	{"Chennai", "Tamil Nadu", "South"},
	{"Hyderabad", "Telangana", "South"},
	{"Kochi", "Kerala", "South"},
	{"Kolkata", "West Bengal", "East"},
	{"Bhubaneswar", "Odisha", "East"},
	{"Jamshedpur", "Jharkhand", "East"},
	{"Indore", "Madhya Pradesh", "Central"},
	{"Bhopal", "Madhya Pradesh", "Central"},
	{"Raipur", "Chhattisgarh", "Central"},
	{"Nagpur", "Maharashtra", "Central"},
}

var firstNames = []string{
	"Rajesh", "Suresh", "Mahesh", "Priya", "Anjali", "Vikram",
	"Amit", "Neha", "Sanjay", "Kavita", "Ravi", "Sunita",
	"Arun", "Meena", "Deepak", "Pooja", "Manish", "Rekha",
}

var lastNames = []string{
	"Sharma", "Patel", "Singh", "Kumar", "Gupta", "Jain",
	"Agarwal", "Mehta", "Verma", "Reddy", "Nair", "Iyer",
}

var accountManagers = []string{"Rahul Desai", "Priya Mehta", "Amit Shah", "Kavita Joshi"}

var leadModules = []string{"tally", "mis", "hrms", "inventory", "gst"}

var revenueBands = []string{"0-50k", "50k-2L", "2L-5L", "5L+"}

var ticketSubjects = map[model.IssueType][]string{
	model.IssueGST: {
		"GST return mismatch", "GSTR-2A reconciliation issue",
		"E-way bill generation error", "GST filing deadline alert",
	},
	model.IssueInventory: {
		"Stock discrepancy", "Negative stock showing",
		"Batch number tracking issue", "Godown transfer not reflecting",
	},
	model.IssueReport: {
		"MIS report not generating", "Cash flow report incorrect",
		"Need custom sales report", "Balance sheet not tallying",
	},
	model.IssuePerformance: {
		"Tally running slow", "Data sync taking too long",
		"Report generation timeout", "Network backup failing",
	},
	model.IssueTraining: {
		"New staff needs training", "GST module usage training",
		"MIS dashboard training needed", "Inventory module training",
	},
}

// Seeder generates and persists the demo dataset.
type Seeder struct {
	store store.Store
	rng   *rand.Rand
	now   time.Time
}

// New creates a Seeder. A fixed seed makes the dataset reproducible.
func New(st store.Store, seedVal int64) *Seeder {
	return &Seeder{
		store: st,
		rng:   rand.New(rand.NewSource(seedVal)),
		now:   time.Now().UTC(),
	}
}

// Summary counts what a seeding run created.
type Summary struct {
	Weights       int
	Packs         int
	Leads         int
	Clients       int
	Tickets       int
	Installations int
}

// Run seeds weights, packs, leads, clients, tickets, and installations.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	var sum Summary
	var err error

	if sum.Weights, err = s.seedWeights(ctx); err != nil {
		return nil, err
	}
	packs, err := s.seedPacks(ctx)
	if err != nil {
		return nil, err
	}
	sum.Packs = len(packs)

	if sum.Leads, err = s.seedLeads(ctx); err != nil {
		return nil, err
	}
	clients, err := s.seedClients(ctx)
	if err != nil {
		return nil, err
	}
	sum.Clients = len(clients)

	if sum.Tickets, err = s.seedTickets(ctx, clients); err != nil {
		return nil, err
	}
	if sum.Installations, err = s.seedInstallations(ctx, clients, packs); err != nil {
		return nil, err
	}

	zap.L().Info("seeding complete",
		zap.Int("leads", sum.Leads),
		zap.Int("clients", sum.Clients),
		zap.Int("tickets", sum.Tickets),
		zap.Int("packs", sum.Packs),
		zap.Int("installations", sum.Installations))
	return &sum, nil
}

func (s *Seeder) seedWeights(ctx context.Context) (int, error) {
	entries := []model.WeightEntry{
		{Key: "sector_manufacturing", Value: 1.0, Category: "sector", Label: "Manufacturing Weight"},
		{Key: "sector_trading", Value: 0.7, Category: "sector", Label: "Trading Weight"},
		{Key: "sector_services", Value: 0.5, Category: "sector", Label: "Services Weight"},
		{Key: "size_large", Value: 1.0, Category: "size", Label: "Large Company Weight"},
		{Key: "size_medium", Value: 0.7, Category: "size", Label: "Medium Company Weight"},
		{Key: "size_small", Value: 0.4, Category: "size", Label: "Small Company Weight"},
		{Key: "source_referral", Value: 1.0, Category: "source", Label: "Referral Source Weight"},
		{Key: "source_partner", Value: 0.8, Category: "source", Label: "Partner Source Weight"},
		{Key: "source_indiamart", Value: 0.6, Category: "source", Label: "IndiaMart Source Weight"},
		{Key: "source_justdial", Value: 0.5, Category: "source", Label: "JustDial Source Weight"},
		{Key: "source_website", Value: 0.4, Category: "source", Label: "Website Source Weight"},
		{Key: "source_cold", Value: 0.3, Category: "source", Label: "Cold Outreach Weight"},
	}
	for _, e := range entries {
		if err := s.store.UpsertWeightEntry(ctx, e); err != nil {
			return 0, eris.Wrap(err, "seed: weights")
		}
	}
	return len(entries), nil
}

func (s *Seeder) seedPacks(ctx context.Context) ([]model.AutomationPack, error) {
	mfgTrading := []model.Sector{model.SectorManufacturing, model.SectorTrading}
	packs := []model.AutomationPack{
		{
			Name: "GST Health Pack", Code: "GST_HEALTH",
			Description:              "Automated GST reconciliation, health checks, and filing reminders.",
			TargetSectors:            mfgTrading,
			RequiredExistingProducts: []string{"tallyprime"},
			PriceBand:                "25k-50k",
		},
		{
			Name: "Inventory Alert Pack", Code: "INV_ALERT",
			Description:              "Real-time stock alerts, reorder notifications, and aging inventory reports.",
			TargetSectors:            mfgTrading,
			RequiredExistingProducts: []string{"tallyprime"},
			PriceBand:                "25k-50k",
		},
		{
			Name: "F-1 MIS Executive Pack", Code: "F1_MIS",
			Description:              "Custom executive dashboards, automated MIS reports, and WhatsApp alerts.",
			RequiredExistingProducts: []string{"tallyprime"},
			PriceBand:                "50k-1L",
		},
		{
			Name: "Owner Insight Pack", Code: "OWNER_INSIGHT",
			Description:              "Mobile alerts for key business metrics with a daily WhatsApp digest.",
			RequiredExistingProducts: []string{"tallyprime", "f1_mis"},
			PriceBand:                "25k-50k",
		},
		{
			Name: "Receivable Control Pack", Code: "AR_CONTROL",
			Description:              "Automated AR aging alerts, payment reminders, and collection workflows.",
			TargetSectors:            []model.Sector{model.SectorTrading, model.SectorServices},
			RequiredExistingProducts: []string{"tallyprime"},
			PriceBand:                "25k-50k",
		},
		{
			Name: "HRMS Essential Pack", Code: "HRMS_BASIC",
			Description:              "Employee master, attendance integration, and payroll with Tally sync.",
			TargetSectors:            []model.Sector{model.SectorManufacturing, model.SectorServices},
			RequiredExistingProducts: []string{"tallyprime"},
			PriceBand:                "50k-1L",
		},
		{
			Name: "Multi-Branch Consolidation Pack", Code: "MULTI_BRANCH",
			Description:              "Consolidate data from multiple Tally instances with branch comparisons.",
			TargetSectors:            []model.Sector{model.SectorTrading},
			RequiredExistingProducts: []string{"tallyprime", "f1_mis"},
			PriceBand:                "1L+",
		},
		{
			Name: "Audit Ready Pack", Code: "AUDIT_READY",
			Description:              "Pre-audit checks, document organization, and auditor-friendly reports.",
			RequiredExistingProducts: []string{"tallyprime"},
			PriceBand:                "25k-50k",
		},
	}

	created := make([]model.AutomationPack, 0, len(packs))
	for _, p := range packs {
		p.IsActive = true
		cp, err := s.store.CreatePack(ctx, p)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: pack %s", p.Code)
		}
		created = append(created, *cp)
	}
	return created, nil
}

func (s *Seeder) pick(n int) int { return s.rng.Intn(n) }

func (s *Seeder) person() string {
	return firstNames[s.pick(len(firstNames))] + " " + lastNames[s.pick(len(lastNames))]
}

func (s *Seeder) phone() string {
	return fmt.Sprintf("+91 %d %d", 70000+s.pick(30000), 10000+s.pick(90000))
}

func (s *Seeder) daysAgo(min, max int) *time.Time {
	t := s.now.AddDate(0, 0, -(min + s.pick(max-min+1)))
	return &t
}

// weighted picks an index from a cumulative weight distribution.
func (s *Seeder) weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r := s.pick(total)
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

var sectors = []model.Sector{model.SectorManufacturing, model.SectorTrading, model.SectorServices}
var sizes = []model.CompanySize{model.SizeSmall, model.SizeMedium, model.SizeLarge}
var sources = []model.LeadSource{
	model.SourceReferral, model.SourcePartner, model.SourceIndiamart,
	model.SourceJustdial, model.SourceWebsite, model.SourceCold,
}
var leadStatuses = []model.LeadStatus{
	model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified,
	model.LeadStatusProposal, model.LeadStatusNegotiation,
}

func (s *Seeder) seedLeads(ctx context.Context) (int, error) {
	created := 0
	for i := 0; i < 25; i++ {
		company := companyNames[i]
		name := s.person()
		loc := cities[s.pick(len(cities))]

		modules := append([]string(nil), leadModules...)
		s.rng.Shuffle(len(modules), func(a, b int) { modules[a], modules[b] = modules[b], modules[a] })
		modules = modules[:1+s.pick(4)]

		var lastContact *time.Time
		if s.pick(10) < 8 {
			lastContact = s.daysAgo(1, 90)
		}

		lead := model.Lead{
			Name:    name,
			Company: company,
			Email:   fmt.Sprintf("%s@example.com", lastNames[s.pick(len(lastNames))]),
			Phone:   s.phone(),
			Sector:  sectors[s.pick(len(sectors))],
			// small shops dominate the pipeline
			Size:              sizes[s.weighted([]int{50, 35, 15})],
			Source:            sources[s.weighted([]int{15, 10, 25, 20, 10, 20})],
			City:              loc.name,
			Region:            loc.region,
			State:             loc.state,
			InterestedModules: modules,
			LastContactDate:   lastContact,
			Status:            leadStatuses[s.pick(len(leadStatuses))],
			Notes:             fmt.Sprintf("Interested in Tally automation. Located in %s, %s.", loc.name, loc.state),
		}
		if _, err := s.store.CreateLead(ctx, lead); err != nil {
			return created, eris.Wrap(err, "seed: lead")
		}
		created++
	}
	return created, nil
}

func (s *Seeder) seedClients(ctx context.Context) ([]model.Client, error) {
	var created []model.Client
	for i := 0; i < 25; i++ {
		company := companyNames[len(companyNames)-1-i]
		name := s.person()
		loc := cities[s.pick(len(cities))]

		// every client runs TallyPrime; some own more
		products := []string{"tallyprime"}
		if s.pick(10) < 4 {
			products = append(products, "f1_mis")
		}
		if s.pick(10) < 2 {
			extra := []string{"hrms", "inventory", "gst"}
			products = append(products, extra[s.pick(len(extra))])
		}

		client := model.Client{
			Name:              name,
			Company:           company,
			Email:             fmt.Sprintf("%s@example.com", lastNames[s.pick(len(lastNames))]),
			Phone:             s.phone(),
			Sector:            sectors[s.pick(len(sectors))],
			Size:              sizes[s.weighted([]int{40, 40, 20})],
			City:              loc.name,
			Region:            loc.region,
			State:             loc.state,
			ExistingProducts:  products,
			AnnualRevenueBand: revenueBands[s.pick(len(revenueBands))],
			StartDate:         s.daysAgo(90, 730),
			LastProjectDate:   s.daysAgo(30, 365),
			AccountManager:    accountManagers[s.pick(len(accountManagers))],
			Notes:             fmt.Sprintf("Long-term client in %s, %s. Primary contact: %s.", loc.name, loc.state, name),
		}
		cp, err := s.store.CreateClient(ctx, client)
		if err != nil {
			return created, eris.Wrap(err, "seed: client")
		}
		created = append(created, *cp)
	}

	// a few branch hierarchies under large clients
	var parents []model.Client
	for _, c := range created {
		if c.Size == model.SizeLarge {
			parents = append(parents, c)
		}
	}
	for i := range created {
		if len(parents) == 0 || s.pick(10) < 8 {
			continue
		}
		parent := parents[s.pick(len(parents))]
		if parent.ID == created[i].ID {
			continue
		}
		created[i].ParentID = &parent.ID
		created[i].Company = fmt.Sprintf("%s - %s Branch", parent.Company, created[i].City)
		if err := s.store.UpdateClient(ctx, created[i]); err != nil {
			return created, eris.Wrap(err, "seed: client hierarchy")
		}
	}
	return created, nil
}

var issueTypes = []model.IssueType{
	model.IssueGST, model.IssueInventory, model.IssueReport,
	model.IssuePerformance, model.IssueTraining,
}
var severities = []model.Severity{
	model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical,
}
var ticketStatuses = []model.TicketStatus{
	model.TicketOpen, model.TicketInProgress, model.TicketResolved, model.TicketClosed,
}

func (s *Seeder) seedTickets(ctx context.Context, clients []model.Client) (int, error) {
	created := 0
	for i := 0; i < 40; i++ {
		client := clients[s.pick(len(clients))]
		issueType := issueTypes[s.weighted([]int{25, 20, 25, 10, 20})]
		severity := severities[s.weighted([]int{20, 40, 30, 10})]
		status := ticketStatuses[s.weighted([]int{10, 20, 40, 30})]

		createdAt := *s.daysAgo(1, 90)
		var resolvedAt *time.Time
		notes := ""
		if status == model.TicketResolved || status == model.TicketClosed {
			t := createdAt.AddDate(0, 0, 1+s.pick(14))
			resolvedAt = &t
			notes = "Resolved via remote session."
		}

		subjects := ticketSubjects[issueType]
		ticket := model.Ticket{
			ClientID:        client.ID,
			IssueType:       issueType,
			Severity:        severity,
			Subject:         subjects[s.pick(len(subjects))],
			Description:     fmt.Sprintf("Client reported %s related issue. Priority: %s.", issueType, severity),
			CreatedAt:       createdAt,
			ResolvedAt:      resolvedAt,
			Status:          status,
			ResolutionNotes: notes,
		}
		if _, err := s.store.CreateTicket(ctx, ticket); err != nil {
			return created, eris.Wrap(err, "seed: ticket")
		}
		created++
	}
	return created, nil
}

func (s *Seeder) seedInstallations(ctx context.Context, clients []model.Client, packs []model.AutomationPack) (int, error) {
	installed := 0
	for i := 0; i < len(clients)/3; i++ {
		client := clients[i*3]
		numPacks := 1 + s.pick(2)
		for j := 0; j < numPacks; j++ {
			pack := packs[s.pick(len(packs))]
			err := s.store.InstallPack(ctx, model.ClientAutomation{
				ClientID:      client.ID,
				PackID:        pack.ID,
				InstalledDate: s.daysAgo(30, 180),
				Notes:         fmt.Sprintf("Installed %s pack.", pack.Code),
			})
			if err != nil {
				return installed, eris.Wrap(err, "seed: installation")
			}
			installed++
		}
	}
	return installed, nil
}
