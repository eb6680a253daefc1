package model

import "time"

// CoreProducts is the fixed product catalog used by the upsell
// product-gap computation. Products outside this set are ignored for
// scoring, not rejected.
var CoreProducts = []string{"tallyprime", "f1_mis", "hrms", "inventory", "gst"}

// Client is an existing, paying customer.
type Client struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id,omitempty"`

	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`

	Sector Sector      `json:"sector"`
	Size   CompanySize `json:"size"`

	City   string `json:"city,omitempty"`
	Region string `json:"region,omitempty"`
	State  string `json:"state,omitempty"`

	ExistingProducts  []string `json:"existing_products,omitempty"`
	AnnualRevenueBand string   `json:"annual_revenue_band,omitempty"`

	StartDate       *time.Time `json:"start_date,omitempty"`
	LastProjectDate *time.Time `json:"last_project_date,omitempty"`
	AccountManager  string     `json:"account_manager,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Products returns the client's existing products as a normalized set.
func (c Client) Products() []string {
	return NormalizeSet(c.ExistingProducts)
}

// OwnedCoreProducts counts how many of the client's products belong to
// the core catalog.
func (c Client) OwnedCoreProducts() int {
	owned := make(map[string]struct{})
	for _, p := range c.Products() {
		owned[p] = struct{}{}
	}
	n := 0
	for _, core := range CoreProducts {
		if _, ok := owned[core]; ok {
			n++
		}
	}
	return n
}
