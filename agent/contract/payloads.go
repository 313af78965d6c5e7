package contract

// Payload shapes captured inside Proposal.Data. Each mutation executor
// accepts exactly the shape its proposing tool produced; field names are
// part of the external contract and bound to by name.

type CreateCompetitorData struct {
	Name       string `json:"name"`
	WebsiteURL string `json:"websiteUrl,omitempty"`
	Category   string `json:"category,omitempty"`
	Status     string `json:"status,omitempty"`
}

type UpdateCompetitorData struct {
	CompetitorID string  `json:"competitorId"`
	Name         *string `json:"name,omitempty"`
	WebsiteURL   *string `json:"websiteUrl,omitempty"`
	Category     *string `json:"category,omitempty"`
	Status       *string `json:"status,omitempty"`
}

type DeleteCompetitorData struct {
	CompetitorID string `json:"competitorId"`
	Name         string `json:"name"`
}

type AddCompetitorNoteData struct {
	CompetitorID string `json:"competitorId"`
	Note         string `json:"note"`
	AuthorID     string `json:"authorId,omitempty"`
}

type PriceUpdate struct {
	ProductID string  `json:"productId"`
	NewPrice  float64 `json:"newPrice"`
	Reason    string  `json:"reason,omitempty"`
}

type UpdateProductPricesData struct {
	Updates  []PriceUpdate `json:"updates"`
	Strategy string        `json:"strategy,omitempty"`
}

type SendEmailData struct {
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Priority string   `json:"priority"`
}
