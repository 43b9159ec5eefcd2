package model

// ExternalOption is one aggregator destination advertised in an
// order-creation response.
type ExternalOption struct {
	Code  string `json:"code"`
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// Order is the backend's order-creation response. CheckoutURL is only
// populated for direct-payment service types; aggregator checkouts pick a
// destination from ExternalOptions instead.
type Order struct {
	ID              int              `json:"id"`
	CheckoutURL     string           `json:"checkout_url,omitempty"`
	Total           string           `json:"total,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	ServiceType     string           `json:"service_type,omitempty"`
	ETAMinutes      int              `json:"eta_minutes,omitempty"`
	ExternalOptions []ExternalOption `json:"external_options,omitempty"`
}

// ExternalOption finds the aggregator option matching the given service type.
// Option codes are normalized before comparison so either accepted spelling
// of an aggregator matches. Returns nil if no option is configured.
func (o *Order) ExternalOption(st ServiceType) *ExternalOption {
	for i := range o.ExternalOptions {
		if NormalizeServiceType(o.ExternalOptions[i].Code) == st {
			return &o.ExternalOptions[i]
		}
	}
	return nil
}

// OrderSummary is one row of the authenticated order-history listing.
type OrderSummary struct {
	ID          int    `json:"id"`
	Status      string `json:"status"`
	IsPaid      bool   `json:"is_paid"`
	ServiceType string `json:"service_type"`
	Total       string `json:"total"`
	CreatedAt   string `json:"created_at"`
}
