package entity

// Product is the slice of the catalog row this service reads: pricing for
// server-side re-pricing at checkout, stock for the ledger.
type Product struct {
	ID         string
	Name       string
	PriceCents int64
	ImageURL   string
	Stock      int
}

// ItemQuantity is a (product, quantity) pair, the unit the stock ledger
// reserves and restores.
type ItemQuantity struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Shortfall reports a product whose stock cannot cover a request.
type Shortfall struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}
