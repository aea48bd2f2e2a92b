package model

// Product is a priced catalog entry used for server-side checkout pricing.
type Product struct {
	ID          string
	Name        string
	AmountCents int64
	Currency    string
	Active      bool
}
