package model

// Checkout is returned to the buyer after a provider session is opened.
type Checkout struct {
	OrderID     string
	SessionID   string
	CheckoutURL string
}
