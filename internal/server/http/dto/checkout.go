package dto

// CheckoutRequest starts a checkout for a catalog product.
type CheckoutRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
}

// CheckoutResponse points the buyer to the hosted payment page.
type CheckoutResponse struct {
	CheckoutURL     string `json:"checkoutUrl"`
	StripeSessionID string `json:"stripeSessionId"`
	OrderID         string `json:"orderId"`
}
