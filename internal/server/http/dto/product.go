package dto

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}
