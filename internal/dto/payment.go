package dto

import "time"

// PricingPlan is one entry of the pricing page.
type PricingPlan struct {
	Name        string   `json:"name"`
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Features    []string `json:"features"`
	Destination string   `json:"destination"`
}

// ProcessPaymentRequest is the checkout form. Expiry is MM/YY.
type ProcessPaymentRequest struct {
	Plan           string `json:"plan"`
	CardholderName string `json:"cardholderName" validate:"required,max=200"`
	CardNumber     string `json:"cardNumber" validate:"required,len=16,number"`
	ExpiryDate     string `json:"expiryDate" validate:"required,card_expiry"`
	Cvv            string `json:"cvv" validate:"required,min=3,max=4,number"`
}

// PaymentResult confirms a processed payment.
type PaymentResult struct {
	ReceiptID  string    `json:"receiptId"`
	Plan       string    `json:"plan"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	MaskedCard string    `json:"maskedCard"`
	ReceiptURL string    `json:"receiptUrl"`
	ExpiresAt  time.Time `json:"receiptUrlExpiresAt"`
}
