package models

import "time"

// PaymentReceipt records a processed (simulated) payment and its stored PDF.
type PaymentReceipt struct {
	ID             string    `db:"id" json:"id"`
	UserID         *string   `db:"user_id" json:"userId,omitempty"`
	Plan           string    `db:"plan" json:"plan"`
	AmountCents    int       `db:"amount_cents" json:"amountCents"`
	Currency       string    `db:"currency" json:"currency"`
	CardholderName string    `db:"cardholder_name" json:"cardholderName"`
	CardLast4      string    `db:"card_last4" json:"cardLast4"`
	BlobPath       string    `db:"blob_path" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
