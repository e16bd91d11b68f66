package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lob-api/internal/models"
)

// PaymentRepository stores payment receipts.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateReceipt inserts a receipt row.
func (r *PaymentRepository) CreateReceipt(ctx context.Context, receipt *models.PaymentReceipt) error {
	const query = `INSERT INTO payment_receipts (id, user_id, plan, amount_cents, currency, cardholder_name, card_last4, blob_path, created_at)
VALUES (:id, :user_id, :plan, :amount_cents, :currency, :cardholder_name, :card_last4, :blob_path, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

// FindReceipt returns a receipt by id.
func (r *PaymentRepository) FindReceipt(ctx context.Context, id string) (*models.PaymentReceipt, error) {
	query := r.db.Rebind(`SELECT id, user_id, plan, amount_cents, currency, cardholder_name, card_last4, blob_path, created_at FROM payment_receipts WHERE id = ? LIMIT 1`)
	var receipt models.PaymentReceipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return &receipt, nil
}
