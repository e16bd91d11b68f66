package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lob-api/internal/models"
)

func TestReceiptRoundTrip(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO payment_receipts").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateReceipt(context.Background(), &models.PaymentReceipt{ID: "r1", Plan: "pro", AmountCents: 2900, Currency: "USD", CreatedAt: now}))

	rows := sqlmock.NewRows([]string{"id", "user_id", "plan", "amount_cents", "currency", "cardholder_name", "card_last4", "blob_path", "created_at"}).
		AddRow("r1", nil, "pro", 2900, "USD", "Jane", "4242", "receipts/r1.pdf", now)
	mock.ExpectQuery(`FROM payment_receipts WHERE id = \?`).WithArgs("r1").WillReturnRows(rows)

	receipt, err := repo.FindReceipt(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2900, receipt.AmountCents)
	assert.Nil(t, receipt.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
