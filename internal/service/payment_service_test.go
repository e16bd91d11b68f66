package service

import (
	"context"
	"database/sql"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/config"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/storage"
)

type stubReceiptStore struct {
	receipts map[string]*models.PaymentReceipt
	failErr  error
}

func (s *stubReceiptStore) CreateReceipt(_ context.Context, receipt *models.PaymentReceipt) error {
	if s.failErr != nil {
		return s.failErr
	}
	stored := *receipt
	s.receipts[receipt.ID] = &stored
	return nil
}

func (s *stubReceiptStore) FindReceipt(_ context.Context, id string) (*models.PaymentReceipt, error) {
	receipt, ok := s.receipts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return receipt, nil
}

type paymentFixture struct {
	svc  *PaymentService
	repo *stubReceiptStore
	dir  string
}

func newPaymentFixture(t *testing.T, delay time.Duration) *paymentFixture {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	repo := &stubReceiptStore{receipts: map[string]*models.PaymentReceipt{}}
	svc := NewPaymentService(PaymentDeps{
		Repo:   repo,
		Blobs:  blobs,
		Signer: storage.NewSignedURLSigner("receipt-secret", time.Hour),
		Logger: zap.NewNop(),
	}, config.PaymentConfig{SimulatedDelay: delay, Currency: "USD"}, "receipts")
	return &paymentFixture{svc: svc, repo: repo, dir: dir}
}

func validPayment(plan string) dto.ProcessPaymentRequest {
	return dto.ProcessPaymentRequest{
		Plan:           plan,
		CardholderName: "Alice Doe",
		CardNumber:     "4242 4242 4242 4242",
		ExpiryDate:     "12/29",
		Cvv:            "123",
	}
}

func TestGetPlansAndResolvePlan(t *testing.T) {
	f := newPaymentFixture(t, 0)

	plans := f.svc.GetPlans()
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].Name)
	assert.Equal(t, 9.0, plans[0].Price)
	assert.Equal(t, "/payment?plan=pro", plans[1].Destination)
	assert.Equal(t, 99.0, plans[2].Price)
	assert.Equal(t, "USD", plans[2].Currency)

	assert.Equal(t, "enterprise", f.svc.ResolvePlan(3).Name)
	unknown := f.svc.ResolvePlan(7)
	assert.Empty(t, unknown.Name)
	assert.Equal(t, models.PagePricing, unknown.Destination)
}

func TestProcessPaymentStoresReceipt(t *testing.T) {
	f := newPaymentFixture(t, 0)

	result, err := f.svc.ProcessPayment(context.Background(), "u1", validPayment("Pro"))
	require.NoError(t, err)
	assert.Equal(t, "pro", result.Plan)
	assert.Equal(t, 29.0, result.Amount)
	assert.Equal(t, "**** **** **** 4242", result.MaskedCard)

	stored := f.repo.receipts[result.ReceiptID]
	require.NotNil(t, stored)
	assert.Equal(t, 2900, stored.AmountCents)
	assert.Equal(t, "u1", *stored.UserID)
	assert.Equal(t, "receipts/"+result.ReceiptID+".pdf", stored.BlobPath)

	link, err := url.Parse(result.ReceiptURL)
	require.NoError(t, err)
	assert.Equal(t, "/api/Payment/GetReceipt", link.Path)

	r, err := f.svc.GetReceipt(context.Background(), link.Query().Get("id"), link.Query().Get("token"))
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestProcessPaymentUnknownPlanFallsBackToBasic(t *testing.T) {
	f := newPaymentFixture(t, 0)

	result, err := f.svc.ProcessPayment(context.Background(), "", validPayment("platinum"))
	require.NoError(t, err)
	assert.Equal(t, "basic", result.Plan)
	assert.Equal(t, 9.0, result.Amount)
	assert.Nil(t, f.repo.receipts[result.ReceiptID].UserID)
}

func TestProcessPaymentValidation(t *testing.T) {
	f := newPaymentFixture(t, 0)

	req := validPayment("basic")
	req.CardNumber = "4242"
	req.ExpiryDate = "13/29"
	req.Cvv = "12"
	_, err := f.svc.ProcessPayment(context.Background(), "", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrResourceValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "CardNumber")
	assert.Contains(t, appErr.Fields, "ExpiryDate")
	assert.Contains(t, appErr.Fields, "Cvv")
	assert.Empty(t, f.repo.receipts)
}

func TestProcessPaymentRejectsNonDigitCardFields(t *testing.T) {
	cases := []struct {
		name  string
		field string
		edit  func(*dto.ProcessPaymentRequest)
	}{
		{"signed card number", "CardNumber", func(r *dto.ProcessPaymentRequest) { r.CardNumber = "+424242424242424" }},
		{"negative card number", "CardNumber", func(r *dto.ProcessPaymentRequest) { r.CardNumber = "-424242424242424" }},
		{"decimal card number", "CardNumber", func(r *dto.ProcessPaymentRequest) { r.CardNumber = "4242424242424.42" }},
		{"letters in card number", "CardNumber", func(r *dto.ProcessPaymentRequest) { r.CardNumber = "4242424242424abc" }},
		{"negative cvv", "Cvv", func(r *dto.ProcessPaymentRequest) { r.Cvv = "-12" }},
		{"decimal cvv", "Cvv", func(r *dto.ProcessPaymentRequest) { r.Cvv = "1.2" }},
		{"signed cvv", "Cvv", func(r *dto.ProcessPaymentRequest) { r.Cvv = "+123" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture(t, 0)
			req := validPayment("basic")
			tc.edit(&req)

			_, err := f.svc.ProcessPayment(context.Background(), "", req)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrResourceValidation.Code, appErr.Code)
			assert.Contains(t, appErr.Fields, tc.field)
			assert.Empty(t, f.repo.receipts)
		})
	}
}

func TestProcessPaymentHonoursCancellation(t *testing.T) {
	f := newPaymentFixture(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.ProcessPayment(ctx, "", validPayment("basic"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.repo.receipts)
}

func TestGetReceiptRejectsForeignToken(t *testing.T) {
	f := newPaymentFixture(t, 0)

	first, err := f.svc.ProcessPayment(context.Background(), "", validPayment("basic"))
	require.NoError(t, err)
	second, err := f.svc.ProcessPayment(context.Background(), "", validPayment("pro"))
	require.NoError(t, err)

	link, err := url.Parse(first.ReceiptURL)
	require.NoError(t, err)
	_, err = f.svc.GetReceipt(context.Background(), second.ReceiptID, link.Query().Get("token"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = f.svc.GetReceipt(context.Background(), first.ReceiptID, "garbage")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))
}

func TestValidCardExpiry(t *testing.T) {
	assert.True(t, validCardExpiry("01/30"))
	assert.True(t, validCardExpiry("12/24"))
	assert.False(t, validCardExpiry("00/30"))
	assert.False(t, validCardExpiry("1/30"))
	assert.False(t, validCardExpiry("12-30"))
	assert.False(t, validCardExpiry("ab/cd"))
}

func TestProcessPaymentDeletesBlobWhenSaveFails(t *testing.T) {
	f := newPaymentFixture(t, 0)
	f.repo.failErr = sql.ErrConnDone

	_, err := f.svc.ProcessPayment(context.Background(), "", validPayment("basic"))
	assert.Equal(t, appErrors.ErrInternal.Code, appErrorCode(t, err))

	entries, err := os.ReadDir(filepath.Join(f.dir, "receipts"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
