package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/config"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/export"
	"github.com/noah-isme/lob-api/pkg/middleware/requestid"
	"github.com/noah-isme/lob-api/pkg/storage"
)

const receiptContentType = "application/pdf"

type paymentRepository interface {
	CreateReceipt(ctx context.Context, receipt *models.PaymentReceipt) error
	FindReceipt(ctx context.Context, id string) (*models.PaymentReceipt, error)
}

type receiptSigner interface {
	Generate(ownerID, blobPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (ownerID, blobPath string, expiresAt time.Time, err error)
}

var pricingPlans = []dto.PricingPlan{
	{Name: "basic", Number: 1, Title: "Basic", Price: 9, Features: []string{"1 user", "Email support", "Basic statistics"}},
	{Name: "pro", Number: 2, Title: "Pro", Price: 29, Features: []string{"10 users", "Priority support", "Extended statistics"}},
	{Name: "enterprise", Number: 3, Title: "Enterprise", Price: 99, Features: []string{"Unlimited users", "Dedicated support", "Audit exports"}},
}

// PaymentDeps groups the collaborators of PaymentService.
type PaymentDeps struct {
	Repo      paymentRepository
	Blobs     storage.BlobStorage
	Signer    receiptSigner
	PDF       *export.PDFExporter
	Validator *validator.Validate
	Logger    *zap.Logger
}

// PaymentService simulates a card checkout and issues PDF receipts.
type PaymentService struct {
	repo        paymentRepository
	blobs       storage.BlobStorage
	signer      receiptSigner
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	config      config.PaymentConfig
	receiptsDir string
	now         func() time.Time
}

// NewPaymentService constructs the service and registers the card_expiry validation tag.
func NewPaymentService(deps PaymentDeps, cfg config.PaymentConfig, receiptsDir string) *PaymentService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.PDF == nil {
		deps.PDF = export.NewPDFExporter()
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if receiptsDir == "" {
		receiptsDir = "receipts"
	}
	svc := &PaymentService{
		repo:        deps.Repo,
		blobs:       deps.Blobs,
		signer:      deps.Signer,
		pdf:         deps.PDF,
		validator:   deps.Validator,
		logger:      deps.Logger,
		config:      cfg,
		receiptsDir: receiptsDir,
		now:         time.Now,
	}
	svc.validator.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return validCardExpiry(fl.Field().String())
	})
	return svc
}

// validCardExpiry accepts MM/YY with a month between 01 and 12.
func validCardExpiry(value string) bool {
	month, year, ok := strings.Cut(value, "/")
	if !ok || len(month) != 2 || len(year) != 2 {
		return false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	_, err = strconv.Atoi(year)
	return err == nil
}

// GetPlans lists the pricing plans.
func (s *PaymentService) GetPlans() []dto.PricingPlan {
	plans := make([]dto.PricingPlan, 0, len(pricingPlans))
	for _, plan := range pricingPlans {
		plans = append(plans, s.withDestination(plan))
	}
	return plans
}

// ResolvePlan maps a plan number to its plan. Unknown numbers point back at the pricing page.
func (s *PaymentService) ResolvePlan(number int) dto.PricingPlan {
	for _, plan := range pricingPlans {
		if plan.Number == number {
			return s.withDestination(plan)
		}
	}
	return dto.PricingPlan{Destination: models.PagePricing, Currency: s.config.Currency}
}

func (s *PaymentService) withDestination(plan dto.PricingPlan) dto.PricingPlan {
	plan.Currency = s.config.Currency
	plan.Destination = models.PagePayment + "?plan=" + url.QueryEscape(plan.Name)
	plan.Features = append([]string(nil), plan.Features...)
	return plan
}

func planByName(name string) dto.PricingPlan {
	for _, plan := range pricingPlans {
		if strings.EqualFold(plan.Name, strings.TrimSpace(name)) {
			return plan
		}
	}
	return pricingPlans[0]
}

// ProcessPayment validates the card, waits for the simulated processor and stores a receipt.
// userID is empty for anonymous checkouts.
func (s *PaymentService) ProcessPayment(ctx context.Context, userID string, req dto.ProcessPaymentRequest) (*dto.PaymentResult, error) {
	req.CardNumber = strings.ReplaceAll(strings.TrimSpace(req.CardNumber), " ", "")
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid payment details")
	}
	plan := planByName(req.Plan)

	if s.config.SimulatedDelay > 0 {
		timer := time.NewTimer(s.config.SimulatedDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := s.now().UTC()
	receipt := &models.PaymentReceipt{
		ID:             uuid.NewString(),
		Plan:           plan.Name,
		AmountCents:    int(plan.Price * 100),
		Currency:       s.config.Currency,
		CardholderName: strings.TrimSpace(req.CardholderName),
		CardLast4:      req.CardNumber[len(req.CardNumber)-4:],
		CreatedAt:      now,
	}
	if userID != "" {
		receipt.UserID = &userID
	}
	receipt.BlobPath = path.Join(s.receiptsDir, receipt.ID+".pdf")

	amount := fmt.Sprintf("%.2f", plan.Price)
	masked := maskCard(receipt.CardLast4)
	pdfBytes, err := s.pdf.RenderReceipt(export.Receipt{
		Number:     receipt.ID,
		IssuedAt:   now,
		Merchant:   "LOB",
		Cardholder: receipt.CardholderName,
		MaskedCard: masked,
		PlanName:   plan.Title,
		Amount:     amount,
		Currency:   receipt.Currency,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	if err := s.blobs.Write(ctx, receipt.BlobPath, bytes.NewReader(pdfBytes), receiptContentType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store receipt")
	}
	if err := s.repo.CreateReceipt(ctx, receipt); err != nil {
		if delErr := s.blobs.Delete(ctx, receipt.BlobPath); delErr != nil {
			requestid.Logger(ctx, s.logger).Warn("failed to delete orphaned receipt", zap.String("path", receipt.BlobPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save receipt")
	}

	token, expiresAt, err := s.signer.Generate(receipt.ID, receipt.BlobPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign receipt url")
	}
	s.logger.Info("payment processed", zap.String("receipt_id", receipt.ID), zap.String("plan", plan.Name))
	return &dto.PaymentResult{
		ReceiptID:  receipt.ID,
		Plan:       plan.Name,
		Amount:     plan.Price,
		Currency:   receipt.Currency,
		MaskedCard: masked,
		ReceiptURL: "/api/Payment/GetReceipt?id=" + url.QueryEscape(receipt.ID) + "&token=" + url.QueryEscape(token),
		ExpiresAt:  expiresAt,
	}, nil
}

// GetReceipt opens the receipt PDF addressed by a signed token. The caller closes the reader.
func (s *PaymentService) GetReceipt(ctx context.Context, id, token string) (io.ReadCloser, error) {
	ownerID, blobPath, _, err := s.signer.Parse(token, false)
	if err != nil || ownerID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired receipt link")
	}
	receipt, err := s.repo.FindReceipt(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	if receipt.BlobPath != blobPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired receipt link")
	}
	r, err := s.blobs.OpenRead(ctx, blobPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open receipt")
	}
	return r, nil
}

func maskCard(last4 string) string {
	return "**** **** **** " + last4
}
