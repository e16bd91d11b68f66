package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lob-api/internal/dto"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/response"
)

type paymentService interface {
	GetPlans() []dto.PricingPlan
	ResolvePlan(number int) dto.PricingPlan
	ProcessPayment(ctx context.Context, userID string, req dto.ProcessPaymentRequest) (*dto.PaymentResult, error)
	GetReceipt(ctx context.Context, id, token string) (io.ReadCloser, error)
}

// PaymentHandler serves pricing and the simulated checkout.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// GetPlans godoc
// @Summary Pricing plans
// @Tags Payment
// @Produce json
// @Success 200 {object} response.Envelope{data=[]dto.PricingPlan}
// @Router /api/Payment/GetPlans [get]
func (h *PaymentHandler) GetPlans(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GetPlans())
}

// ResolvePlan godoc
// @Summary Resolve a plan number to its checkout destination
// @Tags Payment
// @Produce json
// @Param number path int true "Plan number"
// @Success 200 {object} response.Envelope{data=dto.PricingPlan}
// @Router /api/Payment/ResolvePlan/{number} [get]
func (h *PaymentHandler) ResolvePlan(c *gin.Context) {
	number, _ := strconv.Atoi(c.Param("number"))
	response.JSON(c, http.StatusOK, h.service.ResolvePlan(number))
}

// ProcessPayment godoc
// @Summary Pay for a plan
// @Tags Payment
// @Accept json
// @Produce json
// @Param payload body dto.ProcessPaymentRequest true "Card details"
// @Success 200 {object} response.Envelope{data=dto.PaymentResult}
// @Failure 422 {object} response.Problem
// @Router /api/Payment/ProcessPayment [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req dto.ProcessPaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	userID := ""
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}
	res, err := h.service.ProcessPayment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// GetReceipt godoc
// @Summary Download a receipt through its signed link
// @Tags Payment
// @Produce application/pdf
// @Param id query string true "Receipt ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Router /api/Payment/GetReceipt [get]
func (h *PaymentHandler) GetReceipt(c *gin.Context) {
	id, token := c.Query("id"), c.Query("token")
	if id == "" || token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "id and token are required"))
		return
	}
	rc, err := h.service.GetReceipt(c.Request.Context(), id, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `inline; filename="receipt-`+id+`.pdf"`)
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, -1, "application/pdf", rc, nil)
}
