package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bemyrider/internal/middleware"
	"bemyrider/internal/service"
)

// PaymentHandler handles HTTP requests for payment intents.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePaymentIntentBody is the HTTP request body for a destination charge.
type CreatePaymentIntentBody struct {
	RiderID     string          `json:"riderId"`
	MerchantID  string          `json:"merchantId"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime"`
	Hours       decimal.Decimal `json:"hours"`
	RiderAmount decimal.Decimal `json:"riderAmount"`
}

// PaymentIntentResponse is the HTTP response for a created payment intent.
type PaymentIntentResponse struct {
	ClientSecret    string           `json:"clientSecret"`
	PaymentIntentID string           `json:"paymentIntentId"`
	RiderAmount     string           `json:"riderAmount"`
	PlatformFee     string           `json:"platformFee"`
	TotalAmount     string           `json:"totalAmount"`
	Booking         *BookingResponse `json:"booking,omitempty"`
}

func toPaymentIntentResponse(result *service.PaymentIntentResult) PaymentIntentResponse {
	resp := PaymentIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.PaymentIntentID,
		RiderAmount:     result.Fees.RiderAmount.StringFixed(2),
		PlatformFee:     result.Fees.PlatformFee.StringFixed(2),
		TotalAmount:     result.Fees.TotalAmount.StringFixed(2),
	}
	if result.Booking != nil {
		b := toBookingResponse(result.Booking)
		resp.Booking = &b
	}
	return resp
}

// CreatePaymentIntent handles POST /v1/create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var body CreatePaymentIntentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.payments.CreatePaymentIntent(c.Request.Context(), middleware.PrincipalFrom(c), service.CreatePaymentIntentRequest{
		RiderID:        body.RiderID,
		MerchantID:     body.MerchantID,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		Hours:          body.Hours,
		RiderAmount:    body.RiderAmount,
		IdempotencyKey: middleware.IdempotencyKeyFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentIntentResponse(result))
}
