package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bemyrider/internal/domain"
	"bemyrider/internal/middleware"
	"bemyrider/internal/service"
)

// ServiceRequestHandler handles HTTP requests for service requests.
type ServiceRequestHandler struct {
	requests *service.ServiceRequestService
	payments *service.PaymentService
}

// NewServiceRequestHandler creates a new ServiceRequestHandler.
func NewServiceRequestHandler(requests *service.ServiceRequestService, payments *service.PaymentService) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		requests: requests,
		payments: payments,
	}
}

// CreateServiceRequestBody is the HTTP request body for creating a service request.
type CreateServiceRequestBody struct {
	RiderID         string          `json:"riderId"`
	StartDate       string          `json:"startDate"`
	StartTime       string          `json:"startTime"`
	Duration        decimal.Decimal `json:"duration"`
	Description     string          `json:"description"`
	MerchantAddress string          `json:"merchantAddress"`
	UserID          string          `json:"userId"`
}

// RespondBody is the HTTP request body for a rider's answer.
type RespondBody struct {
	Status        string `json:"status"`
	RiderResponse string `json:"riderResponse"`
	UserID        string `json:"userId"`
}

// RespondResponse is the HTTP response for a rider's answer.
type RespondResponse struct {
	Success bool                   `json:"success"`
	Request ServiceRequestResponse `json:"request"`
	Message string                 `json:"message"`
}

// Create handles POST /v1/service-requests
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	var body CreateServiceRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req, err := h.requests.Create(c.Request.Context(), middleware.PrincipalFrom(c), service.CreateServiceRequestParams{
		RiderID:         body.RiderID,
		StartDate:       body.StartDate,
		StartTime:       body.StartTime,
		DurationHours:   body.Duration,
		Description:     body.Description,
		MerchantAddress: body.MerchantAddress,
		UserID:          body.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toServiceRequestResponse(req))
}

// Respond handles PUT /v1/service-requests/:id/respond
func (h *ServiceRequestHandler) Respond(c *gin.Context) {
	var body RespondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req, err := h.requests.Respond(c.Request.Context(), middleware.PrincipalFrom(c), service.RespondRequest{
		RequestID:     c.Param("id"),
		Status:        domain.ServiceRequestStatus(body.Status),
		RiderResponse: body.RiderResponse,
		UserID:        body.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RespondResponse{
		Success: true,
		Request: toServiceRequestResponse(req),
		Message: fmt.Sprintf("Service request %s successfully", req.Status),
	})
}

// List handles GET /v1/service-requests?type=merchant|rider
func (h *ServiceRequestHandler) List(c *gin.Context) {
	requests, err := h.requests.List(c.Request.Context(), middleware.PrincipalFrom(c), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ServiceRequestResponse, len(requests))
	for i, r := range requests {
		out[i] = toServiceRequestResponse(r)
	}
	respondJSON(c, http.StatusOK, gin.H{"requests": out})
}

// Get handles GET /v1/service-requests/:id
func (h *ServiceRequestHandler) Get(c *gin.Context) {
	req, err := h.requests.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toServiceRequestResponse(req))
}

// Checkout handles POST /v1/service-requests/:id/checkout
func (h *ServiceRequestHandler) Checkout(c *gin.Context) {
	result, err := h.payments.CheckoutServiceRequest(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentIntentResponse(result))
}
