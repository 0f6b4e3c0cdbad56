package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bemyrider/internal/domain"
	"bemyrider/internal/middleware"
	"bemyrider/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookings *service.BookingService
	receipts *service.ReceiptService
	reviews  *service.ReviewService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *service.BookingService, receipts *service.ReceiptService, reviews *service.ReviewService) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		receipts: receipts,
		reviews:  reviews,
	}
}

// CreateBookingBody is the HTTP request body for a direct booking.
type CreateBookingBody struct {
	RiderID   string          `json:"riderId"`
	StartDate string          `json:"startDate"`
	StartTime string          `json:"startTime"`
	Duration  decimal.Decimal `json:"duration"`
}

// CreateReviewBody is the HTTP request body for reviewing a completed booking.
type CreateReviewBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReceiptResponse is the HTTP response for a booking receipt.
type ReceiptResponse struct {
	ID            string          `json:"id"`
	BookingID     string          `json:"bookingId"`
	ReceiptNumber int64           `json:"receiptNumber"`
	ReceiptDate   string          `json:"receiptDate"`
	Booking       BookingResponse `json:"booking"`
}

// Create handles POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), middleware.PrincipalFrom(c), service.CreateBookingRequest{
		RiderID:       body.RiderID,
		StartDate:     body.StartDate,
		StartTime:     body.StartTime,
		DurationHours: body.Duration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// List handles GET /v1/bookings
func (h *BookingHandler) List(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"bookings": toBookingResponses(bookings)})
}

// Get handles GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Confirm handles POST /v1/bookings/:id/confirm
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, domain.BookingConfirmed)
}

// Start handles POST /v1/bookings/:id/start
func (h *BookingHandler) Start(c *gin.Context) {
	h.transition(c, domain.BookingInProgress)
}

// Complete handles POST /v1/bookings/:id/complete
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, domain.BookingCompleted)
}

// Cancel handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, domain.BookingCancelled)
}

func (h *BookingHandler) transition(c *gin.Context, to domain.BookingStatus) {
	booking, err := h.bookings.Transition(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Receipt handles GET /v1/bookings/:id/receipt. ?format=text returns the printable receipt.
func (h *BookingHandler) Receipt(c *gin.Context) {
	receipt, booking, err := h.receipts.GetReceipt(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, h.receipts.FormatReceipt(receipt, booking))
		return
	}

	respondJSON(c, http.StatusOK, ReceiptResponse{
		ID:            receipt.ID,
		BookingID:     receipt.BookingID,
		ReceiptNumber: receipt.ReceiptNumber,
		ReceiptDate:   receipt.ReceiptDate.Format(time.DateOnly),
		Booking:       toBookingResponse(booking),
	})
}

// Review handles POST /v1/bookings/:id/review
func (h *BookingHandler) Review(c *gin.Context) {
	var body CreateReviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), body.Rating, body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReviewResponse(review))
}
