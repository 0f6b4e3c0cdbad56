package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bemyrider/internal/middleware"
	"bemyrider/internal/redis"
	"bemyrider/internal/service"
)

// RiderHandler handles HTTP requests for the public rider catalogue.
type RiderHandler struct {
	riders  *service.RiderService
	reviews *service.ReviewService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riders *service.RiderService, reviews *service.ReviewService) *RiderHandler {
	return &RiderHandler{
		riders:  riders,
		reviews: reviews,
	}
}

// SetRateBody is the HTTP request body for changing the caller's hourly rate.
type SetRateBody struct {
	HourlyRate decimal.Decimal `json:"hourlyRate"`
}

// RiderCardResponse is the public view of a rider.
type RiderCardResponse struct {
	ID                 string  `json:"id"`
	FullName           string  `json:"fullName"`
	HourlyRate         string  `json:"hourlyRate"`
	VehicleType        string  `json:"vehicleType,omitempty"`
	ActiveLocation     string  `json:"activeLocation"`
	Rating             *string `json:"rating"`
	CompletedJobs      int     `json:"completedJobs"`
	IsVerified         bool    `json:"isVerified"`
	IsPremium          bool    `json:"isPremium"`
	OnboardingComplete bool    `json:"onboardingComplete"`
}

func toRiderCardResponse(r *redis.CachedRider) RiderCardResponse {
	resp := RiderCardResponse{
		ID:                 r.ID,
		FullName:           r.FullName,
		HourlyRate:         r.HourlyRate.StringFixed(2),
		VehicleType:        r.VehicleType,
		ActiveLocation:     r.ActiveLocation,
		CompletedJobs:      r.CompletedJobs,
		IsVerified:         r.IsVerified,
		IsPremium:          r.IsPremium,
		OnboardingComplete: r.OnboardingComplete,
	}
	if r.Rating.Valid {
		v := r.Rating.Decimal.StringFixed(2)
		resp.Rating = &v
	}
	return resp
}

func toRiderCardResponses(riders []*redis.CachedRider) []RiderCardResponse {
	out := make([]RiderCardResponse, len(riders))
	for i, r := range riders {
		out[i] = toRiderCardResponse(r)
	}
	return out
}

// List handles GET /v1/riders?limit=N
func (h *RiderHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	riders, err := h.riders.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"riders": toRiderCardResponses(riders)})
}

// Get handles GET /v1/riders/:id
func (h *RiderHandler) Get(c *gin.Context) {
	rider, err := h.riders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderCardResponse(rider))
}

// Reviews handles GET /v1/riders/:id/reviews
func (h *RiderHandler) Reviews(c *gin.Context) {
	reviews, err := h.reviews.ListByRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = toReviewResponse(r)
	}
	respondJSON(c, http.StatusOK, gin.H{"reviews": out})
}

// SetRate handles PUT /v1/riders/me/rate
func (h *RiderHandler) SetRate(c *gin.Context) {
	var body SetRateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	details, err := h.riders.SetHourlyRate(c.Request.Context(), middleware.PrincipalFrom(c), body.HourlyRate)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderDetailsResponse(details))
}
