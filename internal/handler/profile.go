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

// ProfileHandler handles HTTP requests for the caller's own profile.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterBody is the HTTP request body for creating the caller's profile.
type RegisterBody struct {
	FullName       string          `json:"fullName"`
	Role           string          `json:"role"`
	HourlyRate     decimal.Decimal `json:"hourlyRate"`
	VehicleType    string          `json:"vehicleType"`
	ActiveLocation string          `json:"activeLocation"`
}

// ProfileResponse is the HTTP representation of the caller's profile.
type ProfileResponse struct {
	ID        string                `json:"id"`
	FullName  string                `json:"fullName"`
	Role      string                `json:"role"`
	CreatedAt time.Time             `json:"createdAt"`
	Rider     *RiderDetailsResponse `json:"rider,omitempty"`
}

func toProfileResponse(v *service.ProfileView) ProfileResponse {
	return ProfileResponse{
		ID:        v.Profile.ID,
		FullName:  v.Profile.FullName,
		Role:      string(v.Profile.Role),
		CreatedAt: v.Profile.CreatedAt,
		Rider:     toRiderDetailsResponse(v.Rider),
	}
}

// Register handles POST /v1/profiles
func (h *ProfileHandler) Register(c *gin.Context) {
	var body RegisterBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	view, err := h.profiles.Register(c.Request.Context(), middleware.PrincipalFrom(c), service.RegisterRequest{
		FullName:       body.FullName,
		Role:           domain.Role(body.Role),
		HourlyRate:     body.HourlyRate,
		VehicleType:    domain.VehicleType(body.VehicleType),
		ActiveLocation: body.ActiveLocation,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toProfileResponse(view))
}

// Me handles GET /v1/profiles/me
func (h *ProfileHandler) Me(c *gin.Context) {
	view, err := h.profiles.Get(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toProfileResponse(view))
}

// DeleteAccount handles DELETE /v1/account
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	if err := h.profiles.DeleteAccount(c.Request.Context(), middleware.PrincipalFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"success": true})
}
