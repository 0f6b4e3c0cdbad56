package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bemyrider/internal/middleware"
	"bemyrider/internal/service"
)

// OnboardingHandler handles HTTP requests for riders' payout onboarding.
type OnboardingHandler struct {
	onboarding *service.OnboardingService
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(onboarding *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

// OnboardingResponse is the HTTP response for onboarding operations.
type OnboardingResponse struct {
	URL             string `json:"url,omitempty"`
	StripeAccountID string `json:"stripeAccountId,omitempty"`
	Status          string `json:"status"`
	Complete        bool   `json:"onboardingComplete"`
}

func toOnboardingResponse(r *service.OnboardingResult) OnboardingResponse {
	return OnboardingResponse{
		URL:             r.URL,
		StripeAccountID: r.StripeAccountID,
		Status:          r.Status,
		Complete:        r.Complete,
	}
}

// Start handles POST /v1/stripe/onboarding
func (h *OnboardingHandler) Start(c *gin.Context) {
	result, err := h.onboarding.Start(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOnboardingResponse(result))
}

// Status handles GET /v1/stripe/onboarding
func (h *OnboardingHandler) Status(c *gin.Context) {
	result, err := h.onboarding.Status(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOnboardingResponse(result))
}

// LoginLink handles POST /v1/stripe/login-link
func (h *OnboardingHandler) LoginLink(c *gin.Context) {
	url, err := h.onboarding.LoginLink(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"url": url})
}
