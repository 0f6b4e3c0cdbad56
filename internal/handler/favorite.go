package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bemyrider/internal/middleware"
	"bemyrider/internal/service"
)

// FavoriteHandler handles HTTP requests for a merchant's favorite riders.
type FavoriteHandler struct {
	favorites *service.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// AddFavoriteBody is the HTTP request body for adding a favorite.
type AddFavoriteBody struct {
	RiderID string `json:"riderId"`
}

// List handles GET /v1/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	riders, err := h.favorites.List(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"riders": toRiderCardResponses(riders)})
}

// Add handles POST /v1/favorites
func (h *FavoriteHandler) Add(c *gin.Context) {
	var body AddFavoriteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.favorites.Add(c.Request.Context(), middleware.PrincipalFrom(c), body.RiderID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /v1/favorites/:riderId
func (h *FavoriteHandler) Remove(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("riderId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
