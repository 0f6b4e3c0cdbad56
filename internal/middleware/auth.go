package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bemyrider/internal/auth"
	"bemyrider/internal/repository"
	"bemyrider/internal/service"
)

const (
	principalKey      = "principal"
	sessionCookieName = "access_token"
)

// AuthMiddleware resolves the caller from a bearer token or session cookie.
// The role always comes from the stored profile, never from the token.
// An identity without a profile yet is authenticated with an empty role.
func AuthMiddleware(tokens *auth.TokenManager, profiles repository.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if _, err := uuid.Parse(claims.Subject); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		principal := &service.Principal{ID: claims.Subject, Email: claims.Email}

		profile, err := profiles.GetByID(c.Request.Context(), claims.Subject)
		switch {
		case err == nil:
			principal.Role = profile.Role
		case errors.Is(err, repository.ErrNotFound):
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the caller resolved by AuthMiddleware, or nil.
func PrincipalFrom(c *gin.Context) *service.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*service.Principal)
	return p
}

// SetPrincipal attaches a principal to the request context.
func SetPrincipal(c *gin.Context, p *service.Principal) {
	c.Set(principalKey, p)
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie
	}
	return ""
}
