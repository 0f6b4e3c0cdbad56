package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"bemyrider/internal/auth"
	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

const testUserID = "5d1f2a7e-8a0c-4b8e-b5a1-6f2b9d3c0b01"

type stubProfiles struct {
	profiles map[string]*domain.Profile
	err      error
}

func (s *stubProfiles) Create(ctx context.Context, profile *domain.Profile) error { return nil }
func (s *stubProfiles) Delete(ctx context.Context, id string) error              { return nil }

func (s *stubProfiles) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func newAuthRouter(tokens *auth.TokenManager, profiles repository.ProfileRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, profiles), func(c *gin.Context) {
		p := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "role": string(p.Role), "email": p.Email})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenManager("secret", "bemyrider", time.Hour)
	profiles := &stubProfiles{profiles: map[string]*domain.Profile{
		testUserID: {ID: testUserID, FullName: "Luca Bianchi", Role: domain.RoleRider},
	}}
	r := newAuthRouter(tokens, profiles)

	valid, err := tokens.Issue(testUserID, "luca@example.test")
	require.NoError(t, err)
	unknown, err := tokens.Issue("7b0e8c51-3f5a-4a43-9a59-0c1f6f2f0a01", "")
	require.NoError(t, err)
	notUUID, err := tokens.Issue("user-1", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{name: "bearer", header: "Bearer " + valid, status: http.StatusOK, body: `"role":"rider"`},
		{name: "cookie", cookie: valid, status: http.StatusOK, body: `"email":"luca@example.test"`},
		{name: "no profile yet", header: "Bearer " + unknown, status: http.StatusOK, body: `"role":""`},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "subject not a uuid", header: "Bearer " + notUUID, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				require.Contains(t, w.Body.String(), tt.body)
			}
		})
	}
}

func TestAuthMiddleware_ProfileLookupFailure(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenManager("secret", "bemyrider", time.Hour)
	r := newAuthRouter(tokens, &stubProfiles{err: errors.New("connection refused")})

	token, err := tokens.Issue(testUserID, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection refused")
}
