package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/services"
)

// stubAuth accepts the tokens it knows and rejects everything else.
type stubAuth struct {
	services.AuthService
	tokens map[string]*ctxutil.RequestData
}

func (s stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := s.tokens[token]
	if !ok {
		return ctx, apierr.Unauthenticated("invalid or expired token")
	}
	next := *rd
	if cur := ctxutil.GetRequestData(ctx); cur != nil {
		next.GuestID = cur.GuestID
	}
	return ctxutil.WithRequestData(ctx, &next), nil
}

var (
	customerID = uuid.New()
	adminID    = uuid.New()
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), stubAuth{tokens: map[string]*ctxutil.RequestData{
		"customer": {UserID: customerID, Role: types.RoleCustomer},
		"admin":    {UserID: adminID, Role: types.RoleAdmin},
	}})

	whoami := func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String(), "guest_id": rd.GuestID})
	}
	r := gin.New()
	r.Use(AttachRequestContext())
	r.GET("/optional", am.OptionalAuth(), whoami)
	r.GET("/private", am.RequireAuth(), whoami)
	r.GET("/admin", am.RequireAuth(), am.RequireAdmin(), whoami)
	return r
}

func do(r http.Handler, path, token, guest string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if guest != "" {
		req.Header.Set(HeaderGuestID, guest)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareGates(t *testing.T) {
	r := newAuthRouter(t)
	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/optional", "", http.StatusOK},
		{"/optional", "customer", http.StatusOK},
		{"/optional", "bogus", http.StatusUnauthorized},
		{"/private", "", http.StatusUnauthorized},
		{"/private", "customer", http.StatusOK},
		{"/admin", "customer", http.StatusForbidden},
		{"/admin", "admin", http.StatusOK},
	}
	for _, tc := range cases {
		rec := do(r, tc.path, tc.token, "")
		assert.Equal(t, tc.want, rec.Code, "%s with %q", tc.path, tc.token)
	}
}

func TestGuestIDSurvivesSignIn(t *testing.T) {
	r := newAuthRouter(t)
	guest := uuid.NewString()
	rec := do(r, "/private", "customer", guest)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), guest)
	assert.Contains(t, rec.Body.String(), customerID.String())
}

func TestTokenFromQueryParam(t *testing.T) {
	r := newAuthRouter(t)
	rec := do(r, "/private?token=customer", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := cache.NewRateLimiter(cache.NewMemory(), 2, time.Minute)
	r := gin.New()
	r.Use(AttachRequestContext())
	r.POST("/login", RateLimit("auth", limiter, nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "other clients keep their own budget")
}

func TestTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		c.String(http.StatusOK, td.RequestID)
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Body.String())
	assert.Equal(t, "req-123", rec.Header().Get(headerRequestID))
	assert.NotEmpty(t, rec.Header().Get(headerTraceID))
}
