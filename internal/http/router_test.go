package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	httpH "github.com/yungbote/storefront-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storefront-backend/internal/http/middleware"
	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/services"
)

const webhookSecret = "whsec_router"

type harness struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	c := cache.NewMemory()

	users := repos.NewUserRepo(db, log)
	products := repos.NewProductRepo(db, log)
	variants := repos.NewVariantRepo(db, log)
	orders := repos.NewOrderRepo(db, log)
	cartItems := repos.NewCartItemRepo(db, log)
	settings := services.NewSettingsService(log, repos.NewSettingRepo(db, log))

	auth := services.NewAuthService(db, log, users, repos.NewUserTokenRepo(db, log), nil, "router-secret", 0, 0)
	catalog := services.NewCatalogService(db, log, services.CatalogDeps{
		CategoryRepo: repos.NewCategoryRepo(db, log),
		ProductRepo:  products,
		VariantRepo:  variants,
		ReviewRepo:   repos.NewReviewRepo(db, log),
		Cache:        c,
	})
	cartSvc := services.NewCartService(db, log, services.CartDeps{
		CartItemRepo:  cartItems,
		CartMergeRepo: repos.NewCartMergeRepo(db, log),
		ProductRepo:   products,
		VariantRepo:   variants,
		Guests:        services.NewGuestCartStore(c, 0),
		Settings:      settings,
	})
	webhooks := services.NewWebhookService(log, services.WebhookDeps{
		OrderRepo:      orders,
		UserRepo:       users,
		PaymentsSecret: webhookSecret,
	})

	router := NewRouter(RouterConfig{
		Log:                 log,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:       httpH.NewHealthHandler(nil),
		AuthHandler:         httpH.NewAuthHandler(auth),
		CatalogHandler:      httpH.NewCatalogHandler(catalog, nil),
		CartHandler:         httpH.NewCartHandler(cartSvc),
		SettingsHandler:     httpH.NewSettingsHandler(settings),
		DashboardHandler:    httpH.NewDashboardHandler(services.NewDashboardService(log, products, users, orders, repos.NewReturnRepo(db, log))),
		WebhookHandler:      httpH.NewWebhookHandler(log, webhooks),
		CatalogAdminHandler: httpH.NewCatalogAdminHandler(services.NewCatalogAdminService(db, log, services.CatalogDeps{CategoryRepo: repos.NewCategoryRepo(db, log), ProductRepo: products, VariantRepo: variants, Cache: c})),
	})
	return &harness{t: t, db: db, router: router}
}

type call struct {
	method string
	path   string
	body   any
	token  string
	guest  string
}

func (h *harness) do(c call) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.guest != "" {
		req.Header.Set(httpMW.HeaderGuestID, c.guest)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h *harness) login(email string) string {
	h.t.Helper()
	rec := h.do(call{method: http.MethodPost, path: "/api/register", body: map[string]string{
		"email": email, "password": "correct horse", "first_name": "Ada",
	}})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = h.do(call{method: http.MethodPost, path: "/api/login", body: map[string]string{
		"email": email, "password": "correct horse",
	}})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[services.TokenPair](h.t, rec).AccessToken
}

func TestHealthcheck(t *testing.T) {
	h := newHarness(t)
	rec := h.do(call{method: http.MethodGet, path: "/healthcheck"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPublicCatalogAndErrorEnvelope(t *testing.T) {
	h := newHarness(t)
	p := testutil.SeedProduct(t, context.Background(), h.db, "mug", 1500, 5)

	rec := h.do(call{method: http.MethodGet, path: "/api/products?sort=price_asc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[services.ProductPage](t, rec)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, p.ID, page.Items[0].ID)

	rec = h.do(call{method: http.MethodGet, path: "/api/products/mug"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/api/products/no-such-thing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decode[response.ErrorEnvelope](t, rec)
	assert.Equal(t, "not_found", env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
}

func TestGuestCartConsolidatesAfterLogin(t *testing.T) {
	h := newHarness(t)
	p := testutil.SeedProduct(t, context.Background(), h.db, "mug", 1500, 5)
	guest := uuid.NewString()

	rec := h.do(call{method: http.MethodPost, path: "/api/cart/items", guest: guest, body: map[string]any{
		"product_id": p.ID, "quantity": 2,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[services.CartView](t, rec)
	require.True(t, view.Guest)
	require.Len(t, view.Lines, 1)

	rec = h.do(call{method: http.MethodGet, path: "/api/cart"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "guest_id_required", decode[response.ErrorEnvelope](t, rec).Error.Code)

	token := h.login("shopper@example.com")
	rec = h.do(call{method: http.MethodPost, path: "/api/cart/consolidate", token: token, guest: guest})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ConsolidateResult](t, rec)
	require.True(t, res.Applied)
	require.Len(t, res.Cart.Lines, 1)
	assert.Equal(t, 2, res.Cart.Lines[0].Quantity)
	assert.False(t, res.Cart.Guest)

	rec = h.do(call{method: http.MethodGet, path: "/api/cart", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[services.CartView](t, rec).Lines, 1)
}

func TestConsolidateRequiresSignIn(t *testing.T) {
	h := newHarness(t)
	rec := h.do(call{method: http.MethodPost, path: "/api/cart/consolidate", guest: uuid.NewString()})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode[response.ErrorEnvelope](t, rec).Error.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t)
	token := h.login("shopper@example.com")

	rec := h.do(call{method: http.MethodGet, path: "/api/admin/dashboard", token: token})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var u types.User
	require.NoError(t, h.db.Where("email = ?", "shopper@example.com").First(&u).Error)
	require.NoError(t, h.db.Model(&u).Update("role", types.RoleAdmin).Error)

	rec = h.do(call{method: http.MethodGet, path: "/api/admin/dashboard", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(call{method: http.MethodPost, path: "/api/admin/products", token: token, body: map[string]any{
		"name": "Tea Pot", "price_cents": 2500, "stock": 3,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(call{method: http.MethodGet, path: "/api/products/tea-pot"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	rec := h.do(call{method: http.MethodPost, path: "/api/webhooks/payments", body: map[string]any{"type": "payment_intent.succeeded"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_signature", decode[response.ErrorEnvelope](t, rec).Error.Code)
}

func TestInvalidPathIDIsBadRequest(t *testing.T) {
	h := newHarness(t)
	token := h.login("shopper@example.com")
	rec := h.do(call{method: http.MethodDelete, path: "/api/cart/items/not-a-uuid", token: token})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode[response.ErrorEnvelope](t, rec).Error.Code)
}
