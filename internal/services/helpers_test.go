package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/platform/sendgrid"
)

// env wires the real repos against an in-memory sqlite database.
type env struct {
	db       *gorm.DB
	log      *logger.Logger
	cache    cache.Cache
	users    repos.UserRepo
	addrs    repos.AddressRepo
	cats     repos.CategoryRepo
	products repos.ProductRepo
	variants repos.VariantRepo
	cart     repos.CartItemRepo
	merges   repos.CartMergeRepo
	orders   repos.OrderRepo
	returns  repos.ReturnRepo
	wishlist repos.WishlistRepo
	reviews  repos.ReviewRepo
	slides   repos.HeroSlideRepo
	settings SettingsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &env{
		db:       db,
		log:      log,
		cache:    cache.NewMemory(),
		users:    repos.NewUserRepo(db, log),
		addrs:    repos.NewAddressRepo(db, log),
		cats:     repos.NewCategoryRepo(db, log),
		products: repos.NewProductRepo(db, log),
		variants: repos.NewVariantRepo(db, log),
		cart:     repos.NewCartItemRepo(db, log),
		merges:   repos.NewCartMergeRepo(db, log),
		orders:   repos.NewOrderRepo(db, log),
		returns:  repos.NewReturnRepo(db, log),
		wishlist: repos.NewWishlistRepo(db, log),
		reviews:  repos.NewReviewRepo(db, log),
		slides:   repos.NewHeroSlideRepo(db, log),
		settings: NewSettingsService(log, repos.NewSettingRepo(db, log)),
	}
}

func (e *env) cartService() CartService {
	return NewCartService(e.db, e.log, CartDeps{
		CartItemRepo:  e.cart,
		CartMergeRepo: e.merges,
		ProductRepo:   e.products,
		VariantRepo:   e.variants,
		Guests:        NewGuestCartStore(e.cache, 0),
		Settings:      e.settings,
	})
}

func (e *env) steps(m Mailer) *fulfillmentSteps {
	return NewFulfillmentSteps(e.db, e.log, FulfillmentDeps{
		OrderRepo:    e.orders,
		ProductRepo:  e.products,
		VariantRepo:  e.variants,
		CartItemRepo: e.cart,
		UserRepo:     e.users,
		Settings:     e.settings,
		Mailer:       m,
		Cache:        e.cache,
	}).(*fulfillmentSteps)
}

func userCtx(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func guestCtx(guestID string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{GuestID: guestID})
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae), "expected *apierr.Error, got %T: %v", err, err)
	require.Equal(t, code, ae.Code, "error: %v", err)
}

type fakeGateway struct {
	mu       sync.Mutex
	failNext bool
	intents  []payments.CreateIntentRequest
	refunds  map[string]int64
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req payments.CreateIntentRequest) (*payments.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext {
		g.failNext = false
		return nil, errors.New("processor down")
	}
	g.intents = append(g.intents, req)
	return &payments.PaymentIntent{
		ID:           "pi_" + uuid.NewString()[:8],
		ClientSecret: "secret",
		Status:       "requires_payment_method",
		Amount:       req.AmountCents,
		Currency:     req.Currency,
		Metadata:     req.Metadata,
	}, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentIntentID string, amountCents int64) (*payments.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refunds == nil {
		g.refunds = map[string]int64{}
	}
	g.refunds[paymentIntentID] += amountCents
	return &payments.Refund{ID: "re_1", Status: "succeeded", Amount: amountCents}, nil
}

type recordingMail struct {
	mu   sync.Mutex
	sent []sendgrid.SendEmailRequest
}

func (r *recordingMail) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

func (r *recordingMail) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func ordersFilterFor(u *types.User) repos.OrderFilter {
	return repos.OrderFilter{UserID: &u.ID, Limit: 50}
}
