package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
	"github.com/yungbote/storefront-backend/internal/services"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Avatar   services.AvatarService
	Media    services.MediaService
	Settings services.SettingsService
	Mailer   services.Mailer

	Catalog      services.CatalogService
	CatalogAdmin services.CatalogAdminService
	Reviews      services.ReviewService
	Content      services.ContentService

	Cart      services.CartService
	Wishlist  services.WishlistService
	Addresses services.AddressService
	Checkout  services.CheckoutService
	Orders    services.OrderService
	Returns   services.ReturnService
	Dashboard services.DashboardService
	Webhooks  services.WebhookService

	Fulfillment fulfillment.Steps
	Dispatcher  fulfillment.Dispatcher
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	r Repos,
	clients Clients,
	emitter *realtime.Emitter,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")
	var s Services

	renderer, err := services.NewTileRenderer()
	if err != nil {
		return s, fmt.Errorf("init tile renderer: %w", err)
	}
	s.Media = services.NewMediaService(log, clients.Bucket, renderer)
	s.Avatar = services.NewAvatarService(log, r.User, clients.Bucket, renderer)
	s.Auth = services.NewAuthService(db, log, r.User, r.UserToken, s.Avatar, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	s.User = services.NewUserService(log, r.User, s.Avatar)
	s.Settings = services.NewSettingsService(log, r.Setting)
	s.Mailer = services.NewMailer(log, clients.Mail, metrics)

	catalogDeps := services.CatalogDeps{
		CategoryRepo: r.Category,
		ProductRepo:  r.Product,
		VariantRepo:  r.Variant,
		ReviewRepo:   r.Review,
		Media:        s.Media,
		Cache:        clients.Cache,
		CacheTTL:     cfg.CatalogCacheTTL,
		Emitter:      emitter,
		Metrics:      metrics,
	}
	s.Catalog = services.NewCatalogService(db, log, catalogDeps)
	s.CatalogAdmin = services.NewCatalogAdminService(db, log, catalogDeps)
	s.Reviews = services.NewReviewService(db, log, r.Review, r.Product, r.Order, r.User, clients.Cache)
	s.Content = services.NewContentService(db, log, r.HeroSlide, s.Media, clients.Cache, emitter)

	s.Cart = services.NewCartService(db, log, services.CartDeps{
		CartItemRepo:  r.CartItem,
		CartMergeRepo: r.CartMerge,
		ProductRepo:   r.Product,
		VariantRepo:   r.Variant,
		Guests:        services.NewGuestCartStore(clients.Cache, cfg.GuestCartTTL),
		Settings:      s.Settings,
		Emitter:       emitter,
		Metrics:       metrics,
	})
	s.Wishlist = services.NewWishlistService(db, log, r.Wishlist, r.Product, emitter)
	s.Addresses = services.NewAddressService(db, log, r.Address)

	s.Fulfillment = services.NewFulfillmentSteps(db, log, services.FulfillmentDeps{
		OrderRepo:    r.Order,
		ProductRepo:  r.Product,
		VariantRepo:  r.Variant,
		CartItemRepo: r.CartItem,
		UserRepo:     r.User,
		Settings:     s.Settings,
		Mailer:       s.Mailer,
		Cache:        clients.Cache,
		Emitter:      emitter,
		Metrics:      metrics,
	})
	if clients.Temporal != nil {
		s.Dispatcher = fulfillment.NewTemporalDispatcher(log, clients.Temporal, cfg.Temporal.TaskQueue)
	} else {
		s.Dispatcher = fulfillment.NewInlineDispatcher(log, s.Fulfillment)
	}

	s.Checkout = services.NewCheckoutService(db, log, services.CheckoutDeps{
		CartItemRepo: r.CartItem,
		ProductRepo:  r.Product,
		VariantRepo:  r.Variant,
		AddressRepo:  r.Address,
		OrderRepo:    r.Order,
		UserRepo:     r.User,
		Settings:     s.Settings,
		Gateway:      clients.Gateway,
		Emitter:      emitter,
		Metrics:      metrics,
	})
	s.Orders = services.NewOrderService(db, log, services.OrderDeps{
		OrderRepo:  r.Order,
		UserRepo:   r.User,
		Settings:   s.Settings,
		Gateway:    clients.Gateway,
		Dispatcher: s.Dispatcher,
		Mailer:     s.Mailer,
		Emitter:    emitter,
	})
	s.Returns = services.NewReturnService(db, log, services.ReturnDeps{
		ReturnRepo: r.Return,
		OrderRepo:  r.Order,
		UserRepo:   r.User,
		Settings:   s.Settings,
		Gateway:    clients.Gateway,
		Mailer:     s.Mailer,
		Emitter:    emitter,
	})
	s.Dashboard = services.NewDashboardService(log, r.Product, r.User, r.Order, r.Return)
	s.Webhooks = services.NewWebhookService(log, services.WebhookDeps{
		OrderRepo:      r.Order,
		UserRepo:       r.User,
		Dispatcher:     s.Dispatcher,
		PaymentsSecret: cfg.Payments.WebhookSecret,
		AuthSecret:     cfg.AuthWebhookSecret,
		Emitter:        emitter,
		Metrics:        metrics,
	})
	return s, nil
}
