package app

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/http"
	httpH "github.com/yungbote/storefront-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storefront-backend/internal/http/middleware"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	AuthLimiter *cache.RateLimiter
	APILimiter  *cache.RateLimiter
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Realtime     *httpH.RealtimeHandler
	Catalog      *httpH.CatalogHandler
	CatalogAdmin *httpH.CatalogAdminHandler
	Cart         *httpH.CartHandler
	Wishlist     *httpH.WishlistHandler
	Address      *httpH.AddressHandler
	Order        *httpH.OrderHandler
	Return       *httpH.ReturnHandler
	Content      *httpH.ContentHandler
	Settings     *httpH.SettingsHandler
	Media        *httpH.MediaHandler
	Dashboard    *httpH.DashboardHandler
	Webhook      *httpH.WebhookHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub, ping httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(ping),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.User),
		Realtime:     httpH.NewRealtimeHandler(log, sseHub),
		Catalog:      httpH.NewCatalogHandler(services.Catalog, services.Reviews),
		CatalogAdmin: httpH.NewCatalogAdminHandler(services.CatalogAdmin),
		Cart:         httpH.NewCartHandler(services.Cart),
		Wishlist:     httpH.NewWishlistHandler(services.Wishlist),
		Address:      httpH.NewAddressHandler(services.Addresses),
		Order:        httpH.NewOrderHandler(services.Checkout, services.Orders),
		Return:       httpH.NewReturnHandler(services.Returns),
		Content:      httpH.NewContentHandler(services.Content),
		Settings:     httpH.NewSettingsHandler(services.Settings),
		Media:        httpH.NewMediaHandler(services.Media),
		Dashboard:    httpH.NewDashboardHandler(services.Dashboard),
		Webhook:      httpH.NewWebhookHandler(log, services.Webhooks),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services, c cache.Cache) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{Auth: httpMW.NewAuthMiddleware(log, services.Auth)}
	if cfg.AuthRateLimit > 0 {
		mw.AuthLimiter = cache.NewRateLimiter(c, cfg.AuthRateLimit, time.Minute)
	}
	if cfg.RateLimitPerMinute > 0 {
		mw.APILimiter = cache.NewRateLimiter(c, cfg.RateLimitPerMinute, time.Minute)
	}
	return mw
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, mw Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = strings.TrimSpace(cfg.Otel.ServiceName)
		if serviceName == "" {
			serviceName = "storefront-api"
		}
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		CORSOrigins:    cfg.CORSOrigins,
		ServiceName:    serviceName,
		AuthLimiter:    mw.AuthLimiter,
		APILimiter:     mw.APILimiter,
		AuthMiddleware: mw.Auth,

		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		RealtimeHandler:     handlers.Realtime,
		CatalogHandler:      handlers.Catalog,
		CatalogAdminHandler: handlers.CatalogAdmin,
		CartHandler:         handlers.Cart,
		WishlistHandler:     handlers.Wishlist,
		AddressHandler:      handlers.Address,
		OrderHandler:        handlers.Order,
		ReturnHandler:       handlers.Return,
		ContentHandler:      handlers.Content,
		SettingsHandler:     handlers.Settings,
		MediaHandler:        handlers.Media,
		DashboardHandler:    handlers.Dashboard,
		WebhookHandler:      handlers.Webhook,
	})
}

func dbPinger(a *App) httpH.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
