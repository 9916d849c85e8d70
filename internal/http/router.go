package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/storefront-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storefront-backend/internal/http/middleware"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	ServiceName    string
	AuthLimiter    *cache.RateLimiter
	APILimiter     *cache.RateLimiter
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	RealtimeHandler     *httpH.RealtimeHandler
	CatalogHandler      *httpH.CatalogHandler
	CatalogAdminHandler *httpH.CatalogAdminHandler
	CartHandler         *httpH.CartHandler
	WishlistHandler     *httpH.WishlistHandler
	AddressHandler      *httpH.AddressHandler
	OrderHandler        *httpH.OrderHandler
	ReturnHandler       *httpH.ReturnHandler
	ContentHandler      *httpH.ContentHandler
	SettingsHandler     *httpH.SettingsHandler
	MediaHandler        *httpH.MediaHandler
	DashboardHandler    *httpH.DashboardHandler
	WebhookHandler      *httpH.WebhookHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Webhooks verify their own signatures and never carry a user token.
	if cfg.WebhookHandler != nil {
		api.POST("/webhooks/payments", cfg.WebhookHandler.Payments)
		api.POST("/webhooks/auth", cfg.WebhookHandler.Auth)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		limited := api.Group("/", httpMW.RateLimit("auth", cfg.AuthLimiter, cfg.Metrics))
		limited.POST("/register", cfg.AuthHandler.Register)
		limited.POST("/login", cfg.AuthHandler.Login)
		limited.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	am := cfg.AuthMiddleware
	if am == nil {
		return r
	}

	// Optional auth: guests browse and keep a cart under X-Guest-Id.
	open := api.Group("/", am.OptionalAuth(), httpMW.RateLimit("api", cfg.APILimiter, cfg.Metrics))
	{
		if cfg.CatalogHandler != nil {
			open.GET("/categories", cfg.CatalogHandler.ListCategories)
			open.GET("/products", cfg.CatalogHandler.ListProducts)
			open.GET("/products/:id", cfg.CatalogHandler.GetProduct)
			open.GET("/products/:id/reviews", cfg.CatalogHandler.ListReviews)
		}
		if cfg.ContentHandler != nil {
			open.GET("/hero-slides", cfg.ContentHandler.HeroSlides)
		}
		if cfg.SettingsHandler != nil {
			open.GET("/settings", cfg.SettingsHandler.Public)
		}
		if cfg.CartHandler != nil {
			open.GET("/cart", cfg.CartHandler.Get)
			open.POST("/cart/items", cfg.CartHandler.Add)
			open.PATCH("/cart/items", cfg.CartHandler.UpdateQuantity)
			open.DELETE("/cart/items/:productId", cfg.CartHandler.Remove)
			open.DELETE("/cart", cfg.CartHandler.Clear)
			open.POST("/cart/preview", cfg.CartHandler.Preview)
		}
		if cfg.WishlistHandler != nil {
			open.GET("/wishlist", cfg.WishlistHandler.List)
		}
		if cfg.RealtimeHandler != nil {
			open.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	protected := api.Group("/", am.RequireAuth(), httpMW.RateLimit("api", cfg.APILimiter, cfg.Metrics))
	{
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.ChangeName)
			protected.POST("/me/avatar", cfg.UserHandler.UploadAvatar)
		}
		if cfg.CartHandler != nil {
			protected.POST("/cart/consolidate", cfg.CartHandler.Consolidate)
		}
		if cfg.WishlistHandler != nil {
			protected.GET("/wishlist/:productId", cfg.WishlistHandler.Contains)
			protected.PUT("/wishlist/:productId", cfg.WishlistHandler.Add)
			protected.DELETE("/wishlist/:productId", cfg.WishlistHandler.Remove)
			protected.POST("/wishlist/:productId/toggle", cfg.WishlistHandler.Toggle)
		}
		if cfg.CatalogHandler != nil {
			protected.POST("/products/:id/reviews", cfg.CatalogHandler.CreateReview)
			protected.PATCH("/reviews/:id", cfg.CatalogHandler.UpdateReview)
			protected.DELETE("/reviews/:id", cfg.CatalogHandler.DeleteReview)
		}
		if cfg.AddressHandler != nil {
			protected.GET("/addresses", cfg.AddressHandler.List)
			protected.POST("/addresses", cfg.AddressHandler.Create)
			protected.PUT("/addresses/:id", cfg.AddressHandler.Update)
			protected.DELETE("/addresses/:id", cfg.AddressHandler.Delete)
			protected.POST("/addresses/:id/default", cfg.AddressHandler.SetDefault)
		}
		if cfg.OrderHandler != nil {
			protected.GET("/checkout/quote", cfg.OrderHandler.Quote)
			protected.POST("/checkout", cfg.OrderHandler.Checkout)
			protected.GET("/orders", cfg.OrderHandler.ListMine)
			protected.GET("/orders/:id", cfg.OrderHandler.GetMine)
			protected.POST("/orders/:id/cancel", cfg.OrderHandler.CancelMine)
		}
		if cfg.ReturnHandler != nil {
			protected.GET("/returns", cfg.ReturnHandler.ListMine)
			protected.POST("/returns", cfg.ReturnHandler.Create)
		}
	}

	admin := protected.Group("/admin", am.RequireAdmin())
	{
		if cfg.DashboardHandler != nil {
			admin.GET("/dashboard", cfg.DashboardHandler.Stats)
		}
		if cfg.UserHandler != nil {
			admin.PATCH("/users/:id/role", cfg.UserHandler.SetRole)
		}
		if cfg.CatalogAdminHandler != nil {
			h := cfg.CatalogAdminHandler
			admin.GET("/categories", h.ListCategories)
			admin.POST("/categories", h.CreateCategory)
			admin.PATCH("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)
			admin.GET("/products", h.ListProducts)
			admin.GET("/products/:id", h.GetProduct)
			admin.POST("/products", h.CreateProduct)
			admin.PATCH("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/variants", h.CreateVariant)
			admin.PATCH("/products/:id/variants/:variantId", h.UpdateVariant)
			admin.DELETE("/products/:id/variants/:variantId", h.DeleteVariant)
		}
		if cfg.OrderHandler != nil {
			admin.GET("/orders", cfg.OrderHandler.List)
			admin.GET("/orders/:id", cfg.OrderHandler.Get)
			admin.PATCH("/orders/:id/status", cfg.OrderHandler.UpdateStatus)
			admin.PATCH("/orders/:id/tracking", cfg.OrderHandler.SetTracking)
		}
		if cfg.ReturnHandler != nil {
			admin.GET("/returns", cfg.ReturnHandler.List)
			admin.PATCH("/returns/:id", cfg.ReturnHandler.UpdateStatus)
		}
		if cfg.ContentHandler != nil {
			admin.GET("/hero-slides", cfg.ContentHandler.AdminHeroSlides)
			admin.POST("/hero-slides", cfg.ContentHandler.CreateHeroSlide)
			admin.PUT("/hero-slides/order", cfg.ContentHandler.ReorderHeroSlides)
			admin.PATCH("/hero-slides/:id", cfg.ContentHandler.UpdateHeroSlide)
			admin.DELETE("/hero-slides/:id", cfg.ContentHandler.DeleteHeroSlide)
		}
		if cfg.SettingsHandler != nil {
			admin.GET("/settings", cfg.SettingsHandler.All)
			admin.PUT("/settings/:key", cfg.SettingsHandler.Update)
		}
		if cfg.MediaHandler != nil {
			admin.POST("/media", cfg.MediaHandler.Upload)
			admin.POST("/media/placeholder", cfg.MediaHandler.Placeholder)
		}
	}

	return r
}
