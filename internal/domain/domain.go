package domain

import (
	"github.com/yungbote/storefront-backend/internal/domain/auth"
	"github.com/yungbote/storefront-backend/internal/domain/catalog"
	"github.com/yungbote/storefront-backend/internal/domain/commerce"
	"github.com/yungbote/storefront-backend/internal/domain/content"
	"github.com/yungbote/storefront-backend/internal/domain/user"
)

const (
	RoleCustomer = user.RoleCustomer
	RoleAdmin    = user.RoleAdmin

	OrderStatusPending    = commerce.OrderStatusPending
	OrderStatusPaid       = commerce.OrderStatusPaid
	OrderStatusProcessing = commerce.OrderStatusProcessing
	OrderStatusShipped    = commerce.OrderStatusShipped
	OrderStatusDelivered  = commerce.OrderStatusDelivered
	OrderStatusCancelled  = commerce.OrderStatusCancelled
	OrderStatusRefunded   = commerce.OrderStatusRefunded

	PaymentStatusUnpaid    = commerce.PaymentStatusUnpaid
	PaymentStatusSucceeded = commerce.PaymentStatusSucceeded
	PaymentStatusFailed    = commerce.PaymentStatusFailed
	PaymentStatusRefunded  = commerce.PaymentStatusRefunded

	ReturnStatusRequested = commerce.ReturnStatusRequested
	ReturnStatusApproved  = commerce.ReturnStatusApproved
	ReturnStatusRejected  = commerce.ReturnStatusRejected
	ReturnStatusReceived  = commerce.ReturnStatusReceived
	ReturnStatusRefunded  = commerce.ReturnStatusRefunded

	MinRating = commerce.MinRating
	MaxRating = commerce.MaxRating

	SettingSite     = content.SettingSite
	SettingPayment  = content.SettingPayment
	SettingTax      = content.SettingTax
	SettingShipping = content.SettingShipping
)

type (
	User      = user.User
	Address   = user.Address
	UserToken = auth.UserToken

	Category       = catalog.Category
	Product        = catalog.Product
	ProductVariant = catalog.ProductVariant

	CartItem      = commerce.CartItem
	CartMerge     = commerce.CartMerge
	Order         = commerce.Order
	OrderItem     = commerce.OrderItem
	ReturnRequest = commerce.ReturnRequest
	ReturnLine    = commerce.ReturnLine
	WishlistItem  = commerce.WishlistItem
	Review        = commerce.Review
	ReviewSummary = commerce.ReviewSummary

	HeroSlide        = content.HeroSlide
	Setting          = content.Setting
	SiteSettings     = content.SiteSettings
	PaymentSettings  = content.PaymentSettings
	TaxSettings      = content.TaxSettings
	ShippingSettings = content.ShippingSettings
)

var (
	CanTransition    = commerce.CanTransition
	IsOrderStatus    = commerce.IsOrderStatus
	CountsAsPurchase = commerce.CountsAsPurchase
	EncodeImages     = catalog.EncodeImages

	DefaultSiteSettings     = content.DefaultSiteSettings
	DefaultPaymentSettings  = content.DefaultPaymentSettings
	DefaultTaxSettings      = content.DefaultTaxSettings
	DefaultShippingSettings = content.DefaultShippingSettings
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&UserToken{},
		&Address{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&CartItem{},
		&CartMerge{},
		&Order{},
		&OrderItem{},
		&ReturnRequest{},
		&WishlistItem{},
		&Review{},
		&HeroSlide{},
		&Setting{},
	}
}
