package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos/auth"
	"github.com/yungbote/storefront-backend/internal/data/repos/catalog"
	"github.com/yungbote/storefront-backend/internal/data/repos/commerce"
	"github.com/yungbote/storefront-backend/internal/data/repos/content"
	"github.com/yungbote/storefront-backend/internal/data/repos/user"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type AddressRepo = user.AddressRepo
type UserTokenRepo = auth.UserTokenRepo

type CategoryRepo = catalog.CategoryRepo
type ProductRepo = catalog.ProductRepo
type VariantRepo = catalog.VariantRepo
type ProductFilter = catalog.ProductFilter

type CartItemRepo = commerce.CartItemRepo
type CartMergeRepo = commerce.CartMergeRepo
type OrderRepo = commerce.OrderRepo
type OrderFilter = commerce.OrderFilter
type ReturnRepo = commerce.ReturnRepo
type ReturnFilter = commerce.ReturnFilter
type WishlistRepo = commerce.WishlistRepo
type ReviewRepo = commerce.ReviewRepo

type HeroSlideRepo = content.HeroSlideRepo
type SettingRepo = content.SettingRepo

const (
	SortNewest    = catalog.SortNewest
	SortPriceAsc  = catalog.SortPriceAsc
	SortPriceDesc = catalog.SortPriceDesc
	SortName      = catalog.SortName
)

var ErrInsufficientStock = catalog.ErrInsufficientStock

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewAddressRepo(db *gorm.DB, log *logger.Logger) AddressRepo {
	return user.NewAddressRepo(db, log)
}
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}

func NewCategoryRepo(db *gorm.DB, log *logger.Logger) CategoryRepo {
	return catalog.NewCategoryRepo(db, log)
}
func NewProductRepo(db *gorm.DB, log *logger.Logger) ProductRepo {
	return catalog.NewProductRepo(db, log)
}
func NewVariantRepo(db *gorm.DB, log *logger.Logger) VariantRepo {
	return catalog.NewVariantRepo(db, log)
}

func NewCartItemRepo(db *gorm.DB, log *logger.Logger) CartItemRepo {
	return commerce.NewCartItemRepo(db, log)
}
func NewCartMergeRepo(db *gorm.DB, log *logger.Logger) CartMergeRepo {
	return commerce.NewCartMergeRepo(db, log)
}
func NewOrderRepo(db *gorm.DB, log *logger.Logger) OrderRepo { return commerce.NewOrderRepo(db, log) }
func NewReturnRepo(db *gorm.DB, log *logger.Logger) ReturnRepo {
	return commerce.NewReturnRepo(db, log)
}
func NewWishlistRepo(db *gorm.DB, log *logger.Logger) WishlistRepo {
	return commerce.NewWishlistRepo(db, log)
}
func NewReviewRepo(db *gorm.DB, log *logger.Logger) ReviewRepo {
	return commerce.NewReviewRepo(db, log)
}

func NewHeroSlideRepo(db *gorm.DB, log *logger.Logger) HeroSlideRepo {
	return content.NewHeroSlideRepo(db, log)
}
func NewSettingRepo(db *gorm.DB, log *logger.Logger) SettingRepo {
	return content.NewSettingRepo(db, log)
}
