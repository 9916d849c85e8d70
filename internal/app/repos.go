package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Address   repos.AddressRepo

	Category repos.CategoryRepo
	Product  repos.ProductRepo
	Variant  repos.VariantRepo
	Review   repos.ReviewRepo

	CartItem  repos.CartItemRepo
	CartMerge repos.CartMergeRepo
	Wishlist  repos.WishlistRepo
	Order     repos.OrderRepo
	Return    repos.ReturnRepo

	HeroSlide repos.HeroSlideRepo
	Setting   repos.SettingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Address:   repos.NewAddressRepo(db, log),

		Category: repos.NewCategoryRepo(db, log),
		Product:  repos.NewProductRepo(db, log),
		Variant:  repos.NewVariantRepo(db, log),
		Review:   repos.NewReviewRepo(db, log),

		CartItem:  repos.NewCartItemRepo(db, log),
		CartMerge: repos.NewCartMergeRepo(db, log),
		Wishlist:  repos.NewWishlistRepo(db, log),
		Order:     repos.NewOrderRepo(db, log),
		Return:    repos.NewReturnRepo(db, log),

		HeroSlide: repos.NewHeroSlideRepo(db, log),
		Setting:   repos.NewSettingRepo(db, log),
	}
}
