package commerce

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type WishlistRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.WishlistItem, error)
	Add(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error)
	Remove(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error)
	Exists(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error)
}

type wishlistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWishlistRepo(db *gorm.DB, baseLog *logger.Logger) WishlistRepo {
	return &wishlistRepo{db: db, log: baseLog.With("repo", "WishlistRepo")}
}

func (r *wishlistRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.WishlistItem, error) {
	out := []*types.WishlistItem{}
	err := dbc.DB(r.db).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Add reports whether a new row was inserted.
func (r *wishlistRepo) Add(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Omit("Product").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(&types.WishlistItem{UserID: userID, ProductID: productID})
	return res.RowsAffected == 1, res.Error
}

func (r *wishlistRepo) Remove(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&types.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *wishlistRepo) Exists(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}
