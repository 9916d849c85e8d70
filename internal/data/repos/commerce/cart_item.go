package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

var cartLineColumns = []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "variant_id"}}

type CartItemRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CartItem, error)
	Get(dbc dbctx.Context, userID, productID, variantID uuid.UUID) (*types.CartItem, error)
	// AddQuantity increments the (user, product, variant) row by delta, inserting it when absent.
	AddQuantity(dbc dbctx.Context, userID, productID, variantID uuid.UUID, delta int) error
	SetQuantity(dbc dbctx.Context, userID, productID, variantID uuid.UUID, qty int) error
	Delete(dbc dbctx.Context, userID, productID, variantID uuid.UUID) (bool, error)
	ClearByUser(dbc dbctx.Context, userID uuid.UUID) error
}

type cartItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartItemRepo(db *gorm.DB, baseLog *logger.Logger) CartItemRepo {
	return &cartItemRepo{db: db, log: baseLog.With("repo", "CartItemRepo")}
}

func (r *cartItemRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CartItem, error) {
	out := []*types.CartItem{}
	err := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").Find(&out).Error
	return out, err
}

func (r *cartItemRepo) Get(dbc dbctx.Context, userID, productID, variantID uuid.UUID) (*types.CartItem, error) {
	var it types.CartItem
	res := dbc.DB(r.db).
		Where("user_id = ? AND product_id = ? AND variant_id = ?", userID, productID, variantID).
		Limit(1).Find(&it)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &it, nil
}

func (r *cartItemRepo) AddQuantity(dbc dbctx.Context, userID, productID, variantID uuid.UUID, delta int) error {
	row := &types.CartItem{UserID: userID, ProductID: productID, VariantID: variantID, Quantity: delta}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: cartLineColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_item.quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(row).Error
}

func (r *cartItemRepo) SetQuantity(dbc dbctx.Context, userID, productID, variantID uuid.UUID, qty int) error {
	row := &types.CartItem{UserID: userID, ProductID: productID, VariantID: variantID, Quantity: qty}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   cartLineColumns,
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(row).Error
}

func (r *cartItemRepo) Delete(dbc dbctx.Context, userID, productID, variantID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("user_id = ? AND product_id = ? AND variant_id = ?", userID, productID, variantID).
		Delete(&types.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *cartItemRepo) ClearByUser(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.DB(r.db).Where("user_id = ?", userID).Delete(&types.CartItem{}).Error
}
