package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type VariantRepo interface {
	ListByProduct(dbc dbctx.Context, productID uuid.UUID) ([]*types.ProductVariant, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductVariant, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProductVariant, error)
	Create(dbc dbctx.Context, v *types.ProductVariant) error
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	DecrementStock(dbc dbctx.Context, id uuid.UUID, qty int) error
}

type variantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	return &variantRepo{db: db, log: baseLog.With("repo", "VariantRepo")}
}

func (r *variantRepo) ListByProduct(dbc dbctx.Context, productID uuid.UUID) ([]*types.ProductVariant, error) {
	out := []*types.ProductVariant{}
	err := dbc.DB(r.db).Where("product_id = ?", productID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *variantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductVariant, error) {
	var v types.ProductVariant
	res := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&v)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &v, nil
}

func (r *variantRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProductVariant, error) {
	out := []*types.ProductVariant{}
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *variantRepo) Create(dbc dbctx.Context, v *types.ProductVariant) error {
	return dbc.DB(r.db).Omit("Product").Create(v).Error
}

func (r *variantRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.ProductVariant{}).Where("id = ?", id).Updates(updates).Error
}

func (r *variantRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.ProductVariant{})
	return res.RowsAffected > 0, res.Error
}

func (r *variantRepo) DecrementStock(dbc dbctx.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.ProductVariant{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}
