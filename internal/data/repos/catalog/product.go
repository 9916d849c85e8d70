package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// ErrInsufficientStock is returned when a conditional stock decrement matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

type ProductFilter struct {
	CategoryID    *uuid.UUID
	Search        string
	MinPriceCents *int64
	MaxPriceCents *int64
	FeaturedOnly  bool
	InStockOnly   bool
	IncludeHidden bool
	Sort          string
	Limit         int
	Offset        int
}

type ProductRepo interface {
	List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, int64, error)
	GetByID(dbc dbctx.Context, id uuid.UUID, withVariants bool) (*types.Product, error)
	GetBySlug(dbc dbctx.Context, slug string, withVariants bool) (*types.Product, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	SlugExists(dbc dbctx.Context, slug string, excludeID uuid.UUID) (bool, error)
	Create(dbc dbctx.Context, p *types.Product) error
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	DecrementStock(dbc dbctx.Context, id uuid.UUID, qty int) error
	Count(dbc dbctx.Context) (int64, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, int64, error) {
	q := dbc.DB(r.db).Model(&types.Product{})
	if !f.IncludeHidden {
		q = q.Where("is_active = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if f.MinPriceCents != nil {
		q = q.Where("price_cents >= ?", *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		q = q.Where("price_cents <= ?", *f.MaxPriceCents)
	}
	if f.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if f.InStockOnly {
		q = q.Where("stock > 0")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case SortPriceAsc:
		q = q.Order("price_cents ASC")
	case SortPriceDesc:
		q = q.Order("price_cents DESC")
	case SortName:
		q = q.Order("name ASC")
	default:
		q = q.Order("created_at DESC")
	}
	q = q.Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	out := []*types.Product{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *productRepo) preload(q *gorm.DB, withVariants bool) *gorm.DB {
	q = q.Preload("Category")
	if withVariants {
		q = q.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	}
	return q
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID, withVariants bool) (*types.Product, error) {
	var p types.Product
	res := r.preload(dbc.DB(r.db), withVariants).Where("id = ?", id).Limit(1).Find(&p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetBySlug(dbc dbctx.Context, slug string, withVariants bool) (*types.Product, error) {
	var p types.Product
	res := r.preload(dbc.DB(r.db), withVariants).Where("slug = ?", slug).Limit(1).Find(&p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	out := []*types.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *productRepo) SlugExists(dbc dbctx.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Unscoped().Model(&types.Product{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&n).Error
	return n > 0, err
}

func (r *productRepo) Create(dbc dbctx.Context, p *types.Product) error {
	return dbc.DB(r.db).Omit("Category").Create(p).Error
}

func (r *productRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Product{}).Where("id = ?", id).Updates(updates).Error
}

func (r *productRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Product{})
	return res.RowsAffected > 0, res.Error
}

// DecrementStock only succeeds when enough stock remains.
func (r *productRepo) DecrementStock(dbc dbctx.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Product{}).
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

func (r *productRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Product{}).Count(&n).Error
	return n, err
}
