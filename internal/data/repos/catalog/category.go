package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type CategoryRepo interface {
	List(dbc dbctx.Context, activeOnly bool) ([]*types.Category, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Category, error)
	SlugExists(dbc dbctx.Context, slug string, excludeID uuid.UUID) (bool, error)
	Create(dbc dbctx.Context, c *types.Category) error
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.Category, error) {
	out := []*types.Category{}
	q := dbc.DB(r.db).Order("sort_order ASC").Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error) {
	var c types.Category
	res := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Category, error) {
	var c types.Category
	res := dbc.DB(r.db).Where("slug = ?", slug).Limit(1).Find(&c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &c, nil
}

// SlugExists includes soft-deleted rows because the unique index does.
func (r *categoryRepo) SlugExists(dbc dbctx.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Unscoped().Model(&types.Category{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&n).Error
	return n > 0, err
}

func (r *categoryRepo) Create(dbc dbctx.Context, c *types.Category) error {
	return dbc.DB(r.db).Create(c).Error
}

func (r *categoryRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Category{}).Where("id = ?", id).Updates(updates).Error
}

func (r *categoryRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	t := dbc.DB(r.db)
	if err := t.Model(&types.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
		return false, err
	}
	res := t.Where("id = ?", id).Delete(&types.Category{})
	return res.RowsAffected > 0, res.Error
}
