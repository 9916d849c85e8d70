package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type HeroSlideRepo interface {
	List(dbc dbctx.Context, activeOnly bool) ([]*types.HeroSlide, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HeroSlide, error)
	Create(dbc dbctx.Context, s *types.HeroSlide) error
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	// Reorder assigns sort_order by position in ids.
	Reorder(dbc dbctx.Context, ids []uuid.UUID) error
	MaxSortOrder(dbc dbctx.Context) (int, error)
}

type heroSlideRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHeroSlideRepo(db *gorm.DB, baseLog *logger.Logger) HeroSlideRepo {
	return &heroSlideRepo{db: db, log: baseLog.With("repo", "HeroSlideRepo")}
}

func (r *heroSlideRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.HeroSlide, error) {
	out := []*types.HeroSlide{}
	q := dbc.DB(r.db).Order("sort_order ASC").Order("created_at ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *heroSlideRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HeroSlide, error) {
	var s types.HeroSlide
	res := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *heroSlideRepo) Create(dbc dbctx.Context, s *types.HeroSlide) error {
	return dbc.DB(r.db).Create(s).Error
}

func (r *heroSlideRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.HeroSlide{}).Where("id = ?", id).Updates(updates).Error
}

func (r *heroSlideRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.HeroSlide{})
	return res.RowsAffected > 0, res.Error
}

func (r *heroSlideRepo) Reorder(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.DB(r.db)
	for i, id := range ids {
		if err := t.Model(&types.HeroSlide{}).Where("id = ?", id).Update("sort_order", i).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *heroSlideRepo) MaxSortOrder(dbc dbctx.Context) (int, error) {
	var max int
	err := dbc.DB(r.db).Model(&types.HeroSlide{}).Select("COALESCE(MAX(sort_order), -1)").Scan(&max).Error
	return max, err
}
