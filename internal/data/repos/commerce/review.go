package commerce

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type ReviewRepo interface {
	ListByProduct(dbc dbctx.Context, productID uuid.UUID, limit, offset int) ([]*types.Review, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Review, error)
	GetByUserProduct(dbc dbctx.Context, userID, productID uuid.UUID) (*types.Review, error)
	Create(dbc dbctx.Context, rv *types.Review) error
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Summary(dbc dbctx.Context, productID uuid.UUID) (types.ReviewSummary, error)
	Summaries(dbc dbctx.Context, productIDs []uuid.UUID) (map[uuid.UUID]types.ReviewSummary, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) ListByProduct(dbc dbctx.Context, productID uuid.UUID, limit, offset int) ([]*types.Review, error) {
	out := []*types.Review{}
	q := dbc.DB(r.db).Where("product_id = ?", productID).Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *reviewRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Review, error) {
	var rv types.Review
	res := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rv)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &rv, nil
}

func (r *reviewRepo) GetByUserProduct(dbc dbctx.Context, userID, productID uuid.UUID) (*types.Review, error) {
	var rv types.Review
	res := dbc.DB(r.db).Where("user_id = ? AND product_id = ?", userID, productID).Limit(1).Find(&rv)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &rv, nil
}

// Create surfaces gorm.ErrDuplicatedKey when the user already reviewed the product.
func (r *reviewRepo) Create(dbc dbctx.Context, rv *types.Review) error {
	return dbc.DB(r.db).Omit("User").Create(rv).Error
}

func (r *reviewRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Review{}).Where("id = ?", id).Updates(updates).Error
}

func (r *reviewRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Review{})
	return res.RowsAffected > 0, res.Error
}

type summaryRow struct {
	ProductID uuid.UUID
	N         int64
	Avg       float64
}

func (r *reviewRepo) Summary(dbc dbctx.Context, productID uuid.UUID) (types.ReviewSummary, error) {
	m, err := r.Summaries(dbc, []uuid.UUID{productID})
	if err != nil {
		return types.ReviewSummary{}, err
	}
	if s, ok := m[productID]; ok {
		return s, nil
	}
	return types.ReviewSummary{ProductID: productID}, nil
}

func (r *reviewRepo) Summaries(dbc dbctx.Context, productIDs []uuid.UUID) (map[uuid.UUID]types.ReviewSummary, error) {
	out := make(map[uuid.UUID]types.ReviewSummary, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []summaryRow
	if err := dbc.DB(r.db).Model(&types.Review{}).
		Select("product_id, COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = types.ReviewSummary{ProductID: row.ProductID, Count: row.N, Average: row.Avg}
	}
	return out, nil
}
