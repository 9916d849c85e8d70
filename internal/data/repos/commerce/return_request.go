package commerce

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

var openReturnStatuses = []string{
	types.ReturnStatusRequested,
	types.ReturnStatusApproved,
	types.ReturnStatusReceived,
}

type ReturnFilter struct {
	UserID *uuid.UUID
	Status string
	Limit  int
	Offset int
}

type ReturnRepo interface {
	Create(dbc dbctx.Context, rr *types.ReturnRequest) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReturnRequest, error)
	List(dbc dbctx.Context, f ReturnFilter) ([]*types.ReturnRequest, int64, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	HasOpenForOrder(dbc dbctx.Context, orderID uuid.UUID) (bool, error)
	CountOpen(dbc dbctx.Context) (int64, error)
}

type returnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReturnRepo(db *gorm.DB, baseLog *logger.Logger) ReturnRepo {
	return &returnRepo{db: db, log: baseLog.With("repo", "ReturnRepo")}
}

func (r *returnRepo) Create(dbc dbctx.Context, rr *types.ReturnRequest) error {
	return dbc.DB(r.db).Omit("Order").Create(rr).Error
}

func (r *returnRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReturnRequest, error) {
	var rr types.ReturnRequest
	res := dbc.DB(r.db).Preload("Order").Where("id = ?", id).Limit(1).Find(&rr)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &rr, nil
}

func (r *returnRepo) List(dbc dbctx.Context, f ReturnFilter) ([]*types.ReturnRequest, int64, error) {
	q := dbc.DB(r.db).Model(&types.ReturnRequest{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Preload("Order").Order("created_at DESC").Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	out := []*types.ReturnRequest{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *returnRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.ReturnRequest{}).Where("id = ?", id).Updates(updates).Error
}

func (r *returnRepo) HasOpenForOrder(dbc dbctx.Context, orderID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ReturnRequest{}).
		Where("order_id = ? AND status IN ?", orderID, openReturnStatuses).
		Count(&n).Error
	return n > 0, err
}

func (r *returnRepo) CountOpen(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ReturnRequest{}).Where("status IN ?", openReturnStatuses).Count(&n).Error
	return n, err
}
