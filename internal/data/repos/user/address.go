package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type AddressRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Address, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Address, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	Create(dbc dbctx.Context, a *types.Address) error
	Update(dbc dbctx.Context, a *types.Address) error
	Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
	// ClearDefault unsets is_default on every address of the user except keepID.
	ClearDefault(dbc dbctx.Context, userID, keepID uuid.UUID) error
	MarkDefault(dbc dbctx.Context, userID, id uuid.UUID) error
	Newest(dbc dbctx.Context, userID uuid.UUID) (*types.Address, error)
}

type addressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAddressRepo(db *gorm.DB, baseLog *logger.Logger) AddressRepo {
	return &addressRepo{db: db, log: baseLog.With("repo", "AddressRepo")}
}

func (r *addressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Address, error) {
	out := []*types.Address{}
	err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *addressRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Address, error) {
	var a types.Address
	res := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).Limit(1).Find(&a)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *addressRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *addressRepo) Create(dbc dbctx.Context, a *types.Address) error {
	return dbc.DB(r.db).Create(a).Error
}

func (r *addressRepo) Update(dbc dbctx.Context, a *types.Address) error {
	return dbc.DB(r.db).Model(&types.Address{}).
		Where("id = ? AND user_id = ?", a.ID, a.UserID).
		Updates(map[string]interface{}{
			"full_name":   a.FullName,
			"line1":       a.Line1,
			"line2":       a.Line2,
			"city":        a.City,
			"state":       a.State,
			"postal_code": a.PostalCode,
			"country":     a.Country,
			"phone":       a.Phone,
		}).Error
}

func (r *addressRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&types.Address{})
	return res.RowsAffected > 0, res.Error
}

func (r *addressRepo) ClearDefault(dbc dbctx.Context, userID, keepID uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keepID, true).
		Update("is_default", false).Error
}

func (r *addressRepo) MarkDefault(dbc dbctx.Context, userID, id uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_default", true).Error
}

func (r *addressRepo) Newest(dbc dbctx.Context, userID uuid.UUID) (*types.Address, error) {
	var a types.Address
	res := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at DESC").Limit(1).Find(&a)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &a, nil
}
