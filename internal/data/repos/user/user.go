package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	GetByExternalID(dbc dbctx.Context, externalID string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdateName(dbc dbctx.Context, id uuid.UUID, firstName, lastName string) error
	UpdateRole(dbc dbctx.Context, id uuid.UUID, role string) error
	UpdateAvatar(dbc dbctx.Context, id uuid.UUID, bucketKey, avatarURL string) error
	UpsertByExternalID(dbc dbctx.Context, u *types.User) (*types.User, error)
	SoftDeleteByExternalID(dbc dbctx.Context, externalID string) (bool, error)
	Count(dbc dbctx.Context) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) error {
	u.Email = normalizeEmail(u.Email)
	return dbc.DB(r.db).Create(u).Error
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var u types.User
	res := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	out := []*types.User{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var u types.User
	res := dbc.DB(r.db).Where("email = ?", email).Limit(1).Find(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByExternalID(dbc dbctx.Context, externalID string) (*types.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var u types.User
	res := dbc.DB(r.db).Where("external_id = ?", externalID).Limit(1).Find(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.User{}).Where("email = ?", normalizeEmail(email)).Count(&n).Error
	return n > 0, err
}

func (r *userRepo) UpdateName(dbc dbctx.Context, id uuid.UUID, firstName, lastName string) error {
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"first_name": firstName, "last_name": lastName}).Error
}

func (r *userRepo) UpdateRole(dbc dbctx.Context, id uuid.UUID, role string) error {
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *userRepo) UpdateAvatar(dbc dbctx.Context, id uuid.UUID, bucketKey, avatarURL string) error {
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"avatar_bucket_key": bucketKey, "avatar_url": avatarURL}).Error
}

// UpsertByExternalID inserts or refreshes the user mirrored from the auth
// provider. Role is never overwritten on conflict.
func (r *userRepo) UpsertByExternalID(dbc dbctx.Context, u *types.User) (*types.User, error) {
	if u.ExternalID == nil || strings.TrimSpace(*u.ExternalID) == "" {
		return nil, gorm.ErrMissingWhereClause
	}
	u.Email = normalizeEmail(u.Email)
	t := dbc.DB(r.db)
	err := t.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "avatar_url", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return r.GetByExternalID(dbc, *u.ExternalID)
}

func (r *userRepo) SoftDeleteByExternalID(dbc dbctx.Context, externalID string) (bool, error) {
	res := dbc.DB(r.db).Where("external_id = ?", strings.TrimSpace(externalID)).Delete(&types.User{})
	return res.RowsAffected > 0, res.Error
}

func (r *userRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.User{}).Count(&n).Error
	return n, err
}
