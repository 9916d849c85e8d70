package content

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type SettingRepo interface {
	Get(dbc dbctx.Context, key string) (*types.Setting, error)
	Upsert(dbc dbctx.Context, key string, value datatypes.JSON) error
}

type settingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	return &settingRepo{db: db, log: baseLog.With("repo", "SettingRepo")}
}

func (r *settingRepo) Get(dbc dbctx.Context, key string) (*types.Setting, error) {
	var s types.Setting
	res := dbc.DB(r.db).Where("key = ?", key).Limit(1).Find(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *settingRepo) Upsert(dbc dbctx.Context, key string, value datatypes.JSON) error {
	row := &types.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
}
