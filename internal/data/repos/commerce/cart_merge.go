package commerce

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type CartMergeRepo interface {
	// Claim records the merge and reports false when the revision was already applied.
	Claim(dbc dbctx.Context, userID uuid.UUID, guestID, revision string, lines int) (bool, error)
}

type cartMergeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartMergeRepo(db *gorm.DB, baseLog *logger.Logger) CartMergeRepo {
	return &cartMergeRepo{db: db, log: baseLog.With("repo", "CartMergeRepo")}
}

func (r *cartMergeRepo) Claim(dbc dbctx.Context, userID uuid.UUID, guestID, revision string, lines int) (bool, error) {
	row := &types.CartMerge{UserID: userID, GuestID: guestID, Revision: revision, LineCount: lines}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "guest_id"}, {Name: "revision"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
