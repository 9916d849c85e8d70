package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/catalog"
)

type WishlistItem struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product,priority:1" json:"user_id"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product,priority:2" json:"product_id"`
	Product   *catalog.Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (WishlistItem) TableName() string { return "wishlist_item" }

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
