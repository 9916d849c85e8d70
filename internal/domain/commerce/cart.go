package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/catalog"
	"github.com/yungbote/storefront-backend/internal/domain/user"
)

// CartItem is one line of a signed-in user's cart. VariantID is uuid.Nil when
// the product has no variant selected, so the unique index covers both cases.
type CartItem struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_line,priority:1" json:"user_id"`
	User      *user.User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_line,priority:2" json:"product_id"`
	Product   *catalog.Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"-"`
	VariantID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_line,priority:3" json:"variant_id"`
	Quantity  int              `gorm:"not null;column:quantity" json:"quantity"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_item" }

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartMerge records that a guest cart revision has been folded into a user's
// cart. A second consolidation of the same revision is a no-op.
type CartMerge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_merge_rev,priority:1" json:"user_id"`
	GuestID   string    `gorm:"not null;uniqueIndex:idx_cart_merge_rev,priority:2" json:"guest_id"`
	Revision  string    `gorm:"not null;uniqueIndex:idx_cart_merge_rev,priority:3" json:"revision"`
	LineCount int       `gorm:"not null;default:0" json:"line_count"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (CartMerge) TableName() string { return "cart_merge" }

func (c *CartMerge) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
