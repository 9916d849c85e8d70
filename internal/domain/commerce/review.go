package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/user"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is unique per (user, product).
type Review struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_product,priority:2;index" json:"product_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_product,priority:1" json:"user_id"`
	User             *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AuthorName       string     `gorm:"column:author_name" json:"author_name"`
	Rating           int        `gorm:"not null;column:rating" json:"rating"`
	Title            string     `gorm:"column:title" json:"title"`
	Body             string     `gorm:"column:body" json:"body"`
	VerifiedPurchase bool       `gorm:"not null;default:false;column:verified_purchase" json:"verified_purchase"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Review) TableName() string { return "review" }

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReviewSummary aggregates ratings for a product.
type ReviewSummary struct {
	ProductID uuid.UUID `json:"product_id"`
	Count     int64     `json:"count"`
	Average   float64   `json:"average"`
}
