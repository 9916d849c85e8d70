package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HeroSlide struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null;column:title" json:"title"`
	Subtitle  string    `gorm:"column:subtitle" json:"subtitle"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	LinkURL   string    `gorm:"column:link_url" json:"link_url"`
	CTAText   string    `gorm:"column:cta_text" json:"cta_text"`
	SortOrder int       `gorm:"not null;default:0;index;column:sort_order" json:"sort_order"`
	IsActive  bool      `gorm:"not null;column:is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (HeroSlide) TableName() string { return "hero_slide" }

func (h *HeroSlide) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
