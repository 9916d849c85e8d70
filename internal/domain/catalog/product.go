package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"not null;column:name" json:"name"`
	Slug           string         `gorm:"not null;uniqueIndex;column:slug" json:"slug"`
	Description    string         `gorm:"column:description" json:"description"`
	PriceCents     int64          `gorm:"not null;column:price_cents" json:"price_cents"`
	CompareAtCents *int64         `gorm:"column:compare_at_cents" json:"compare_at_cents,omitempty"`
	CategoryID     *uuid.UUID     `gorm:"type:uuid;index;column:category_id" json:"category_id,omitempty"`
	Category       *Category      `gorm:"constraint:OnDelete:SET NULL;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Images         datatypes.JSON `gorm:"column:images" json:"images"`
	Stock          int            `gorm:"not null;default:0;column:stock" json:"stock"`
	IsActive       bool           `gorm:"not null;index;column:is_active" json:"is_active"`
	IsFeatured     bool           `gorm:"not null;default:false;index;column:is_featured" json:"is_featured"`

	Variants []*ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if len(p.Images) == 0 {
		p.Images = datatypes.JSON("[]")
	}
	return nil
}

// ImageURLs decodes the images column; malformed json yields nil.
func (p *Product) ImageURLs() []string {
	if p == nil || len(p.Images) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.Images, &out); err != nil {
		return nil
	}
	return out
}

func (p *Product) PrimaryImage() string {
	if urls := p.ImageURLs(); len(urls) > 0 {
		return urls[0]
	}
	return ""
}

func EncodeImages(urls []string) datatypes.JSON {
	if urls == nil {
		urls = []string{}
	}
	b, _ := json.Marshal(urls)
	return datatypes.JSON(b)
}

// ProductVariant is a purchasable option of a product (size, colour).
// Its unit price is the product price plus PriceAdjustmentCents.
type ProductVariant struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID            uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product              *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"-"`
	Name                 string    `gorm:"not null;column:name" json:"name"`
	SKU                  string    `gorm:"column:sku;index" json:"sku"`
	Color                string    `gorm:"column:color" json:"color"`
	Size                 string    `gorm:"column:size" json:"size"`
	PriceAdjustmentCents int64     `gorm:"not null;default:0;column:price_adjustment_cents" json:"price_adjustment_cents"`
	Stock                int       `gorm:"not null;default:0;column:stock" json:"stock"`
	IsActive             bool      `gorm:"not null;column:is_active" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProductVariant) TableName() string { return "product_variant" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
