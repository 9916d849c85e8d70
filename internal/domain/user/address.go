package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a saved shipping address. At most one per user has IsDefault set.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	FullName   string    `gorm:"not null;column:full_name" json:"full_name"`
	Line1      string    `gorm:"not null;column:line1" json:"line1"`
	Line2      string    `gorm:"column:line2" json:"line2"`
	City       string    `gorm:"not null;column:city" json:"city"`
	State      string    `gorm:"column:state" json:"state"`
	PostalCode string    `gorm:"not null;column:postal_code" json:"postal_code"`
	Country    string    `gorm:"not null;column:country" json:"country"`
	Phone      string    `gorm:"column:phone" json:"phone"`
	IsDefault  bool      `gorm:"not null;default:false;index;column:is_default" json:"is_default"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Address) TableName() string { return "address" }

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
