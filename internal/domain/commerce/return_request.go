package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusReceived  = "received"
	ReturnStatusRefunded  = "refunded"
)

// ReturnLine is one entry of ReturnRequest.Items.
type ReturnLine struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int       `json:"quantity"`
}

type ReturnRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	Order       *Order         `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrderID;references:ID" json:"order,omitempty"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Reason      string         `gorm:"not null;column:reason" json:"reason"`
	Details     string         `gorm:"column:details" json:"details"`
	Status      string         `gorm:"not null;index;column:status" json:"status"`
	Items       datatypes.JSON `gorm:"column:items" json:"items"`
	RefundCents int64          `gorm:"not null;default:0;column:refund_cents" json:"refund_cents"`
	AdminNotes  string         `gorm:"column:admin_notes" json:"admin_notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ReturnRequest) TableName() string { return "return_request" }

func (r *ReturnRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReturnStatusRequested
	}
	return nil
}

// IsOpen is true while the return still needs admin action.
func (r *ReturnRequest) IsOpen() bool {
	return r.Status == ReturnStatusRequested || r.Status == ReturnStatusApproved || r.Status == ReturnStatusReceived
}
