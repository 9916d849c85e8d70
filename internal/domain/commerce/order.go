package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/user"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CountsAsPurchase is true once payment has been captured and not reversed.
func CountsAsPurchase(status string) bool {
	switch status {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

type Order struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber     string         `gorm:"not null;uniqueIndex;column:order_number" json:"order_number"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Status          string         `gorm:"not null;index;column:status" json:"status"`
	PaymentStatus   string         `gorm:"not null;column:payment_status" json:"payment_status"`
	PaymentIntentID string         `gorm:"index;column:payment_intent_id" json:"payment_intent_id,omitempty"`
	Currency        string         `gorm:"not null;default:'usd';column:currency" json:"currency"`
	SubtotalCents   int64          `gorm:"not null;column:subtotal_cents" json:"subtotal_cents"`
	TaxCents        int64          `gorm:"not null;column:tax_cents" json:"tax_cents"`
	ShippingCents   int64          `gorm:"not null;column:shipping_cents" json:"shipping_cents"`
	TotalCents      int64          `gorm:"not null;column:total_cents" json:"total_cents"`
	ShippingAddress datatypes.JSON `gorm:"column:shipping_address" json:"shipping_address"`
	TrackingNumber  string         `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	PaidAt          *time.Time     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	DeliveredAt     *time.Time     `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	// ConfirmationSentAt closes post-payment follow-up for the order.
	ConfirmationSentAt *time.Time `gorm:"column:confirmation_sent_at" json:"-"`

	Items []*OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "customer_order" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentStatusUnpaid
	}
	return nil
}

// OrderItem snapshots the product as it was sold.
type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Order          *Order    `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrderID;references:ID" json:"-"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID      uuid.UUID `gorm:"type:uuid;not null" json:"variant_id"`
	Name           string    `gorm:"not null;column:name" json:"name"`
	VariantName    string    `gorm:"column:variant_name" json:"variant_name,omitempty"`
	ImageURL       string    `gorm:"column:image_url" json:"image_url,omitempty"`
	UnitPriceCents int64     `gorm:"not null;column:unit_price_cents" json:"unit_price_cents"`
	Quantity       int       `gorm:"not null;column:quantity" json:"quantity"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_item" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}
