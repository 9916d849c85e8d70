package fulfillment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const (
	WorkflowName = "order_fulfillment"

	ActivityMarkPaid         = "order_fulfillment_mark_paid"
	ActivityClearCart        = "order_fulfillment_clear_cart"
	ActivitySendConfirmation = "order_fulfillment_send_confirmation"
	ActivityPublish          = "order_fulfillment_publish"
)

type Input struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type MarkPaidResult struct {
	// Transitioned is false when an earlier delivery already paid the order.
	Transitioned bool `json:"transitioned"`
	// FollowUp is true while the order is paid but not yet confirmed, which
	// includes an earlier attempt whose reply was lost after commit.
	FollowUp bool   `json:"follow_up"`
	Status   string `json:"status"`
}

type Result struct {
	OrderID      string `json:"order_id"`
	Transitioned bool   `json:"transitioned"`
	EmailSent    bool   `json:"email_sent"`
}

// Steps are the order side effects run after payment. MarkPaid must move the
// order to paid and decrement stock atomically, and report whether it did.
// ClearCart and SendConfirmation run again until the order is confirmed, so
// both must be safe to repeat.
type Steps interface {
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string) (MarkPaidResult, error)
	ClearCart(ctx context.Context, orderID uuid.UUID) error
	SendConfirmation(ctx context.Context, orderID uuid.UUID) error
	PublishOrderUpdated(ctx context.Context, orderID uuid.UUID) error
}

func WorkflowID(orderID uuid.UUID) string {
	return "order-fulfillment-" + orderID.String()
}

func parseOrderID(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}
