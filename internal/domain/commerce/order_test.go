package commerce

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusProcessing},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusRefunded},
	}
	for _, tc := range allowed {
		if !CanTransition(tc[0], tc[1]) {
			t.Fatalf("%s -> %s should be allowed", tc[0], tc[1])
		}
	}

	denied := [][2]string{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusPaid},
		{OrderStatusShipped, OrderStatusCancelled},
	}
	for _, tc := range denied {
		if CanTransition(tc[0], tc[1]) {
			t.Fatalf("%s -> %s should be denied", tc[0], tc[1])
		}
	}
}

func TestOrderItemLineTotal(t *testing.T) {
	it := &OrderItem{UnitPriceCents: 1250, Quantity: 3}
	if got := it.LineTotalCents(); got != 3750 {
		t.Fatalf("line total: got=%d", got)
	}
}
