package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

const testWebhookSecret = "whsec_test"

func (e *env) webhookService() WebhookService {
	return NewWebhookService(e.log, WebhookDeps{
		OrderRepo:      e.orders,
		UserRepo:       e.users,
		Dispatcher:     fulfillment.NewInlineDispatcher(e.log, e.steps(nil)),
		PaymentsSecret: testWebhookSecret,
		AuthSecret:     testWebhookSecret,
	})
}

func paymentEvent(t *testing.T, typ string, pi payments.PaymentIntent) []byte {
	t.Helper()
	evt := payments.Event{ID: "evt_1", Type: typ}
	evt.Data.Object = pi
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return raw
}

func sign(payload []byte) string {
	return payments.Sign(payload, testWebhookSecret, time.Now())
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	e := newEnv(t)
	payload := paymentEvent(t, payments.EventPaymentSucceeded, payments.PaymentIntent{ID: "pi_1"})

	_, err := e.webhookService().HandlePayment(context.Background(), payload, payments.Sign(payload, "other", time.Now()))
	requireCode(t, err, "invalid_signature")

	_, err = e.webhookService().HandlePayment(context.Background(), payload, payments.Sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	requireCode(t, err, "invalid_signature")
}

func TestPaymentWebhookDisabledWithoutSecret(t *testing.T) {
	e := newEnv(t)
	svc := NewWebhookService(e.log, WebhookDeps{OrderRepo: e.orders, UserRepo: e.users})
	_, err := svc.HandlePayment(context.Background(), []byte(`{}`), "t=1,v1=00")
	requireCode(t, err, "webhook_disabled")
}

func TestPaymentWebhookSucceededPaysOrderOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 3)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	require.NoError(t, e.orders.Update(dbctx.Context{Ctx: ctx}, o.ID, map[string]interface{}{"payment_intent_id": "pi_1"}))
	svc := e.webhookService()

	payload := paymentEvent(t, payments.EventPaymentSucceeded, payments.PaymentIntent{
		ID:       "pi_1",
		Status:   "succeeded",
		Amount:   o.TotalCents,
		Metadata: map[string]string{"order_id": o.ID.String()},
	})
	for i := 0; i < 2; i++ {
		ack, err := svc.HandlePayment(ctx, payload, sign(payload))
		require.NoError(t, err)
		require.True(t, ack.Handled)
	}

	paid, err := e.orders.GetByID(dbctx.Context{Ctx: ctx}, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusPaid, paid.Status)
	stored, err := e.products.GetByID(dbctx.Context{Ctx: ctx}, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Stock, "redelivery must not decrement twice")
}

func TestPaymentWebhookMatchesByIntentID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 3)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	require.NoError(t, e.orders.Update(dbctx.Context{Ctx: ctx}, o.ID, map[string]interface{}{"payment_intent_id": "pi_9"}))

	payload := paymentEvent(t, payments.EventPaymentFailed, payments.PaymentIntent{ID: "pi_9"})
	ack, err := e.webhookService().HandlePayment(ctx, payload, sign(payload))
	require.NoError(t, err)
	require.True(t, ack.Handled)

	got, err := e.orders.GetByID(dbctx.Context{Ctx: ctx}, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusPending, got.Status)
	require.Equal(t, types.PaymentStatusFailed, got.PaymentStatus)
}

func TestPaymentWebhookAcksUnknownOrderAndEvent(t *testing.T) {
	e := newEnv(t)
	svc := e.webhookService()

	payload := paymentEvent(t, payments.EventPaymentSucceeded, payments.PaymentIntent{ID: "pi_missing"})
	ack, err := svc.HandlePayment(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	require.True(t, ack.Received)
	require.False(t, ack.Handled)

	payload = paymentEvent(t, "charge.dispute.created", payments.PaymentIntent{ID: "pi_1"})
	ack, err = svc.HandlePayment(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	require.False(t, ack.Handled)
}

func authEvent(t *testing.T, typ, id, email string) []byte {
	t.Helper()
	var evt AuthEvent
	evt.ID, evt.Type = "evt_"+id, typ
	evt.Data.ID, evt.Data.Email, evt.Data.FirstName = id, email, "Ada"
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return raw
}

func TestAuthWebhookUserLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.webhookService()
	dbc := dbctx.Context{Ctx: ctx}

	payload := authEvent(t, AuthEventUserCreated, "ext_1", "Ada@Example.com")
	ack, err := svc.HandleAuth(ctx, payload, sign(payload))
	require.NoError(t, err)
	require.True(t, ack.Handled)
	u, err := e.users.GetByExternalID(dbc, "ext_1")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "ada@example.com", u.Email)

	payload = authEvent(t, AuthEventUserUpdated, "ext_1", "ada@new.example.com")
	_, err = svc.HandleAuth(ctx, payload, sign(payload))
	require.NoError(t, err)
	updated, err := e.users.GetByExternalID(dbc, "ext_1")
	require.NoError(t, err)
	require.Equal(t, u.ID, updated.ID)
	require.Equal(t, "ada@new.example.com", updated.Email)

	payload = authEvent(t, AuthEventUserDeleted, "ext_1", "")
	ack, err = svc.HandleAuth(ctx, payload, sign(payload))
	require.NoError(t, err)
	require.True(t, ack.Handled)
	gone, err := e.users.GetByExternalID(dbc, "ext_1")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestAuthWebhookEmailConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, ctx, e.db, "taken@example.com")

	payload := authEvent(t, AuthEventUserCreated, "ext_2", "taken@example.com")
	_, err := e.webhookService().HandleAuth(ctx, payload, sign(payload))
	requireCode(t, err, "email_taken")
}
