package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

func (e *env) orderService(gw *fakeGateway, mail *recordingMail) OrderService {
	deps := OrderDeps{
		OrderRepo:  e.orders,
		UserRepo:   e.users,
		Settings:   e.settings,
		Dispatcher: fulfillment.NewInlineDispatcher(e.log, e.steps(nil)),
	}
	if gw != nil {
		deps.Gateway = gw
	}
	if mail != nil {
		deps.Mailer = NewMailer(e.log, mail, nil)
	}
	return NewOrderService(e.db, e.log, deps)
}

func TestOrdersScopedToOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	other := testutil.SeedUser(t, ctx, e.db, "other@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	testutil.SeedOrder(t, ctx, e.db, other.ID, types.OrderStatusPending, p)
	svc := e.orderService(nil, nil)

	page, err := svc.ListMine(userCtx(u), OrderListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, o.ID, page.Items[0].ID)

	_, err = svc.GetMine(userCtx(other), o.ID)
	requireCode(t, err, "not_found")

	_, err = svc.List(userCtx(u), OrderListQuery{})
	requireCode(t, err, "forbidden")
}

func TestCancelMineOnlyWhilePending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	pending := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	shipped := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusShipped, p)
	svc := e.orderService(nil, nil)

	o, err := svc.CancelMine(userCtx(u), pending.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusCancelled, o.Status)

	_, err = svc.CancelMine(userCtx(u), shipped.ID)
	requireCode(t, err, "invalid_transition")
}

func TestAdminStatusLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	admin := testutil.SeedAdmin(t, ctx, e.db, "admin@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	mail := &recordingMail{}
	svc := e.orderService(&fakeGateway{}, mail)
	actx := userCtx(admin)

	_, err := svc.UpdateStatus(actx, o.ID, types.OrderStatusShipped)
	requireCode(t, err, "invalid_transition")
	_, err = svc.UpdateStatus(actx, o.ID, "lost")
	requireCode(t, err, "invalid_status")

	got, err := svc.UpdateStatus(actx, o.ID, types.OrderStatusPaid)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusPaid, got.Status)
	stored, err := e.products.GetByID(dbctx.Context{Ctx: ctx}, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, 4, stored.Stock)

	for _, st := range []string{types.OrderStatusProcessing, types.OrderStatusShipped, types.OrderStatusDelivered} {
		got, err = svc.UpdateStatus(actx, o.ID, st)
		require.NoError(t, err)
		require.Equal(t, st, got.Status)
	}
	require.NotNil(t, got.DeliveredAt)
	require.Equal(t, 2, mail.count(), "shipped and delivered emails")

	got, err = svc.SetTracking(actx, o.ID, " 1Z999 ")
	require.NoError(t, err)
	require.Equal(t, "1Z999", got.TrackingNumber)
	_, err = svc.SetTracking(actx, o.ID, strings.Repeat("9", 121))
	requireCode(t, err, "invalid_request")
}

func TestAdminRefundGoesThroughGateway(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	admin := testutil.SeedAdmin(t, ctx, e.db, "admin@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPaid, p)
	require.NoError(t, e.orders.Update(dbctx.Context{Ctx: ctx}, o.ID, map[string]interface{}{
		"payment_intent_id": "pi_7",
		"payment_status":    types.PaymentStatusSucceeded,
	}))
	gw := &fakeGateway{}

	got, err := e.orderService(gw, nil).UpdateStatus(userCtx(admin), o.ID, types.OrderStatusRefunded)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusRefunded, got.Status)
	require.Equal(t, types.PaymentStatusRefunded, got.PaymentStatus)
	require.Equal(t, o.TotalCents, gw.refunds["pi_7"])
}
