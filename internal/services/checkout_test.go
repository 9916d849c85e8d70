package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

func (e *env) checkoutService(gw *fakeGateway) CheckoutService {
	deps := CheckoutDeps{
		CartItemRepo: e.cart,
		ProductRepo:  e.products,
		VariantRepo:  e.variants,
		AddressRepo:  e.addrs,
		OrderRepo:    e.orders,
		UserRepo:     e.users,
		Settings:     e.settings,
	}
	if gw != nil {
		deps.Gateway = gw
	}
	return NewCheckoutService(e.db, e.log, deps)
}

func TestNewOrderNumberFormat(t *testing.T) {
	n := NewOrderNumber(time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC))
	require.True(t, strings.HasPrefix(n, "SF-20260309-"), n)
	require.Len(t, n, len("SF-20260309-")+8)
	require.NotEqual(t, n, NewOrderNumber(time.Now()))
}

func TestCheckoutEmptyCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	a := testutil.SeedAddress(t, ctx, e.db, u.ID, true)

	_, err := e.checkoutService(&fakeGateway{}).Checkout(userCtx(u), CheckoutInput{AddressID: a.ID})
	requireCode(t, err, "cart_empty")
}

func TestCheckoutRequiresOwnAddress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	other := testutil.SeedUser(t, ctx, e.db, "other@example.com")
	a := testutil.SeedAddress(t, ctx, e.db, other.ID, true)

	_, err := e.checkoutService(&fakeGateway{}).Checkout(userCtx(u), CheckoutInput{AddressID: a.ID})
	requireCode(t, err, "not_found")
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	a := testutil.SeedAddress(t, ctx, e.db, u.ID, true)
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 10)
	_, err := e.cartService().Add(userCtx(u), CartItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	gw := &fakeGateway{}
	res, err := e.checkoutService(gw).Checkout(userCtx(u), CheckoutInput{AddressID: a.ID})
	require.NoError(t, err)
	require.NotEmpty(t, res.PaymentIntentID)
	require.Equal(t, "secret", res.ClientSecret)

	o, err := e.orders.GetByID(dbctx.Context{Ctx: ctx}, res.Order.ID)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusPending, o.Status)
	require.Equal(t, res.PaymentIntentID, o.PaymentIntentID)
	require.Len(t, o.Items, 1)
	require.Equal(t, int64(1500), o.Items[0].UnitPriceCents)
	require.Equal(t, 2, o.Items[0].Quantity)
	require.Equal(t, int64(3000), o.SubtotalCents)
	require.Contains(t, string(o.ShippingAddress), a.Line1)

	require.Len(t, gw.intents, 1)
	require.Equal(t, o.TotalCents, gw.intents[0].AmountCents)
	require.Equal(t, o.ID.String(), gw.intents[0].Metadata["order_id"])

	// stock and cart move only once payment succeeds
	stored, err := e.products.GetByID(dbctx.Context{Ctx: ctx}, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, 10, stored.Stock)
	rows, err := e.cart.ListByUser(dbctx.Context{Ctx: ctx}, u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	a := testutil.SeedAddress(t, ctx, e.db, u.ID, true)
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 1)
	_, err := e.cartService().Add(userCtx(u), CartItemInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = e.checkoutService(&fakeGateway{}).Checkout(userCtx(u), CheckoutInput{AddressID: a.ID})
	requireCode(t, err, "insufficient_stock")

	_, total, err := e.orders.List(dbctx.Context{Ctx: ctx}, ordersFilterFor(u))
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestCheckoutGatewayFailureCancelsOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	a := testutil.SeedAddress(t, ctx, e.db, u.ID, true)
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 10)
	_, err := e.cartService().Add(userCtx(u), CartItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = e.checkoutService(&fakeGateway{failNext: true}).Checkout(userCtx(u), CheckoutInput{AddressID: a.ID})
	requireCode(t, err, "payment_unavailable")

	orders, _, err := e.orders.List(dbctx.Context{Ctx: ctx}, ordersFilterFor(u))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, types.OrderStatusCancelled, orders[0].Status)
	require.Equal(t, types.PaymentStatusFailed, orders[0].PaymentStatus)
}

func TestCheckoutWithoutGateway(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, context.Background(), e.db, "buyer@example.com")
	_, err := e.checkoutService(nil).Checkout(userCtx(u), CheckoutInput{})
	requireCode(t, err, "payment_unavailable")
}

func TestMarkPaidDecrementsStockOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	steps := e.steps(nil)

	res, err := steps.MarkPaid(ctx, o.ID, "pi_1")
	require.NoError(t, err)
	require.True(t, res.Transitioned)

	again, err := steps.MarkPaid(ctx, o.ID, "pi_1")
	require.NoError(t, err)
	require.False(t, again.Transitioned)
	require.Equal(t, types.OrderStatusPaid, again.Status)

	stored, err := e.products.GetByID(dbctx.Context{Ctx: ctx}, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, 4, stored.Stock)

	paid, err := e.orders.GetByID(dbctx.Context{Ctx: ctx}, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSucceeded, paid.PaymentStatus)
	require.Equal(t, "pi_1", paid.PaymentIntentID)
	require.NotNil(t, paid.PaidAt)
}

func TestMarkPaidOversoldStillPays(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 0)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)

	res, err := e.steps(nil).MarkPaid(ctx, o.ID, "")
	require.NoError(t, err)
	require.True(t, res.Transitioned)

	stored, err := e.products.GetByID(dbctx.Context{Ctx: ctx}, p.ID, false)
	require.NoError(t, err)
	require.Zero(t, stored.Stock)
}

func TestClearCartKeepsLinesAddedLater(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	mug := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	pen := testutil.SeedProduct(t, ctx, e.db, "pen", 300, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPaid, mug)
	cs := e.cartService()
	_, err := cs.Add(userCtx(u), CartItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = cs.Add(userCtx(u), CartItemInput{ProductID: pen.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, e.steps(nil).ClearCart(ctx, o.ID))

	rows, err := e.cart.ListByUser(dbctx.Context{Ctx: ctx}, u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, pen.ID, rows[0].ProductID)
}

func TestInlineFulfillmentSendsConfirmation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	mail := &recordingMail{}
	steps := e.steps(NewMailer(e.log, mail, nil))

	res, err := fulfillment.RunInline(ctx, e.log, steps, fulfillment.Input{OrderID: o.ID.String()})
	require.NoError(t, err)
	require.True(t, res.Transitioned)
	require.True(t, res.EmailSent)
	require.Equal(t, 1, mail.count())
	require.Equal(t, u.Email, mail.sent[0].To[0].Email)

	res, err = fulfillment.RunInline(ctx, e.log, steps, fulfillment.Input{OrderID: o.ID.String()})
	require.NoError(t, err)
	require.False(t, res.Transitioned)
	require.Equal(t, 1, mail.count(), "a replayed payment does not email twice")
}

func TestFulfillmentFollowsUpAfterLostMarkPaidReply(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, e.db, "buyer@example.com")
	p := testutil.SeedProduct(t, ctx, e.db, "mug", 1500, 5)
	o := testutil.SeedOrder(t, ctx, e.db, u.ID, types.OrderStatusPending, p)
	_, err := e.cartService().Add(userCtx(u), CartItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	mail := &recordingMail{}
	steps := e.steps(NewMailer(e.log, mail, nil))

	// The first attempt commits but its caller never sees the result.
	first, err := steps.MarkPaid(ctx, o.ID, "pi_1")
	require.NoError(t, err)
	require.True(t, first.Transitioned)

	retry, err := steps.MarkPaid(ctx, o.ID, "pi_1")
	require.NoError(t, err)
	require.False(t, retry.Transitioned)
	require.True(t, retry.FollowUp)

	res, err := fulfillment.RunInline(ctx, e.log, steps, fulfillment.Input{OrderID: o.ID.String(), PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	require.True(t, res.EmailSent)
	require.Equal(t, 1, mail.count())
	rows, err := e.cart.ListByUser(dbctx.Context{Ctx: ctx}, u.ID)
	require.NoError(t, err)
	require.Empty(t, rows)

	stored, err := e.orders.GetByID(dbctx.Context{Ctx: ctx}, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConfirmationSentAt)

	done, err := steps.MarkPaid(ctx, o.ID, "pi_1")
	require.NoError(t, err)
	require.False(t, done.FollowUp)
	require.NoError(t, steps.SendConfirmation(ctx, o.ID))
	require.Equal(t, 1, mail.count())

	product, err := e.products.GetByID(dbctx.Context{Ctx: ctx}, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, 4, product.Stock)
}
