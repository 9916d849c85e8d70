package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

type FulfillmentDeps struct {
	OrderRepo    repos.OrderRepo
	ProductRepo  repos.ProductRepo
	VariantRepo  repos.VariantRepo
	CartItemRepo repos.CartItemRepo
	UserRepo     repos.UserRepo
	Settings     SettingsService
	Mailer       Mailer
	Cache        cache.Cache
	Emitter      *realtime.Emitter
	Metrics      *observability.Metrics
}

type fulfillmentSteps struct {
	db  *gorm.DB
	log *logger.Logger
	FulfillmentDeps
}

// NewFulfillmentSteps returns the post-payment side effects run by the
// Temporal workflow or the inline dispatcher.
func NewFulfillmentSteps(db *gorm.DB, log *logger.Logger, deps FulfillmentDeps) fulfillment.Steps {
	return &fulfillmentSteps{db: db, log: log.With("service", "Fulfillment"), FulfillmentDeps: deps}
}

func (f *fulfillmentSteps) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string) (fulfillment.MarkPaidResult, error) {
	var res fulfillment.MarkPaidResult
	var paidTotal int64
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		o, err := f.OrderRepo.GetByID(dbc, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return apierr.NotFound("order")
		}
		res.Status = o.Status
		if o.Status != types.OrderStatusPending {
			res.FollowUp = o.Status == types.OrderStatusPaid && o.ConfirmationSentAt == nil
			return nil
		}
		if paymentIntentID != "" && o.PaymentIntentID != "" && o.PaymentIntentID != paymentIntentID {
			return apierr.Conflict("payment_mismatch", "payment intent does not belong to this order")
		}
		extra := map[string]interface{}{
			"payment_status": types.PaymentStatusSucceeded,
			"paid_at":        time.Now().UTC(),
		}
		if paymentIntentID != "" {
			extra["payment_intent_id"] = paymentIntentID
		}
		ok, err := f.OrderRepo.TransitionStatus(dbc, orderID, []string{types.OrderStatusPending}, types.OrderStatusPaid, extra)
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		if !ok {
			return nil
		}
		for _, it := range o.Items {
			if err := f.decrement(dbc, it); err != nil {
				return err
			}
		}
		res.Transitioned, res.FollowUp = true, true
		res.Status = types.OrderStatusPaid
		paidTotal = o.TotalCents
		return nil
	})
	if err != nil {
		return fulfillment.MarkPaidResult{}, err
	}
	if res.Transitioned {
		f.Metrics.ObserveOrderPaid(paidTotal)
		f.log.Info("Order paid", "order_id", orderID)
	}
	return res, nil
}

// decrement takes stock for one order line. Payment has already been
// captured, so an oversold line is logged for the back office rather than
// failing the order.
func (f *fulfillmentSteps) decrement(dbc dbctx.Context, it *types.OrderItem) error {
	var err error
	if it.VariantID != uuid.Nil {
		err = f.VariantRepo.DecrementStock(dbc, it.VariantID, it.Quantity)
	} else {
		err = f.ProductRepo.DecrementStock(dbc, it.ProductID, it.Quantity)
	}
	if errors.Is(err, repos.ErrInsufficientStock) {
		f.log.Warn("Order oversold", "order_id", it.OrderID, "product_id", it.ProductID, "variant_id", it.VariantID, "quantity", it.Quantity)
		return nil
	}
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

// ClearCart removes the purchased lines from the buyer's cart. Lines added
// after checkout stay.
func (f *fulfillmentSteps) ClearCart(ctx context.Context, orderID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	o, err := f.OrderRepo.GetByID(dbc, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return apierr.NotFound("order")
	}
	for _, it := range o.Items {
		if _, err := f.CartItemRepo.Delete(dbc, o.UserID, it.ProductID, it.VariantID); err != nil {
			return fmt.Errorf("clear cart line: %w", err)
		}
	}
	f.Emitter.ToUser(ctx, o.UserID, realtime.SSEEventCartUpdated, map[string]any{"reason": "order_paid", "order_id": o.ID})
	return nil
}

// SendConfirmation emails the buyer once per order. Without a mailer the
// order is still stamped so later deliveries stop following up.
func (f *fulfillmentSteps) SendConfirmation(ctx context.Context, orderID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	o, err := f.OrderRepo.GetByID(dbc, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return apierr.NotFound("order")
	}
	if o.ConfirmationSentAt != nil {
		return nil
	}
	if f.Mailer != nil {
		if err := f.confirm(dbc, o); err != nil {
			return err
		}
	}
	if _, err := f.OrderRepo.MarkConfirmed(dbc, o.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark confirmed: %w", err)
	}
	return nil
}

func (f *fulfillmentSteps) confirm(dbc dbctx.Context, o *types.Order) error {
	u, err := f.UserRepo.GetByID(dbc, o.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return apierr.NotFound("user")
	}
	site, err := f.Settings.Site(dbc)
	if err != nil {
		return err
	}
	return f.Mailer.OrderConfirmation(dbc.Ctx, u, o, site)
}

// PublishOrderUpdated notifies the buyer and, since stock moved, every
// storefront showing the catalog.
func (f *fulfillmentSteps) PublishOrderUpdated(ctx context.Context, orderID uuid.UUID) error {
	o, err := f.OrderRepo.GetByID(dbctx.Context{Ctx: ctx}, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return apierr.NotFound("order")
	}
	f.Emitter.ToUser(ctx, o.UserID, realtime.SSEEventOrderUpdated, map[string]any{"order_id": o.ID, "status": o.Status})
	if f.Cache != nil {
		if err := f.Cache.DeletePrefix(ctx, catalogCachePrefix); err != nil {
			f.log.Warn("Catalog cache invalidation failed", "error", err)
		}
	}
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	f.Emitter.Catalog(ctx, map[string]any{"kind": "stock", "product_ids": ids})
	return nil
}
