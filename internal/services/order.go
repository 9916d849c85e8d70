package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/realtime"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

type OrderPage struct {
	Items []*types.Order `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type OrderListQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type OrderService interface {
	ListMine(ctx context.Context, q OrderListQuery) (*OrderPage, error)
	GetMine(ctx context.Context, id uuid.UUID) (*types.Order, error)
	// CancelMine cancels the caller's order while it is still pending.
	CancelMine(ctx context.Context, id uuid.UUID) (*types.Order, error)

	List(ctx context.Context, q OrderListQuery) (*OrderPage, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.Order, error)
	SetTracking(ctx context.Context, id uuid.UUID, tracking string) (*types.Order, error)
}

type OrderDeps struct {
	OrderRepo  repos.OrderRepo
	UserRepo   repos.UserRepo
	Settings   SettingsService
	Gateway    payments.Gateway
	Dispatcher fulfillment.Dispatcher
	Mailer     Mailer
	Emitter    *realtime.Emitter
}

type orderService struct {
	db  *gorm.DB
	log *logger.Logger
	OrderDeps
}

func NewOrderService(db *gorm.DB, log *logger.Logger, deps OrderDeps) OrderService {
	return &orderService{db: db, log: log.With("service", "OrderService"), OrderDeps: deps}
}

func (s *orderService) list(ctx context.Context, userID *uuid.UUID, q OrderListQuery) (*OrderPage, error) {
	page := Page{Page: q.Page, Limit: q.Limit}.normalize()
	status := strings.TrimSpace(q.Status)
	if status != "" && !types.IsOrderStatus(status) {
		return nil, apierr.BadRequest("invalid_status", "unknown order status")
	}
	items, total, err := s.OrderRepo.List(dbctx.Context{Ctx: ctx}, repos.OrderFilter{
		UserID: userID,
		Status: status,
		Limit:  page.Limit,
		Offset: page.offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *orderService) ListMine(ctx context.Context, q OrderListQuery) (*OrderPage, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, &userID, q)
}

func (s *orderService) GetMine(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.OrderRepo.GetForUser(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, apierr.NotFound("order")
	}
	return o, nil
}

func (s *orderService) CancelMine(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	o, err := s.GetMine(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != types.OrderStatusPending {
		return nil, apierr.Conflict("invalid_transition", "only pending orders can be cancelled")
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.OrderRepo.TransitionStatus(dbc, id, []string{types.OrderStatusPending}, types.OrderStatusCancelled, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if !ok {
		// Payment landed between the read and the write.
		return nil, apierr.Conflict("invalid_transition", "only pending orders can be cancelled")
	}
	return s.reloadAndPublish(ctx, id)
}

func (s *orderService) List(ctx context.Context, q OrderListQuery) (*OrderPage, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, nil, q)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.load(dbctx.Context{Ctx: ctx}, id)
}

func (s *orderService) load(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	o, err := s.OrderRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, apierr.NotFound("order")
	}
	return o, nil
}

// UpdateStatus applies an admin status change. Marking an order paid runs
// fulfillment; refunding (or cancelling a captured order) refunds the full
// payment through the gateway before the status moves.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.Order, error) {
	adminID, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if !types.IsOrderStatus(status) {
		return nil, apierr.BadRequest("invalid_status", "unknown order status")
	}
	dbc := dbctx.Context{Ctx: ctx}
	o, err := s.load(dbc, id)
	if err != nil {
		return nil, err
	}
	if !types.CanTransition(o.Status, status) {
		return nil, apierr.Conflict("invalid_transition", fmt.Sprintf("cannot move order from %s to %s", o.Status, status))
	}

	if status == types.OrderStatusPaid {
		if s.Dispatcher == nil {
			return nil, internalErr("mark paid", fmt.Errorf("fulfillment not configured"))
		}
		if err := s.Dispatcher.Dispatch(ctx, id, o.PaymentIntentID); err != nil {
			return nil, fmt.Errorf("dispatch fulfillment: %w", err)
		}
		s.log.Info("Order marked paid by admin", "order_id", id, "by", adminID)
		return s.load(dbc, id)
	}

	extra := map[string]interface{}{}
	switch status {
	case types.OrderStatusDelivered:
		extra["delivered_at"] = time.Now().UTC()
	case types.OrderStatusRefunded, types.OrderStatusCancelled:
		if o.PaymentStatus == types.PaymentStatusSucceeded {
			if err := s.refund(ctx, o, o.TotalCents); err != nil {
				return nil, err
			}
			extra["payment_status"] = types.PaymentStatusRefunded
		}
	}
	ok, err := s.OrderRepo.TransitionStatus(dbc, id, []string{o.Status}, status, extra)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, apierr.Conflict("invalid_transition", "order changed concurrently; reload and retry")
	}
	s.log.Info("Order status updated", "order_id", id, "from", o.Status, "to", status, "by", adminID)
	updated, err := s.reloadAndPublish(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == types.OrderStatusShipped || status == types.OrderStatusDelivered || status == types.OrderStatusRefunded {
		s.notify(ctx, updated)
	}
	return updated, nil
}

func (s *orderService) refund(ctx context.Context, o *types.Order, cents int64) error {
	if o.PaymentIntentID == "" || cents <= 0 {
		return nil
	}
	if s.Gateway == nil {
		return errPaymentUnavailable
	}
	r, err := s.Gateway.Refund(ctx, o.PaymentIntentID, cents)
	if err != nil {
		s.log.Error("Refund failed", "order_id", o.ID, "error", err)
		return errPaymentUnavailable
	}
	s.log.Info("Refund issued", "order_id", o.ID, "refund_id", r.ID, "amount_cents", cents)
	return nil
}

func (s *orderService) SetTracking(ctx context.Context, id uuid.UUID, tracking string) (*types.Order, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	tracking = strings.TrimSpace(tracking)
	if len(tracking) > 120 {
		return nil, apierr.BadRequest("invalid_request", "tracking number too long")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.load(dbc, id); err != nil {
		return nil, err
	}
	if err := s.OrderRepo.Update(dbc, id, map[string]interface{}{"tracking_number": tracking}); err != nil {
		return nil, fmt.Errorf("set tracking: %w", err)
	}
	return s.reloadAndPublish(ctx, id)
}

func (s *orderService) reloadAndPublish(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	o, err := s.load(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	s.Emitter.ToUser(ctx, o.UserID, realtime.SSEEventOrderUpdated, map[string]any{"order_id": o.ID, "status": o.Status})
	return o, nil
}

// notify emails the customer; failures are logged, not returned.
func (s *orderService) notify(ctx context.Context, o *types.Order) {
	if s.Mailer == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.UserRepo.GetByID(dbc, o.UserID)
	if err != nil || u == nil {
		s.log.Warn("Order email skipped; user lookup failed", "order_id", o.ID, "error", err)
		return
	}
	site, err := s.Settings.Site(dbc)
	if err != nil {
		s.log.Warn("Order email skipped; settings unavailable", "order_id", o.ID, "error", err)
		return
	}
	if err := s.Mailer.OrderStatus(ctx, u, o, site); err != nil {
		s.log.Warn("Order status email failed", "order_id", o.ID, "error", err)
	}
}
