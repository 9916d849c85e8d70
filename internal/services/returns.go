package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

var returnTransitions = map[string][]string{
	types.ReturnStatusRequested: {types.ReturnStatusApproved, types.ReturnStatusRejected},
	types.ReturnStatusApproved:  {types.ReturnStatusReceived, types.ReturnStatusRejected, types.ReturnStatusRefunded},
	types.ReturnStatusReceived:  {types.ReturnStatusRefunded, types.ReturnStatusRejected},
}

func canMoveReturn(from, to string) bool {
	for _, s := range returnTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ReturnInput struct {
	OrderID uuid.UUID          `json:"order_id"`
	Reason  string             `json:"reason"`
	Details string             `json:"details"`
	Items   []types.ReturnLine `json:"items"`
}

type ReturnStatusInput struct {
	Status      string  `json:"status"`
	RefundCents *int64  `json:"refund_cents"`
	AdminNotes  *string `json:"admin_notes"`
}

type ReturnListQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type ReturnPage struct {
	Items []*types.ReturnRequest `json:"items"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

type ReturnService interface {
	Create(ctx context.Context, in ReturnInput) (*types.ReturnRequest, error)
	ListMine(ctx context.Context, q ReturnListQuery) (*ReturnPage, error)
	List(ctx context.Context, q ReturnListQuery) (*ReturnPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, in ReturnStatusInput) (*types.ReturnRequest, error)
}

type ReturnDeps struct {
	ReturnRepo repos.ReturnRepo
	OrderRepo  repos.OrderRepo
	UserRepo   repos.UserRepo
	Settings   SettingsService
	Gateway    payments.Gateway
	Mailer     Mailer
	Emitter    *realtime.Emitter
}

type returnService struct {
	db  *gorm.DB
	log *logger.Logger
	ReturnDeps
	now func() time.Time
}

func NewReturnService(db *gorm.DB, log *logger.Logger, deps ReturnDeps) ReturnService {
	return &returnService{db: db, log: log.With("service", "ReturnService"), ReturnDeps: deps, now: time.Now}
}

// returnDeadline is the end of the return window. Orders delivered before
// delivered_at was recorded fall back to their last update.
func returnDeadline(o *types.Order, windowDays int) time.Time {
	from := o.UpdatedAt
	if o.DeliveredAt != nil {
		from = *o.DeliveredAt
	}
	return from.Add(time.Duration(windowDays) * 24 * time.Hour)
}

func validateReturnLines(o *types.Order, lines []types.ReturnLine) error {
	if len(lines) == 0 {
		return apierr.BadRequest("invalid_request", "select at least one item to return")
	}
	byID := make(map[uuid.UUID]*types.OrderItem, len(o.Items))
	for _, it := range o.Items {
		byID[it.ID] = it
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		it := byID[l.OrderItemID]
		if it == nil {
			return apierr.BadRequest("invalid_request", "item is not part of this order")
		}
		if seen[l.OrderItemID] {
			return apierr.BadRequest("invalid_request", "item listed twice")
		}
		seen[l.OrderItemID] = true
		if l.Quantity < 1 || l.Quantity > it.Quantity {
			return apierr.BadRequest("invalid_quantity", fmt.Sprintf("quantity for %s must be between 1 and %d", it.Name, it.Quantity))
		}
	}
	return nil
}

func (s *returnService) Create(ctx context.Context, in ReturnInput) (*types.ReturnRequest, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	in.Reason = strings.TrimSpace(in.Reason)
	in.Details = strings.TrimSpace(in.Details)
	if in.Reason == "" {
		return nil, apierr.BadRequest("invalid_request", "reason required")
	}

	var rr *types.ReturnRequest
	err = inTx(s.db, dbctx.Context{Ctx: ctx}, func(dbc dbctx.Context) error {
		o, err := s.OrderRepo.GetForUser(dbc, userID, in.OrderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return apierr.NotFound("order")
		}
		if o.Status != types.OrderStatusDelivered {
			return apierr.Conflict("order_not_returnable", "only delivered orders can be returned")
		}
		site, err := s.Settings.Site(dbc)
		if err != nil {
			return err
		}
		if s.now().After(returnDeadline(o, site.ReturnWindowDays)) {
			return apierr.Conflict("return_window_closed", fmt.Sprintf("returns are accepted within %d days of delivery", site.ReturnWindowDays))
		}
		if err := validateReturnLines(o, in.Items); err != nil {
			return err
		}
		open, err := s.ReturnRepo.HasOpenForOrder(dbc, o.ID)
		if err != nil {
			return fmt.Errorf("check open returns: %w", err)
		}
		if open {
			return apierr.Conflict("return_exists", "a return for this order is already open")
		}
		items, err := json.Marshal(in.Items)
		if err != nil {
			return internalErr("encode return items", err)
		}
		rr = &types.ReturnRequest{
			OrderID: o.ID,
			UserID:  userID,
			Reason:  in.Reason,
			Details: in.Details,
			Status:  types.ReturnStatusRequested,
			Items:   datatypes.JSON(items),
		}
		if err := s.ReturnRepo.Create(dbc, rr); err != nil {
			return fmt.Errorf("create return: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Return requested", "return_id", rr.ID, "order_id", rr.OrderID)
	return rr, nil
}

func (s *returnService) list(ctx context.Context, userID *uuid.UUID, q ReturnListQuery) (*ReturnPage, error) {
	page := Page{Page: q.Page, Limit: q.Limit}.normalize()
	items, total, err := s.ReturnRepo.List(dbctx.Context{Ctx: ctx}, repos.ReturnFilter{
		UserID: userID,
		Status: strings.TrimSpace(q.Status),
		Limit:  page.Limit,
		Offset: page.offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	return &ReturnPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *returnService) ListMine(ctx context.Context, q ReturnListQuery) (*ReturnPage, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, &userID, q)
}

func (s *returnService) List(ctx context.Context, q ReturnListQuery) (*ReturnPage, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, nil, q)
}

// UpdateStatus moves a return along requested -> approved -> received ->
// refunded (or rejected). A refund goes to the gateway first; a refund of
// the full order total also marks the order refunded.
func (s *returnService) UpdateStatus(ctx context.Context, id uuid.UUID, in ReturnStatusInput) (*types.ReturnRequest, error) {
	adminID, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	rr, err := s.ReturnRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load return: %w", err)
	}
	if rr == nil || rr.Order == nil {
		return nil, apierr.NotFound("return")
	}
	status := strings.TrimSpace(in.Status)
	if !canMoveReturn(rr.Status, status) {
		return nil, apierr.Conflict("invalid_transition", fmt.Sprintf("cannot move return from %s to %s", rr.Status, status))
	}

	updates := map[string]interface{}{"status": status}
	if in.AdminNotes != nil {
		updates["admin_notes"] = strings.TrimSpace(*in.AdminNotes)
	}
	var refund int64
	if status == types.ReturnStatusRefunded {
		if in.RefundCents == nil || *in.RefundCents <= 0 {
			return nil, apierr.BadRequest("invalid_refund", "refund_cents must be positive")
		}
		refund = *in.RefundCents
		if refund > rr.Order.TotalCents {
			return nil, apierr.BadRequest("invalid_refund", "refund exceeds order total")
		}
		updates["refund_cents"] = refund
	}

	if refund > 0 && rr.Order.PaymentIntentID != "" {
		if s.Gateway == nil {
			return nil, errPaymentUnavailable
		}
		if _, err := s.Gateway.Refund(ctx, rr.Order.PaymentIntentID, refund); err != nil {
			s.log.Error("Return refund failed", "return_id", id, "error", err)
			return nil, errPaymentUnavailable
		}
	}

	err = inTx(s.db, dbc, func(txc dbctx.Context) error {
		if err := s.ReturnRepo.Update(txc, id, updates); err != nil {
			return fmt.Errorf("update return: %w", err)
		}
		if refund > 0 && refund == rr.Order.TotalCents {
			if _, err := s.OrderRepo.TransitionStatus(txc, rr.OrderID, []string{types.OrderStatusDelivered}, types.OrderStatusRefunded,
				map[string]interface{}{"payment_status": types.PaymentStatusRefunded}); err != nil {
				return fmt.Errorf("refund order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Return status updated", "return_id", id, "from", rr.Status, "to", status, "by", adminID)

	updated, err := s.ReturnRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("reload return: %w", err)
	}
	s.Emitter.ToUser(ctx, updated.UserID, realtime.SSEEventOrderUpdated, map[string]any{"order_id": updated.OrderID, "return_id": updated.ID, "return_status": updated.Status})
	s.notify(ctx, updated)
	return updated, nil
}

func (s *returnService) notify(ctx context.Context, rr *types.ReturnRequest) {
	if s.Mailer == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.UserRepo.GetByID(dbc, rr.UserID)
	if err != nil || u == nil {
		s.log.Warn("Return email skipped; user lookup failed", "return_id", rr.ID, "error", err)
		return
	}
	site, err := s.Settings.Site(dbc)
	if err != nil {
		s.log.Warn("Return email skipped; settings unavailable", "return_id", rr.ID, "error", err)
		return
	}
	if err := s.Mailer.ReturnUpdate(ctx, u, rr, site); err != nil {
		s.log.Warn("Return email failed", "return_id", rr.ID, "error", err)
	}
}
