package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/cart"
	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

var errPaymentUnavailable = apierr.New(http.StatusBadGateway, "payment_unavailable", fmt.Errorf("payment provider unavailable"))

type CheckoutInput struct {
	AddressID uuid.UUID `json:"address_id"`
}

type CheckoutResult struct {
	Order           *types.Order `json:"order"`
	PaymentIntentID string       `json:"payment_intent_id"`
	ClientSecret    string       `json:"client_secret"`
}

type CheckoutService interface {
	Quote(ctx context.Context) (*CartView, error)
	// Checkout creates a pending order from the caller's cart and opens a
	// payment intent for its total. The cart is cleared by fulfillment once
	// payment succeeds.
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

type CheckoutDeps struct {
	CartItemRepo repos.CartItemRepo
	ProductRepo  repos.ProductRepo
	VariantRepo  repos.VariantRepo
	AddressRepo  repos.AddressRepo
	OrderRepo    repos.OrderRepo
	UserRepo     repos.UserRepo
	Settings     SettingsService
	Gateway      payments.Gateway
	Emitter      *realtime.Emitter
	Metrics      *observability.Metrics
}

type checkoutService struct {
	db  *gorm.DB
	log *logger.Logger
	CheckoutDeps
	carts *cartService
}

func NewCheckoutService(db *gorm.DB, log *logger.Logger, deps CheckoutDeps) CheckoutService {
	l := log.With("service", "CheckoutService")
	return &checkoutService{
		db:           db,
		log:          l,
		CheckoutDeps: deps,
		carts: &cartService{db: db, log: l, CartDeps: CartDeps{
			CartItemRepo: deps.CartItemRepo,
			ProductRepo:  deps.ProductRepo,
			VariantRepo:  deps.VariantRepo,
			Settings:     deps.Settings,
		}},
	}
}

func (s *checkoutService) Quote(ctx context.Context) (*CartView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.carts.view(dbctx.Context{Ctx: ctx}, cartOwner{userID: userID})
}

// addressSnapshot is stored on the order so later edits to the address book
// do not rewrite history.
type addressSnapshot struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func snapshotAddress(a *types.Address) (datatypes.JSON, error) {
	b, err := json.Marshal(addressSnapshot{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	})
	return datatypes.JSON(b), err
}

// NewOrderNumber returns a short human-facing reference such as
// SF-20260102-8F3A1C2D.
func NewOrderNumber(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "SF-" + now.UTC().Format("20060102") + "-" + id[:8]
}

func (s *checkoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if s.Gateway == nil {
		s.Metrics.IncCheckoutFailure("payments_disabled")
		return nil, errPaymentUnavailable
	}
	dbc := dbctx.Context{Ctx: ctx}

	var order *types.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		addr, err := s.AddressRepo.GetForUser(txc, userID, in.AddressID)
		if err != nil {
			return fmt.Errorf("load address: %w", err)
		}
		if addr == nil {
			return apierr.NotFound("address")
		}
		view, err := s.carts.view(txc, cartOwner{userID: userID})
		if err != nil {
			return err
		}
		if len(view.Lines) == 0 {
			return apierr.BadRequest("cart_empty", "your cart is empty")
		}
		items := make([]*types.OrderItem, 0, len(view.Lines))
		for _, l := range view.Lines {
			if !l.Available {
				return apierr.Conflict("item_unavailable", fmt.Sprintf("%s is no longer available", lineLabel(l)))
			}
			if !l.InStock {
				return apierr.Conflict("insufficient_stock", fmt.Sprintf("only %d of %s left in stock", max(l.Stock, 0), lineLabel(l)))
			}
			items = append(items, &types.OrderItem{
				ProductID:      l.ProductID,
				VariantID:      cart.NewKey(l.ProductID, l.VariantID).VariantID,
				Name:           l.Name,
				VariantName:    l.VariantName,
				ImageURL:       l.ImageURL,
				UnitPriceCents: l.UnitPriceCents,
				Quantity:       l.Quantity,
			})
		}
		if view.Quote.TotalCents <= 0 {
			return apierr.BadRequest("invalid_total", "order total must be positive")
		}
		site, err := s.Settings.Site(txc)
		if err != nil {
			return err
		}
		snap, err := snapshotAddress(addr)
		if err != nil {
			return internalErr("snapshot address", err)
		}
		order = &types.Order{
			OrderNumber:     NewOrderNumber(time.Now()),
			UserID:          userID,
			Status:          types.OrderStatusPending,
			PaymentStatus:   types.PaymentStatusUnpaid,
			Currency:        site.Currency,
			SubtotalCents:   view.Quote.SubtotalCents,
			TaxCents:        view.Quote.TaxCents,
			ShippingCents:   view.Quote.ShippingCents,
			TotalCents:      view.Quote.TotalCents,
			ShippingAddress: snap,
			Items:           items,
		}
		if err := s.OrderRepo.Create(txc, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		s.Metrics.IncCheckoutFailure(checkoutReason(err))
		return nil, err
	}

	u, err := s.UserRepo.GetByID(dbc, userID)
	if err != nil {
		s.log.Warn("Receipt email lookup failed", "user_id", userID, "error", err)
	}
	req := payments.CreateIntentRequest{
		AmountCents:    order.TotalCents,
		Currency:       order.Currency,
		Description:    "Order " + order.OrderNumber,
		Metadata:       map[string]string{"order_id": order.ID.String(), "order_number": order.OrderNumber},
		IdempotencyKey: "order-" + order.ID.String(),
	}
	if u != nil {
		req.ReceiptEmail = u.Email
	}
	pi, err := s.Gateway.CreatePaymentIntent(ctx, req)
	if err != nil {
		s.log.Error("Payment intent failed; cancelling order", "order_id", order.ID, "error", err)
		s.Metrics.IncCheckoutFailure("payment_intent")
		if _, cerr := s.OrderRepo.TransitionStatus(dbc, order.ID, []string{types.OrderStatusPending}, types.OrderStatusCancelled,
			map[string]interface{}{"payment_status": types.PaymentStatusFailed}); cerr != nil {
			s.log.Error("Cancel order after payment failure failed", "order_id", order.ID, "error", cerr)
		}
		return nil, errPaymentUnavailable
	}
	if err := s.OrderRepo.Update(dbc, order.ID, map[string]interface{}{"payment_intent_id": pi.ID}); err != nil {
		return nil, fmt.Errorf("save payment intent: %w", err)
	}
	order.PaymentIntentID = pi.ID

	s.Metrics.IncOrderCreated()
	s.log.Info("Order created", "order_id", order.ID, "order_number", order.OrderNumber, "total_cents", order.TotalCents)
	s.Emitter.ToUser(ctx, userID, realtime.SSEEventOrderUpdated, map[string]any{"order_id": order.ID, "status": order.Status})
	return &CheckoutResult{Order: order, PaymentIntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func lineLabel(l *CartLine) string {
	name := l.Name
	if name == "" {
		name = "an item in your cart"
	}
	if l.VariantName != "" {
		name += " (" + l.VariantName + ")"
	}
	return name
}

func checkoutReason(err error) string {
	if ae := apierr.From(err); ae.Status != http.StatusInternalServerError {
		return ae.Code
	}
	return "internal"
}
