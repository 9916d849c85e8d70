package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/realtime"
	"github.com/yungbote/storefront-backend/internal/temporalx/fulfillment"
)

const (
	AuthEventUserCreated = "user.created"
	AuthEventUserUpdated = "user.updated"
	AuthEventUserDeleted = "user.deleted"
)

var errWebhookDisabled = apierr.New(http.StatusServiceUnavailable, "webhook_disabled", errors.New("webhook secret not configured"))

// AuthEvent is the auth provider's user lifecycle notification.
type AuthEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"data"`
}

type WebhookAck struct {
	Received bool   `json:"received"`
	Event    string `json:"event,omitempty"`
	Handled  bool   `json:"handled"`
}

type WebhookService interface {
	// HandlePayment verifies and applies a payment processor event. Events
	// that match no order are acknowledged so the processor stops retrying.
	HandlePayment(ctx context.Context, payload []byte, signature string) (*WebhookAck, error)
	HandleAuth(ctx context.Context, payload []byte, signature string) (*WebhookAck, error)
}

type WebhookDeps struct {
	OrderRepo      repos.OrderRepo
	UserRepo       repos.UserRepo
	Dispatcher     fulfillment.Dispatcher
	PaymentsSecret string
	AuthSecret     string
	Tolerance      time.Duration
	Emitter        *realtime.Emitter
	Metrics        *observability.Metrics
}

type webhookService struct {
	log *logger.Logger
	WebhookDeps
	now func() time.Time
}

func NewWebhookService(log *logger.Logger, deps WebhookDeps) WebhookService {
	if deps.Tolerance <= 0 {
		deps.Tolerance = payments.DefaultTolerance
	}
	return &webhookService{log: log.With("service", "WebhookService"), WebhookDeps: deps, now: time.Now}
}

func (s *webhookService) verify(source string, payload []byte, signature, secret string) error {
	if strings.TrimSpace(secret) == "" {
		s.Metrics.IncWebhook(source, "unknown", "disabled")
		return errWebhookDisabled
	}
	if err := payments.VerifySignature(payload, signature, secret, s.Tolerance, s.now()); err != nil {
		s.Metrics.IncWebhook(source, "unknown", "bad_signature")
		s.log.Warn("Webhook signature rejected", "source", source, "error", err)
		return apierr.New(http.StatusBadRequest, "invalid_signature", err)
	}
	return nil
}

func (s *webhookService) HandlePayment(ctx context.Context, payload []byte, signature string) (*WebhookAck, error) {
	if err := s.verify("payments", payload, signature, s.PaymentsSecret); err != nil {
		return nil, err
	}
	evt, err := payments.ParseEvent(payload)
	if err != nil {
		s.Metrics.IncWebhook("payments", "unknown", "malformed")
		return nil, apierr.BadRequest("invalid_payload", err.Error())
	}
	ack := &WebhookAck{Received: true, Event: evt.Type}

	switch evt.Type {
	case payments.EventPaymentSucceeded, payments.EventPaymentFailed:
	default:
		s.Metrics.IncWebhook("payments", evt.Type, "ignored")
		return ack, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	o, err := s.orderFor(dbc, &evt.Data.Object)
	if err != nil {
		s.Metrics.IncWebhook("payments", evt.Type, "error")
		return nil, err
	}
	if o == nil {
		s.log.Warn("Payment event for unknown order", "event_id", evt.ID, "payment_intent_id", evt.Data.Object.ID)
		s.Metrics.IncWebhook("payments", evt.Type, "unmatched")
		return ack, nil
	}

	switch evt.Type {
	case payments.EventPaymentSucceeded:
		if evt.Data.Object.Amount > 0 && evt.Data.Object.Amount != o.TotalCents {
			s.log.Warn("Payment amount differs from order total", "order_id", o.ID, "amount", evt.Data.Object.Amount, "total_cents", o.TotalCents)
		}
		if err := s.Dispatcher.Dispatch(ctx, o.ID, evt.Data.Object.ID); err != nil {
			s.Metrics.IncWebhook("payments", evt.Type, "error")
			return nil, fmt.Errorf("dispatch fulfillment: %w", err)
		}
	case payments.EventPaymentFailed:
		if o.Status == types.OrderStatusPending {
			if err := s.OrderRepo.Update(dbc, o.ID, map[string]interface{}{"payment_status": types.PaymentStatusFailed}); err != nil {
				s.Metrics.IncWebhook("payments", evt.Type, "error")
				return nil, fmt.Errorf("record payment failure: %w", err)
			}
			s.Emitter.ToUser(ctx, o.UserID, realtime.SSEEventOrderUpdated, map[string]any{"order_id": o.ID, "status": o.Status, "payment_status": types.PaymentStatusFailed})
		}
	}
	ack.Handled = true
	s.Metrics.IncWebhook("payments", evt.Type, "handled")
	s.log.Info("Payment event handled", "event_id", evt.ID, "type", evt.Type, "order_id", o.ID)
	return ack, nil
}

// orderFor matches by the order id stamped into intent metadata at checkout,
// falling back to the stored intent id.
func (s *webhookService) orderFor(dbc dbctx.Context, pi *payments.PaymentIntent) (*types.Order, error) {
	if raw := pi.Metadata["order_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			o, err := s.OrderRepo.GetByID(dbc, id)
			if err != nil {
				return nil, fmt.Errorf("load order: %w", err)
			}
			if o != nil {
				return o, nil
			}
		}
	}
	o, err := s.OrderRepo.GetByPaymentIntent(dbc, pi.ID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return o, nil
}

func (s *webhookService) HandleAuth(ctx context.Context, payload []byte, signature string) (*WebhookAck, error) {
	if err := s.verify("auth", payload, signature, s.AuthSecret); err != nil {
		return nil, err
	}
	var evt AuthEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		s.Metrics.IncWebhook("auth", "unknown", "malformed")
		return nil, apierr.BadRequest("invalid_payload", err.Error())
	}
	ack := &WebhookAck{Received: true, Event: evt.Type}
	extID := strings.TrimSpace(evt.Data.ID)
	if extID == "" {
		s.Metrics.IncWebhook("auth", evt.Type, "malformed")
		return nil, apierr.BadRequest("invalid_payload", "data.id required")
	}

	dbc := dbctx.Context{Ctx: ctx}
	switch evt.Type {
	case AuthEventUserCreated, AuthEventUserUpdated:
		email, err := normalizeEmail(evt.Data.Email)
		if err != nil {
			s.Metrics.IncWebhook("auth", evt.Type, "malformed")
			return nil, err
		}
		u := &types.User{
			Email:      email,
			FirstName:  strings.TrimSpace(evt.Data.FirstName),
			LastName:   strings.TrimSpace(evt.Data.LastName),
			AvatarURL:  strings.TrimSpace(evt.Data.AvatarURL),
			Role:       types.RoleCustomer,
			ExternalID: &extID,
		}
		saved, err := s.UserRepo.UpsertByExternalID(dbc, u)
		if err != nil {
			s.Metrics.IncWebhook("auth", evt.Type, "error")
			if isDuplicate(err) {
				return nil, apierr.Conflict("email_taken", "email belongs to another account")
			}
			return nil, fmt.Errorf("upsert user: %w", err)
		}
		s.log.Info("Auth user synced", "event_id", evt.ID, "user_id", saved.ID)
	case AuthEventUserDeleted:
		deleted, err := s.UserRepo.SoftDeleteByExternalID(dbc, extID)
		if err != nil {
			s.Metrics.IncWebhook("auth", evt.Type, "error")
			return nil, fmt.Errorf("delete user: %w", err)
		}
		if !deleted {
			s.Metrics.IncWebhook("auth", evt.Type, "unmatched")
			return ack, nil
		}
	default:
		s.Metrics.IncWebhook("auth", evt.Type, "ignored")
		return ack, nil
	}
	ack.Handled = true
	s.Metrics.IncWebhook("auth", evt.Type, "handled")
	return ack, nil
}
