package fulfillment

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/storefront-backend/internal/platform/apierr"
)

type Activities struct {
	Steps Steps
}

// Registry is satisfied by worker.Worker and the test workflow environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

func (a *Activities) Register(w Registry) {
	w.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(a.MarkPaid, activity.RegisterOptions{Name: ActivityMarkPaid})
	w.RegisterActivityWithOptions(a.ClearCart, activity.RegisterOptions{Name: ActivityClearCart})
	w.RegisterActivityWithOptions(a.SendConfirmation, activity.RegisterOptions{Name: ActivitySendConfirmation})
	w.RegisterActivityWithOptions(a.Publish, activity.RegisterOptions{Name: ActivityPublish})
}

func (a *Activities) MarkPaid(ctx context.Context, in Input) (MarkPaidResult, error) {
	id, err := parseOrderID(in.OrderID)
	if err != nil {
		return MarkPaidResult{}, temporal.NewNonRetryableApplicationError("invalid order id", "invalid_input", err)
	}
	out, err := a.Steps.MarkPaid(ctx, id, in.PaymentIntentID)
	return out, classify(err)
}

func (a *Activities) ClearCart(ctx context.Context, orderID string) error {
	id, err := parseOrderID(orderID)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid order id", "invalid_input", err)
	}
	return classify(a.Steps.ClearCart(ctx, id))
}

func (a *Activities) SendConfirmation(ctx context.Context, orderID string) error {
	id, err := parseOrderID(orderID)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid order id", "invalid_input", err)
	}
	return classify(a.Steps.SendConfirmation(ctx, id))
}

func (a *Activities) Publish(ctx context.Context, orderID string) error {
	id, err := parseOrderID(orderID)
	if err != nil {
		return temporal.NewNonRetryableApplicationError("invalid order id", "invalid_input", err)
	}
	return classify(a.Steps.PublishOrderUpdated(ctx, id))
}

// classify stops retries for errors another attempt cannot fix.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		switch ae.Status {
		case 404:
			return temporal.NewNonRetryableApplicationError(err.Error(), "not_found", err)
		case 409:
			return temporal.NewNonRetryableApplicationError(err.Error(), "invalid_transition", err)
		}
	}
	return err
}
