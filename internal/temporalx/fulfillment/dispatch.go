package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// Dispatcher starts fulfillment for a paid order.
type Dispatcher interface {
	Dispatch(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error
}

type temporalDispatcher struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewTemporalDispatcher(log *logger.Logger, tc temporalsdkclient.Client, taskQueue string) Dispatcher {
	return &temporalDispatcher{log: log.With("component", "FulfillmentDispatcher"), tc: tc, taskQueue: taskQueue}
}

// Dispatch treats an already running or completed workflow for the order as
// success, so redelivered webhooks start nothing new. A failed run may be
// started again.
func (d *temporalDispatcher) Dispatch(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error {
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    WorkflowID(orderID),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,

		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	run, err := d.tc.ExecuteWorkflow(ctx, opts, WorkflowName, Input{OrderID: orderID.String(), PaymentIntentID: paymentIntentID})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			d.log.Info("Fulfillment already started", "order_id", orderID)
			return nil
		}
		return fmt.Errorf("start fulfillment workflow: %w", err)
	}
	d.log.Info("Fulfillment workflow started", "order_id", orderID, "run_id", run.GetRunID())
	return nil
}

type inlineDispatcher struct {
	log   *logger.Logger
	steps Steps
}

// NewInlineDispatcher runs the workflow's steps in-process when Temporal is
// not configured.
func NewInlineDispatcher(log *logger.Logger, steps Steps) Dispatcher {
	return &inlineDispatcher{log: log.With("component", "InlineFulfillment"), steps: steps}
}

func (d *inlineDispatcher) Dispatch(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error {
	_, err := RunInline(ctx, d.log, d.steps, Input{OrderID: orderID.String(), PaymentIntentID: paymentIntentID})
	return err
}

// RunInline mirrors Workflow without retries.
func RunInline(ctx context.Context, log *logger.Logger, steps Steps, in Input) (Result, error) {
	res := Result{OrderID: in.OrderID}
	id, err := parseOrderID(in.OrderID)
	if err != nil {
		return res, fmt.Errorf("invalid order id: %w", err)
	}
	paid, err := steps.MarkPaid(ctx, id, in.PaymentIntentID)
	if err != nil {
		return res, fmt.Errorf("mark paid: %w", err)
	}
	res.Transitioned = paid.Transitioned
	if !paid.FollowUp {
		return res, nil
	}
	if err := steps.ClearCart(ctx, id); err != nil {
		log.Warn("Clear cart failed", "order_id", id, "error", err)
	}
	if err := steps.SendConfirmation(ctx, id); err != nil {
		log.Warn("Order confirmation email failed", "order_id", id, "error", err)
	} else {
		res.EmailSent = true
	}
	if err := steps.PublishOrderUpdated(ctx, id); err != nil {
		log.Warn("Publish order update failed", "order_id", id, "error", err)
	}
	return res, nil
}
