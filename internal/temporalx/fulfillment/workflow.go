package fulfillment

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

func Workflow(ctx workflow.Context, in Input) (Result, error) {
	res := Result{OrderID: in.OrderID}
	if _, err := parseOrderID(in.OrderID); err != nil {
		return res, temporal.NewNonRetryableApplicationError("invalid order id", "invalid_input", err)
	}
	log := workflow.GetLogger(ctx)

	critical := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        10,
			NonRetryableErrorTypes: []string{"not_found", "invalid_transition"},
		},
	})
	bestEffort := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	var paid MarkPaidResult
	if err := workflow.ExecuteActivity(critical, ActivityMarkPaid, in).Get(ctx, &paid); err != nil {
		return res, fmt.Errorf("mark paid: %w", err)
	}
	res.Transitioned = paid.Transitioned
	if !paid.FollowUp {
		log.Info("Order already fulfilled; skipping side effects", "order_id", in.OrderID, "status", paid.Status)
		return res, nil
	}

	if err := workflow.ExecuteActivity(bestEffort, ActivityClearCart, in.OrderID).Get(ctx, nil); err != nil {
		log.Warn("Clear cart failed", "order_id", in.OrderID, "error", err)
	}
	if err := workflow.ExecuteActivity(bestEffort, ActivitySendConfirmation, in.OrderID).Get(ctx, nil); err != nil {
		log.Warn("Order confirmation email failed", "order_id", in.OrderID, "error", err)
	} else {
		res.EmailSent = true
	}
	if err := workflow.ExecuteActivity(bestEffort, ActivityPublish, in.OrderID).Get(ctx, nil); err != nil {
		log.Warn("Publish order update failed", "order_id", in.OrderID, "error", err)
	}
	return res, nil
}
