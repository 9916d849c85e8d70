package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

func TestDispatchAllowsRerunAfterFailedRun(t *testing.T) {
	tc := mocks.NewClient(t)
	run := mocks.NewWorkflowRun(t)
	run.On("GetRunID").Return("run-1")
	orderID := uuid.New()

	tc.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(o temporalsdkclient.StartWorkflowOptions) bool {
		return o.ID == WorkflowID(orderID) &&
			o.TaskQueue == "fulfillment" &&
			o.WorkflowIDReusePolicy == enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY
	}), WorkflowName, Input{OrderID: orderID.String(), PaymentIntentID: "pi_1"}).Return(run, nil).Once()

	d := NewTemporalDispatcher(logger.Nop(), tc, "fulfillment")
	require.NoError(t, d.Dispatch(context.Background(), orderID, "pi_1"))
}

func TestDispatchTreatsAlreadyStartedAsSuccess(t *testing.T) {
	tc := mocks.NewClient(t)
	started := serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "")
	tc.On("ExecuteWorkflow", mock.Anything, mock.Anything, WorkflowName, mock.Anything).Return(nil, started).Once()

	d := NewTemporalDispatcher(logger.Nop(), tc, "fulfillment")
	require.NoError(t, d.Dispatch(context.Background(), uuid.New(), ""))
}

func TestDispatchSurfacesStartErrors(t *testing.T) {
	tc := mocks.NewClient(t)
	tc.On("ExecuteWorkflow", mock.Anything, mock.Anything, WorkflowName, mock.Anything).Return(nil, errors.New("unavailable")).Once()

	d := NewTemporalDispatcher(logger.Nop(), tc, "fulfillment")
	require.Error(t, d.Dispatch(context.Background(), uuid.New(), ""))
}
