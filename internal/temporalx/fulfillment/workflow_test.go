package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type fakeSteps struct {
	mu          sync.Mutex
	alreadyPaid bool
	unconfirmed bool
	markErr     error
	emailErr    error
	calls       []string
}

func (f *fakeSteps) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeSteps) MarkPaid(_ context.Context, _ uuid.UUID, _ string) (MarkPaidResult, error) {
	f.record("mark_paid")
	if f.markErr != nil {
		return MarkPaidResult{}, f.markErr
	}
	if f.alreadyPaid {
		return MarkPaidResult{Transitioned: false, FollowUp: f.unconfirmed, Status: "paid"}, nil
	}
	return MarkPaidResult{Transitioned: true, FollowUp: true, Status: "paid"}, nil
}

func (f *fakeSteps) ClearCart(context.Context, uuid.UUID) error {
	f.record("clear_cart")
	return nil
}

func (f *fakeSteps) SendConfirmation(context.Context, uuid.UUID) error {
	f.record("email")
	return f.emailErr
}

func (f *fakeSteps) PublishOrderUpdated(context.Context, uuid.UUID) error {
	f.record("publish")
	return nil
}

func newEnv(t *testing.T, steps Steps) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	(&Activities{Steps: steps}).Register(env)
	return env
}

func TestWorkflowRunsAllSteps(t *testing.T) {
	steps := &fakeSteps{}
	env := newEnv(t, steps)
	env.ExecuteWorkflow(WorkflowName, Input{OrderID: uuid.NewString(), PaymentIntentID: "pi_1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.True(t, res.Transitioned)
	assert.True(t, res.EmailSent)
	assert.Equal(t, []string{"mark_paid", "clear_cart", "email", "publish"}, steps.calls)
}

func TestWorkflowSkipsSideEffectsWhenAlreadyPaid(t *testing.T) {
	steps := &fakeSteps{alreadyPaid: true}
	env := newEnv(t, steps)
	env.ExecuteWorkflow(WorkflowName, Input{OrderID: uuid.NewString()})

	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.False(t, res.Transitioned)
	assert.Equal(t, []string{"mark_paid"}, steps.calls)
}

func TestWorkflowFollowsUpPaidUnconfirmedOrder(t *testing.T) {
	steps := &fakeSteps{alreadyPaid: true, unconfirmed: true}
	env := newEnv(t, steps)
	env.ExecuteWorkflow(WorkflowName, Input{OrderID: uuid.NewString()})

	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.False(t, res.Transitioned)
	assert.True(t, res.EmailSent)
	assert.Equal(t, []string{"mark_paid", "clear_cart", "email", "publish"}, steps.calls)
}

func TestWorkflowToleratesEmailFailure(t *testing.T) {
	steps := &fakeSteps{emailErr: errors.New("smtp down")}
	env := newEnv(t, steps)
	env.ExecuteWorkflow(WorkflowName, Input{OrderID: uuid.NewString()})

	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.False(t, res.EmailSent)
	assert.Contains(t, steps.calls, "publish")
}

func TestWorkflowFailsFastOnMissingOrder(t *testing.T) {
	steps := &fakeSteps{markErr: apierr.NotFound("order")}
	env := newEnv(t, steps)
	env.ExecuteWorkflow(WorkflowName, Input{OrderID: uuid.NewString()})

	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, []string{"mark_paid"}, steps.calls)
}

func TestWorkflowRejectsBadOrderID(t *testing.T) {
	env := newEnv(t, &fakeSteps{})
	env.ExecuteWorkflow(WorkflowName, Input{OrderID: "nope"})
	require.Error(t, env.GetWorkflowError())
}

func TestRunInline(t *testing.T) {
	steps := &fakeSteps{}
	res, err := RunInline(context.Background(), logger.Nop(), steps, Input{OrderID: uuid.NewString()})
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Len(t, steps.calls, 4)

	steps = &fakeSteps{alreadyPaid: true, unconfirmed: true}
	res, err = RunInline(context.Background(), logger.Nop(), steps, Input{OrderID: uuid.NewString()})
	require.NoError(t, err)
	assert.False(t, res.Transitioned)
	assert.Len(t, steps.calls, 4)

	steps = &fakeSteps{markErr: errors.New("db down")}
	_, err = RunInline(context.Background(), logger.Nop(), steps, Input{OrderID: uuid.NewString()})
	require.Error(t, err)
}
