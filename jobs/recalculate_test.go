package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/finance"
)

type stubRecalculateService struct {
	result      finance.Result
	err         error
	calls       int
	lastPersist bool
}

func (s *stubRecalculateService) Recalculate(ctx context.Context, persist bool) (finance.Result, error) {
	s.calls++
	s.lastPersist = persist
	return s.result, s.err
}

func TestRecalculateJobHandlesTask(t *testing.T) {
	svc := &stubRecalculateService{result: finance.Result{
		Sheet: finance.BalanceSheet{TotalAssets: 100, TotalPassives: 100},
	}}
	job := NewRecalculateJob(svc, nil, nil)

	task, err := NewRecalculateTask(true, "manual")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, svc.calls)
	assert.True(t, svc.lastPersist)
}

func TestRecalculateJobPropagatesServiceError(t *testing.T) {
	boom := errors.New("snapshot gone")
	svc := &stubRecalculateService{err: boom}
	job := NewRecalculateJob(svc, nil, nil)

	task, err := NewRecalculateTask(false, "manual")
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestRecalculateJobSkipsRetryOnMalformedPayload(t *testing.T) {
	svc := &stubRecalculateService{}
	job := NewRecalculateJob(svc, nil, nil)

	task := asynq.NewTask(TaskFinanceRecalculate, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, svc.calls)
}
