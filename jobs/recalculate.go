package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RecalculateService is the slice of the finance service the job needs.
type RecalculateService interface {
	Recalculate(ctx context.Context, persist bool) (finance.Result, error)
}

// RecalculateJob runs the reconciliation engine in the background and
// optionally persists the derived debts and corrections.
type RecalculateJob struct {
	Service RecalculateService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewRecalculateJob initialises the recalculation handler.
func NewRecalculateJob(service RecalculateService, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecalculateJob {
	return &RecalculateJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the recalculation logic.
func (j *RecalculateJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("recalculate: handler not configured")
	}
	var payload RecalculatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	tracker := j.metrics().Track(TaskFinanceRecalculate)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Bool("persist", payload.Persist),
		slog.String("trigger", payload.Trigger),
	)
	logger.Info("starting finance recalculation")

	result, err := j.Service.Recalculate(ctx, payload.Persist)
	if err != nil {
		resultErr = err
		logger.Error("recalculation failed", slog.Any("error", err))
		return resultErr
	}

	byKind := make(map[finance.SubjectKind]int)
	for _, c := range result.Corrections {
		byKind[c.Kind]++
	}
	for kind, count := range byKind {
		j.metrics().AddCorrections(string(kind), count)
	}
	if !result.Balanced() {
		logger.Warn("balance sheet out of tolerance",
			slog.Float64("total_assets", result.Sheet.TotalAssets),
			slog.Float64("total_passives", result.Sheet.TotalPassives),
		)
	}

	logger.Info("completed finance recalculation",
		slog.Int("debts", len(result.Debts)),
		slog.Int("corrections", len(result.Corrections)),
		slog.Int("unreliable_inputs", result.UnreliableInputs),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *RecalculateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinanceRecalculate))
	}
	return slog.Default().With(slog.String("job", TaskFinanceRecalculate))
}

func (j *RecalculateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RecalculateJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
