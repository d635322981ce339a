package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceRecalculate is the task type for a full reconciliation pass.
	TaskFinanceRecalculate = "finance:recalculate"
)

// RecalculatePayload configures one reconciliation run. CorrelationID ties the
// run's log lines to the trigger that enqueued it.
type RecalculatePayload struct {
	CorrelationID string `json:"correlation_id"`
	Persist       bool   `json:"persist"`
	Trigger       string `json:"trigger"`
}

// NewRecalculateTask constructs an Asynq task for a reconciliation run.
func NewRecalculateTask(persist bool, trigger string) (*asynq.Task, error) {
	payload := RecalculatePayload{
		CorrelationID: uuid.NewString(),
		Persist:       persist,
		Trigger:       trigger,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceRecalculate, data), nil
}
