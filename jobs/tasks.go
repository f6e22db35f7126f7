package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerOpenDay creates the ledger for a date, seeded from the previous day.
	TaskLedgerOpenDay = "ledger:open-day"
	// TaskLedgerRecalculate re-derives stock for an existing ledger.
	TaskLedgerRecalculate = "ledger:recalculate"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "ledger:idempotency-cleanup"

	dateLayout = "2006-01-02"
)

// DatePayload names the ledger date a task works on. An empty date means
// today in the ledger timezone.
type DatePayload struct {
	Date string `json:"date,omitempty"`
}

// CleanupPayload configures idempotency key pruning.
type CleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewOpenDayTask constructs a TaskLedgerOpenDay task.
func NewOpenDayTask(date string) (*asynq.Task, error) {
	return newDateTask(TaskLedgerOpenDay, date)
}

// NewRecalculateTask constructs a TaskLedgerRecalculate task. A date is required.
func NewRecalculateTask(date string) (*asynq.Task, error) {
	if date == "" {
		return nil, fmt.Errorf("jobs: %s requires a date", TaskLedgerRecalculate)
	}
	return newDateTask(TaskLedgerRecalculate, date)
}

// NewIdempotencyCleanupTask constructs a TaskIdempotencyCleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	if olderThan <= 0 {
		olderThan = 7 * 24 * time.Hour
	}
	body, err := json.Marshal(CleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

func newDateTask(typ, date string) (*asynq.Task, error) {
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("jobs: invalid date %q (expected YYYY-MM-DD)", date)
		}
	}
	body, err := json.Marshal(DatePayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault)), nil
}
