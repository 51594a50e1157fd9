package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerWarmup pre-computes the merged ledger snapshot.
	TaskLedgerWarmup = "ledger:warmup"
	// TaskArchiveIntegrity scans archive metadata for inconsistencies.
	TaskArchiveIntegrity = "archive:integrity"
)

// LedgerWarmupPayload carries scheduling metadata for the warmup task.
type LedgerWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerWarmupTask constructs an Asynq task for ledger snapshot warmup.
func NewLedgerWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerWarmup, body, asynq.Queue(QueueDefault)), nil
}

// ArchiveIntegrityPayload carries scheduling metadata for the integrity scan.
type ArchiveIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewArchiveIntegrityTask constructs an Asynq task for the archive scan.
func NewArchiveIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ArchiveIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveIntegrity, body, asynq.Queue(QueueDefault)), nil
}
