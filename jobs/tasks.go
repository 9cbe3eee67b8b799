package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeDenylistRefresh reloads the disposable-domain list into Redis.
	TaskTypeDenylistRefresh = "denylist:refresh"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// DenylistRefreshPayload points at the upstream domain list.
type DenylistRefreshPayload struct {
	SourceURL string `json:"source_url"`
}

// NewDenylistRefreshTask constructs an Asynq task.
func NewDenylistRefreshTask(sourceURL string) (*asynq.Task, error) {
	data, err := json.Marshal(DenylistRefreshPayload{SourceURL: sourceURL})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDenylistRefresh, data), nil
}
