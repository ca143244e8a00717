package domain

import "time"

// Status is a step in the processing lifecycle of one travel request:
// pending -> processing -> done | error.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Active reports whether the request is still waiting for a result.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// ProcessingStatus is the status record of a single travel request.
// ResultID is set once the status reaches done.
type ProcessingStatus struct {
	ResponseID   string    `json:"response_id"`
	Status       Status    `json:"status"`
	ResultID     *string   `json:"result_id"`
	ErrorMessage *string   `json:"error_message"`
	UpdatedAt    time.Time `json:"updated_at"`
}
