package domain

// FailedItem is a pipeline run that ended in a failed outcome, kept for replay.
type FailedItem struct {
	ID          string           `json:"id"`
	Prompt      string           `json:"prompt"`
	Caption     string           `json:"caption"`
	Kind        ErrorKind        `json:"kind"`
	Stage       Stage            `json:"stage"`
	Error       string           `json:"error_msg"`
	RetryCount  int              `json:"retry_count"`
	Status      FailedItemStatus `json:"status"`
	LastAttempt uint64           `json:"last_attempt"`
	CreatedAt   uint64           `json:"created_at"`
}

type FailedItemStatus string

const (
	FailedItemStatusPending  FailedItemStatus = "pending"
	FailedItemStatusResolved FailedItemStatus = "resolved"
	FailedItemStatusIgnored  FailedItemStatus = "ignored"
)
