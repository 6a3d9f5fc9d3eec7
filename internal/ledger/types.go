package ledger

import "time"

// Status values for guide records
const (
	StatusCreated       = "CREATED"
	StatusPersisted     = "PERSISTED"
	StatusPersistFailed = "PERSIST_FAILED"
	StatusReconciled    = "RECONCILED"
)

// DefaultTTL keeps a record long enough for operators to reconcile it.
const DefaultTTL = 90 * 24 * time.Hour

// GuideRecord is the shape persisted in the guide ledger table.
type GuideRecord struct {
	OrderID     string    `dynamodbav:"order_id"` // PK
	RecordID    string    `dynamodbav:"record_id"`
	Status      string    `dynamodbav:"status"`
	Guide       string    `dynamodbav:"guide"`
	TrackingURL string    `dynamodbav:"tracking_url"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
	ExpiresAt   int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note        string    `dynamodbav:"note,omitempty"`
}
