package pipeline

import "github.com/imrishuroy/go-servientrega-webhook/internal/servientrega"

// Outcome says how a notification ended without error.
type Outcome int

const (
	// Skipped means the notification was not for this pipeline.
	Skipped Outcome = iota + 1
	// Existing means the order already carried a guide and none was created.
	Existing
	// Created means the carrier accepted a new guide.
	Created
)

// Skip reasons.
const (
	ReasonNonOrderModel = "non_picking_model"
	ReasonOtherCarrier  = "carrier_not_matched"
)

// ExistingMessage accompanies an Existing result.
const ExistingMessage = "guide already exists upstream; no new guide generated"

// Result is the successful end of a notification.
type Result struct {
	Outcome Outcome
	Reason  string
	Guide   string
	URL     string
	// Label is set for Created results only.
	Label servientrega.LabelResult
	// Persisted is false when the upstream write-back failed after creation.
	Persisted bool
}
