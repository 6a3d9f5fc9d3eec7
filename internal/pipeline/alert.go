package pipeline

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// AlertReconciliationRequired is the type of the alert raised on a failed write-back.
const AlertReconciliationRequired = "reconciliation_required"

// ReconciliationAlert tells operators that a guide exists at the carrier but
// not on the upstream order.
type ReconciliationAlert struct {
	Type        string    `json:"type"`
	OrderID     int64     `json:"order_id"`
	Guide       string    `json:"guide"`
	TrackingURL string    `json:"tracking_url"`
	Reason      string    `json:"reason"`
	RequestID   string    `json:"request_id,omitempty"`
	RaisedAt    time.Time `json:"raised_at"`
}

// Alerter publishes operator alerts.
type Alerter interface {
	Publish(ctx context.Context, messageBody string, attributes map[string]string) error
}

func publishAlert(ctx context.Context, a Alerter, alert ReconciliationAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return a.Publish(ctx, string(body), map[string]string{
		"type":     alert.Type,
		"order_id": strconv.FormatInt(alert.OrderID, 10),
	})
}
