package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-servientrega-webhook/internal/ledger"
	"github.com/imrishuroy/go-servientrega-webhook/internal/logging"
	"github.com/imrishuroy/go-servientrega-webhook/internal/odoo"
	"github.com/imrishuroy/go-servientrega-webhook/internal/pipeline"
	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
)

// Reconciler is the ledger transition the worker performs.
type Reconciler interface {
	MarkReconciled(ctx context.Context, orderID string) error
}

// Processor checks reconciliation alerts against the upstream order.
// It only verifies: it never writes the order and never asks for redelivery.
type Processor struct {
	reader odoo.Reader
	ledger Reconciler
}

// NewProcessor creates a Processor. ledger may be nil.
func NewProcessor(reader odoo.Reader, ledger Reconciler) *Processor {
	return &Processor{reader: reader, ledger: ledger}
}

// Verdict is the result of checking one alert.
type Verdict int

const (
	Reconciled Verdict = iota + 1
	Diverged
	Unreadable
)

// Handle checks every record of the batch. It always returns nil so that no
// message is redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	zerolog.Ctx(ctx).Info().Int("records", len(ev.Records)).Msg("received SQS messages")
	for _, rec := range ev.Records {
		p.processMessage(ctx, rec)
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) Verdict {
	var alert pipeline.ReconciliationAlert
	if err := json.Unmarshal([]byte(rec.Body), &alert); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("message_id", rec.MessageId).Str("body", rec.Body).Msg("invalid message body")
		return Unreadable
	}
	if alert.RequestID != "" {
		ctx = logging.WithRequestID(ctx, alert.RequestID)
	}
	logger := zerolog.Ctx(ctx).With().Int64("order_id", alert.OrderID).Str("guide", alert.Guide).Logger()

	if alert.Type != pipeline.AlertReconciliationRequired {
		logger.Warn().Str("type", alert.Type).Msg("ignoring alert of unknown type")
		return Unreadable
	}

	current, err := p.currentGuide(ctx, alert.OrderID)
	if err != nil {
		logger.Error().Err(err).Msg("order unreadable; reconciliation still required")
		return Unreadable
	}
	if current != alert.Guide {
		logger.Error().Str("upstream_guide", current).Str("tracking_url", alert.TrackingURL).
			Msg("order does not carry the created guide; reconciliation still required")
		return Diverged
	}

	logger.Info().Msg("order carries the created guide")
	if p.ledger != nil {
		err := p.ledger.MarkReconciled(ctx, strconv.FormatInt(alert.OrderID, 10))
		switch {
		case errors.Is(err, ledger.ErrStatusMismatch):
			logger.Info().Msg("ledger entry was not awaiting reconciliation")
		case err != nil:
			logger.Warn().Err(err).Msg("ledger entry not marked reconciled")
		}
	}
	return Reconciled
}

func (p *Processor) currentGuide(ctx context.Context, orderID int64) (string, error) {
	rec, err := odoo.ReadOne(ctx, p.reader, shipping.ModelOrder, orderID, []string{"carrier_tracking_ref"})
	if err != nil {
		return "", fmt.Errorf("read order: %w", err)
	}
	return rec.String("carrier_tracking_ref"), nil
}
