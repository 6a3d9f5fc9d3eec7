package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imrishuroy/go-servientrega-webhook/internal/logging"
	"github.com/imrishuroy/go-servientrega-webhook/internal/metrics"
	"github.com/imrishuroy/go-servientrega-webhook/internal/odoo"
	"github.com/imrishuroy/go-servientrega-webhook/internal/servientrega"
	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
)

var tracer = otel.Tracer("pipeline")

// Carrier creates guides and fetches their labels.
type Carrier interface {
	SubmitGuide(ctx context.Context, p shipping.ShipmentPayload) (servientrega.Reply, error)
	FetchLabel(ctx context.Context, guide string) servientrega.LabelResult
}

// Ledger keeps an audit trail of created guides. Its failures never change a response.
type Ledger interface {
	RecordCreated(ctx context.Context, orderID, guide, trackingURL string) error
	MarkPersisted(ctx context.Context, orderID string) error
	MarkPersistFailed(ctx context.Context, orderID, note string) error
}

// Settings are the environment switches the pipeline honours.
type Settings struct {
	// CarrierName is matched against the order's carrier display name.
	CarrierName string
	// CarrierProduction enables the existing-guide short-circuit.
	CarrierProduction bool
	// UpstreamProduction hides the non-production carrier flag field.
	UpstreamProduction bool
	TrackingBaseURL    string
}

// Orchestrator turns one notification into at most one carrier guide.
type Orchestrator struct {
	store     odoo.Store
	carrier   Carrier
	builder   *shipping.Builder
	persister *Persister
	settings  Settings

	eligibility shipping.Eligibility
	matcher     shipping.CarrierMatcher

	ledger   Ledger
	alerter  Alerter
	recorder metrics.Recorder
	nowFunc  func() time.Time
}

// Option configures optional collaborators.
type Option func(*Orchestrator)

func WithLedger(l Ledger) Option { return func(o *Orchestrator) { o.ledger = l } }

func WithAlerter(a Alerter) Option { return func(o *Orchestrator) { o.alerter = a } }

func WithRecorder(r metrics.Recorder) Option { return func(o *Orchestrator) { o.recorder = r } }

// New wires an Orchestrator.
func New(store odoo.Store, carrier Carrier, builder *shipping.Builder, settings Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		carrier:   carrier,
		builder:   builder,
		persister: NewPersister(store),
		settings:  settings,
		eligibility: shipping.Eligibility{
			AllowExistingGuide: !settings.CarrierProduction,
		},
		matcher: shipping.CarrierMatcher{
			Carrier:   settings.CarrierName,
			HonorFlag: !settings.UpstreamProduction,
		},
		recorder: metrics.Nop{},
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TrackingURL is the public tracking page of a guide.
func (o *Orchestrator) TrackingURL(guide string) string {
	return o.settings.TrackingBaseURL + guide
}

// Process runs the pipeline for one notification. model is the optional model
// tag and rawID the record identifier as received.
func (o *Orchestrator) Process(ctx context.Context, model string, rawID interface{}) (Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Process")
	defer span.End()

	res, err := o.process(ctx, model, rawID)
	o.recorder.Record(ctx, eventFor(res, err))

	if err != nil {
		span.SetAttributes(attribute.String("pipeline.error", err.Error()))
	} else {
		span.SetAttributes(attribute.String("pipeline.guide", res.Guide))
	}
	return res, err
}

func (o *Orchestrator) process(ctx context.Context, model string, rawID interface{}) (Result, error) {
	logger := zerolog.Ctx(ctx)

	if model != "" && model != shipping.ModelOrder {
		logger.Info().Str("model", model).Msg("ignoring notification for another model")
		return Result{Outcome: Skipped, Reason: ReasonNonOrderModel}, nil
	}

	id, err := odoo.ParseID(rawID)
	switch {
	case errors.Is(err, odoo.ErrMissingID):
		return Result{}, &Error{Kind: KindClient, Code: CodeMissingID, Detail: "id or _id is required", Err: err}
	case err != nil:
		return Result{}, &Error{Kind: KindClient, Code: CodeInvalidID, Detail: fmt.Sprintf("id %v is not an integer", rawID), Err: err}
	}
	logger.Info().Int64("order_id", id).Msg("processing notification")

	rec, err := odoo.ReadOne(ctx, o.store, shipping.ModelOrder, id, shipping.OrderFields(!o.settings.UpstreamProduction))
	if err != nil {
		return Result{}, &Error{Kind: KindNotFound, Code: CodePickingNotFound, Detail: fmt.Sprintf("order %d not found", id), Err: err}
	}
	order := shipping.OrderFromRecord(rec)
	if order.ID == 0 {
		order.ID = id
	}

	if o.settings.CarrierProduction && order.TrackingRef != "" {
		logger.Info().Str("guide", order.TrackingRef).Msg("order already has a guide")
		return Result{Outcome: Existing, Guide: order.TrackingRef, URL: o.TrackingURL(order.TrackingRef)}, nil
	}

	if !o.matcher.Match(order) {
		logger.Info().Str("carrier", order.CarrierName).Msg("order belongs to another carrier")
		return Result{Outcome: Skipped, Reason: ReasonOtherCarrier}, nil
	}

	if err := o.eligibility.Validate(order, order.PartnerID); err != nil {
		e := &Error{Kind: KindValidation, Code: CodeValidationFailed, Detail: err.Error(), Err: err}
		var ve *shipping.ValidationError
		if errors.As(err, &ve) {
			e.Problems = ve.Problems
		}
		return Result{}, e
	}

	partyRec, err := odoo.ReadOne(ctx, o.store, shipping.ModelPartner, order.PartnerID, shipping.PartyFields)
	if err != nil {
		return Result{}, &Error{Kind: KindNotFound, Code: CodePartnerNotFound, Detail: fmt.Sprintf("partner %d not found", order.PartnerID), Err: err}
	}
	party := shipping.PartyFromRecord(partyRec)

	goods := shipping.Summarize(o.lineItems(ctx, order))

	payload, err := o.builder.Build(order, party, goods)
	if err != nil {
		var mf *shipping.MissingFieldError
		if errors.As(err, &mf) {
			return Result{}, &Error{Kind: KindValidation, Code: CodePartnerIncomplete, Detail: err.Error(), Problems: mf.Fields, Err: err}
		}
		return Result{}, &Error{Kind: KindValidation, Code: CodeValidationFailed, Detail: err.Error(), Err: err}
	}

	guide, err := o.submit(ctx, payload)
	if err != nil {
		return Result{}, err
	}
	url := o.TrackingURL(guide)
	logger.Info().Str("guide", guide).Msg("guide created")

	orderKey := strconv.FormatInt(order.ID, 10)
	if o.ledger != nil {
		if err := o.ledger.RecordCreated(ctx, orderKey, guide, url); err != nil {
			logger.Warn().Err(err).Msg("ledger entry not recorded")
		}
	}

	label := o.carrier.FetchLabel(ctx, guide)
	if lu, ok := label.(servientrega.LabelUnavailable); ok {
		logger.Warn().Str("reason", lu.Reason).Msg("label unavailable, continuing without it")
		o.recorder.Record(ctx, metrics.LabelFailure)
	}

	res := Result{Outcome: Created, Guide: guide, URL: url, Label: label, Persisted: true}
	if err := o.persister.Persist(ctx, order.ID, guide, url, label); err != nil {
		res.Persisted = false
		o.persistenceFailed(ctx, order.ID, guide, url, err)
	} else if o.ledger != nil {
		if err := o.ledger.MarkPersisted(ctx, orderKey); err != nil {
			logger.Warn().Err(err).Msg("ledger entry not marked persisted")
		}
	}
	return res, nil
}

// lineItems reads the order's moves. Failures yield no items: eligibility has
// already required at least one line.
func (o *Orchestrator) lineItems(ctx context.Context, order shipping.Order) []shipping.LineItem {
	if len(order.MoveIDs) == 0 {
		return nil
	}
	recs, err := o.store.Read(ctx, shipping.ModelMove, order.MoveIDs, shipping.LineItemFields)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("line items unreadable, using minimum declared value")
		return nil
	}
	return shipping.LineItemsFromRecords(recs)
}

// submit sends the payload and reduces the reply to a guide number.
func (o *Orchestrator) submit(ctx context.Context, payload shipping.ShipmentPayload) (string, error) {
	logger := zerolog.Ctx(ctx)

	reply, err := o.carrier.SubmitGuide(ctx, payload)
	if err != nil {
		var te *servientrega.TransportError
		if errors.As(err, &te) {
			logger.Error().Err(err).Msg("carrier unreachable")
			return "", &Error{Kind: KindTransport, Code: CodeTransport, Detail: err.Error(), Err: err}
		}
		return "", &Error{Kind: KindCarrier, Code: CodeCarrier, Detail: err.Error(), Err: err}
	}

	outcome, err := servientrega.Interpret(reply.Body)
	if err != nil {
		detail := err.Error()
		if !reply.OK() {
			detail = fmt.Sprintf("HTTP %d", reply.StatusCode)
		}
		logger.Error().Err(err).Int("status", reply.StatusCode).Msg("carrier reply unreadable")
		return "", &Error{Kind: KindCarrier, Code: CodeCarrier, Detail: detail, Err: err}
	}

	switch out := outcome.(type) {
	case servientrega.GuideCreated:
		if !reply.OK() {
			logger.Warn().Int("status", reply.StatusCode).Msg("guide returned with non-200 status")
		}
		return out.Number, nil
	case servientrega.GuideRejected:
		logger.Error().Str("message", out.Message()).Msg("carrier rejected guide")
		return "", &Error{Kind: KindCarrier, Code: CodeCarrier, Detail: out.Message()}
	}
	return "", &Error{Kind: KindCarrier, Code: CodeCarrier, Detail: servientrega.NoGuideNumber}
}

// persistenceFailed records a guide that exists at the carrier but not upstream.
// Nothing is retried; operators get a ledger entry and an alert.
func (o *Orchestrator) persistenceFailed(ctx context.Context, orderID int64, guide, url string, cause error) {
	logger := zerolog.Ctx(ctx)
	logger.Error().Err(cause).Int64("order_id", orderID).Str("guide", guide).
		Msg("guide created at carrier but not saved upstream; reconciliation required")
	o.recorder.Record(ctx, metrics.PersistenceFailure)

	if o.ledger != nil {
		if err := o.ledger.MarkPersistFailed(ctx, strconv.FormatInt(orderID, 10), cause.Error()); err != nil {
			logger.Warn().Err(err).Msg("ledger entry not marked failed")
		}
	}
	if o.alerter != nil {
		alert := ReconciliationAlert{
			Type:        AlertReconciliationRequired,
			OrderID:     orderID,
			Guide:       guide,
			TrackingURL: url,
			Reason:      cause.Error(),
			RequestID:   logging.RequestID(ctx),
			RaisedAt:    o.nowFunc().UTC(),
		}
		if err := publishAlert(ctx, o.alerter, alert); err != nil {
			logger.Error().Err(err).Msg("reconciliation alert not published")
		}
	}
}

func eventFor(res Result, err error) metrics.Event {
	var pe *Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case KindTransport:
			return metrics.TransportFailure
		case KindCarrier:
			return metrics.CarrierFailure
		}
		return metrics.Rejected
	}
	if err != nil {
		return metrics.Rejected
	}
	switch res.Outcome {
	case Existing:
		return metrics.GuideExisting
	case Created:
		return metrics.GuideCreated
	}
	return metrics.Skipped
}
