package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Event names a pipeline outcome worth counting.
type Event string

const (
	GuideCreated       Event = "guide_created"
	GuideExisting      Event = "guide_existing"
	Skipped            Event = "skipped"
	Rejected           Event = "rejected"
	CarrierFailure     Event = "carrier_failure"
	TransportFailure   Event = "transport_failure"
	LabelFailure       Event = "label_failure"
	PersistenceFailure Event = "persistence_failure"
)

// Events lists every event, in a stable order.
var Events = []Event{
	GuideCreated, GuideExisting, Skipped, Rejected,
	CarrierFailure, TransportFailure, LabelFailure, PersistenceFailure,
}

// Recorder counts pipeline events. Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Prometheus counts events in servientrega_pipeline_events_total{event}.
type Prometheus struct {
	events *prometheus.CounterVec
}

// NewPrometheus registers the counter with reg and pre-creates every series.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "servientrega",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Guide-generation pipeline outcomes by event.",
		}, []string{"event"}),
	}
	reg.MustRegister(p.events)
	for _, e := range Events {
		p.events.WithLabelValues(string(e))
	}
	return p
}

func (p *Prometheus) Record(_ context.Context, e Event) {
	p.events.WithLabelValues(string(e)).Inc()
}

// Counter is the single method of aws.CounterPublisher used here.
type Counter interface {
	Count(ctx context.Context, metric string, value float64, dimensions map[string]string) error
}

// CloudWatchMetric is the metric name events are published under.
const CloudWatchMetric = "PipelineEvents"

// CloudWatch forwards events to a Counter; failures are logged and dropped.
type CloudWatch struct {
	counter Counter
}

func NewCloudWatch(c Counter) *CloudWatch {
	return &CloudWatch{counter: c}
}

func (c *CloudWatch) Record(ctx context.Context, e Event) {
	if err := c.counter.Count(ctx, CloudWatchMetric, 1, map[string]string{"Event": string(e)}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", string(e)).Msg("cloudwatch metric dropped")
	}
}

// Multi fans an event out to several recorders.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Event) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
