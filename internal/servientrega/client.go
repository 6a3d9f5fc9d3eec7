package servientrega

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
)

var tracer = otel.Tracer("servientrega")

// Reply is the raw HTTP answer of the carrier.
type Reply struct {
	StatusCode int
	Body       string
}

// OK reports an HTTP 200.
func (r Reply) OK() bool {
	return r.StatusCode == http.StatusOK
}

// TransportError means the carrier could not be reached or did not answer in time.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("servientrega %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client posts SOAP envelopes to a single carrier endpoint.
type Client struct {
	endpoint string
	creds    Credentials
	http     *http.Client
}

// NewClient returns a client whose every call is bounded by timeout.
func NewClient(endpoint string, creds Credentials, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		creds:    creds,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
			},
		},
	}
}

// SubmitGuide sends a CargueMasivoExterno request. Any HTTP answer is a Reply;
// only network failures return a *TransportError.
func (c *Client) SubmitGuide(ctx context.Context, p shipping.ShipmentPayload) (Reply, error) {
	zerolog.Ctx(ctx).Info().Str("reference", p.Reference).Str("endpoint", c.endpoint).Msg("submitting guide")
	return c.post(ctx, "CargueMasivoExterno", guideEnvelope(c.creds, p))
}

// FetchLabel requests the printable sticker of an accepted guide. It never
// fails the caller: every problem is reported as LabelUnavailable.
func (c *Client) FetchLabel(ctx context.Context, guide string) LabelResult {
	logger := zerolog.Ctx(ctx)

	reply, err := c.post(ctx, "GenerarGuiaSticker", labelEnvelope(c.creds, guide))
	if err != nil {
		logger.Error().Err(err).Str("guide", guide).Msg("label request failed")
		return LabelUnavailable{Reason: err.Error()}
	}
	if !reply.OK() {
		logger.Error().Int("status", reply.StatusCode).Str("guide", guide).Msg("label request rejected")
		return LabelUnavailable{Reason: fmt.Sprintf("HTTP %d", reply.StatusCode)}
	}
	return ExtractLabel(reply.Body)
}

// ExtractLabel pulls the base64 sticker out of a GenerarGuiaSticker reply.
func ExtractLabel(raw string) LabelResult {
	root, err := parseTree(raw)
	if err != nil {
		return LabelUnavailable{Reason: err.Error()}
	}
	encoded := root.firstText(labelDocumentNames)
	if encoded == "" {
		return LabelUnavailable{Reason: "bytesReport not found in reply"}
	}
	doc, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return LabelUnavailable{Reason: "bytesReport is not valid base64: " + err.Error()}
	}
	return LabelFetched{Encoded: encoded, Document: doc}
}

func (c *Client) post(ctx context.Context, op string, env envelope) (Reply, error) {
	ctx, span := tracer.Start(ctx, "servientrega."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	payload, err := xml.MarshalIndent(env, "", "  ")
	if err != nil {
		return Reply{}, errors.Wrap(err, "marshal envelope")
	}

	if e := logger.Debug(); e.Enabled() {
		redacted := env
		redacted.Auth.Login, redacted.Auth.Password = "***", "***"
		if dump, err := xml.MarshalIndent(redacted, "", "  "); err == nil {
			e.Str("op", op).Str("body", string(dump)).Msg("soap request")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	span.SetAttributes(
		attribute.String("http.url", c.endpoint),
		attribute.String("soap.operation", op),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Reply{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Reply{}, &TransportError{Op: op, Err: errors.Wrap(err, "read body")}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.Info().Str("op", op).Int("status", resp.StatusCode).Msg("soap reply")
	logger.Debug().Str("op", op).Str("body", string(raw)).Msg("soap reply body")

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
	}
	return Reply{StatusCode: resp.StatusCode, Body: string(raw)}, nil
}
