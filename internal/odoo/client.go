package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("odoo")

// Store is the narrow upstream contract the pipeline consumes.
type Store interface {
	Reader
	Write(ctx context.Context, model string, ids []int64, values map[string]interface{}) error
	Create(ctx context.Context, model string, values map[string]interface{}) (int64, error)
	PostNote(ctx context.Context, model string, id int64, body string) error
}

// Reader reads records by id with an explicit field list.
type Reader interface {
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
}

// RPCError is an error object returned inside a JSON-RPC reply.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("odoo rpc error %d: %s", e.Code, e.Message)
}

// Client talks to Odoo's /jsonrpc endpoint.
type Client struct {
	url      string
	db       string
	uid      int64
	password string
	http     *http.Client
	seq      atomic.Int64
}

// Credentials identify the integration user.
type Credentials struct {
	URL      string
	DB       string
	User     string
	Password string
	Timeout  time.Duration
}

// Dial logs in and returns a client bound to the resulting uid.
func Dial(ctx context.Context, creds Credentials) (*Client, error) {
	c := &Client{
		url:      strings.TrimRight(creds.URL, "/") + "/jsonrpc",
		db:       creds.DB,
		password: creds.Password,
		http:     &http.Client{Timeout: creds.Timeout},
	}

	var uid interface{}
	if err := c.call(ctx, "common", "login", []interface{}{creds.DB, creds.User, creds.Password}, &uid); err != nil {
		return nil, fmt.Errorf("odoo login: %w", err)
	}
	n, ok := uid.(float64)
	if !ok || n <= 0 {
		return nil, fmt.Errorf("odoo login: rejected credentials for %s", creds.User)
	}
	c.uid = int64(n)
	return c, nil
}

// Read implements Reader.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	var out []Record
	err := c.execute(ctx, model, "read", []interface{}{ids}, map[string]interface{}{"fields": fields}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write updates ids with values.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]interface{}) error {
	var ok bool
	if err := c.execute(ctx, model, "write", []interface{}{ids, values}, nil, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("odoo write %s %v: not acknowledged", model, ids)
	}
	return nil
}

// Create inserts a record and returns its id.
func (c *Client) Create(ctx context.Context, model string, values map[string]interface{}) (int64, error) {
	var id int64
	if err := c.execute(ctx, model, "create", []interface{}{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// PostNote appends a chatter message to a record.
func (c *Client) PostNote(ctx context.Context, model string, id int64, body string) error {
	var msgID interface{}
	return c.execute(ctx, model, "message_post", []interface{}{[]int64{id}}, map[string]interface{}{"body": body}, &msgID)
}

func (c *Client) execute(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}, out interface{}) error {
	ctx, span := tracer.Start(ctx, "odoo."+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("odoo.model", model))

	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	params := []interface{}{c.db, c.uid, c.password, model, method, args, kwargs}
	if err := c.call(ctx, "object", "execute_kw", params, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("odoo %s.%s: %w", model, method, err)
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string        `json:"service"`
	Method  string        `json:"method"`
	Args    []interface{} `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, service, method string, args []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.seq.Add(1),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if out == nil || len(rr.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
