package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/imrishuroy/go-servientrega-webhook/internal/metrics"
	"github.com/imrishuroy/go-servientrega-webhook/internal/odoo"
	"github.com/imrishuroy/go-servientrega-webhook/internal/servientrega"
	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
)

type writeCall struct {
	Model  string
	IDs    []int64
	Values map[string]interface{}
}

type createCall struct {
	Model  string
	Values map[string]interface{}
}

type noteCall struct {
	Model string
	ID    int64
	Body  string
}

// fakeStore is an in-memory upstream keyed by model then id.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]map[int64]odoo.Record
	readErr  map[string]error
	writeErr error

	reads   []string
	writes  []writeCall
	creates []createCall
	notes   []noteCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: map[string]map[int64]odoo.Record{},
		readErr: map[string]error{},
	}
}

func (f *fakeStore) put(model string, id int64, rec odoo.Record) {
	if f.records[model] == nil {
		f.records[model] = map[int64]odoo.Record{}
	}
	f.records[model][id] = rec
}

func (f *fakeStore) Read(_ context.Context, model string, ids []int64, _ []string) ([]odoo.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, model)
	if err := f.readErr[model]; err != nil {
		return nil, err
	}
	var out []odoo.Record
	for _, id := range ids {
		if rec, ok := f.records[model][id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) Write(_ context.Context, model string, ids []int64, values map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writeCall{Model: model, IDs: ids, Values: values})
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, id := range ids {
		if rec, ok := f.records[model][id]; ok {
			for k, v := range values {
				rec[k] = v
			}
		}
	}
	return nil
}

func (f *fakeStore) Create(_ context.Context, model string, values map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{Model: model, Values: values})
	return int64(len(f.creates)), nil
}

func (f *fakeStore) PostNote(_ context.Context, model string, id int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, noteCall{Model: model, ID: id, Body: body})
	return nil
}

// fakeCarrier returns a canned reply and label.
type fakeCarrier struct {
	reply   servientrega.Reply
	err     error
	label   servientrega.LabelResult
	submits []shipping.ShipmentPayload
	labels  []string
}

func (f *fakeCarrier) SubmitGuide(_ context.Context, p shipping.ShipmentPayload) (servientrega.Reply, error) {
	f.submits = append(f.submits, p)
	return f.reply, f.err
}

func (f *fakeCarrier) FetchLabel(_ context.Context, guide string) servientrega.LabelResult {
	f.labels = append(f.labels, guide)
	if f.label == nil {
		return servientrega.LabelUnavailable{Reason: "not configured"}
	}
	return f.label
}

type fakeLedger struct {
	calls []string
	err   error
}

func (f *fakeLedger) RecordCreated(_ context.Context, orderID, guide, _ string) error {
	f.calls = append(f.calls, "created:"+orderID+":"+guide)
	return f.err
}

func (f *fakeLedger) MarkPersisted(_ context.Context, orderID string) error {
	f.calls = append(f.calls, "persisted:"+orderID)
	return f.err
}

func (f *fakeLedger) MarkPersistFailed(_ context.Context, orderID, _ string) error {
	f.calls = append(f.calls, "persist_failed:"+orderID)
	return f.err
}

type published struct {
	body  string
	attrs map[string]string
}

type fakeAlerter struct {
	sent []published
}

func (f *fakeAlerter) Publish(_ context.Context, body string, attrs map[string]string) error {
	f.sent = append(f.sent, published{body: body, attrs: attrs})
	return nil
}

type eventSpy struct{ events []metrics.Event }

func (s *eventSpy) Record(_ context.Context, e metrics.Event) { s.events = append(s.events, e) }

var errBoom = errors.New("boom")

func guideReply(n string) servientrega.Reply {
	return servientrega.Reply{StatusCode: 200, Body: `<r xmlns="http://tempuri.org/"><Num_Guia>` + n + `</Num_Guia></r>`}
}

// doneOrder is an order ready for a Servientrega guide.
func doneOrder() odoo.Record {
	return odoo.Record{
		"id":                   float64(42),
		"name":                 "WH/OUT/00042",
		"state":                "done",
		"carrier_tracking_ref": false,
		"move_line_ids":        []interface{}{float64(501)},
		"move_ids":             []interface{}{float64(701)},
		"partner_id":           []interface{}{float64(9), "Ana Pérez"},
		"shipping_weight":      float64(0),
		"weight":               false,
		"carrier_id":           []interface{}{float64(3), "SERVIENTREGA NACIONAL"},
	}
}

func seededStore() *fakeStore {
	s := newFakeStore()
	s.put(shipping.ModelOrder, 42, doneOrder())
	s.put(shipping.ModelPartner, 9, odoo.Record{
		"name":   "Ana Pérez",
		"street": "Calle 1 # 2-3",
		"city":   "MEDELLIN",
		"phone":  false,
		"mobile": "3001234567",
		"vat":    false,
	})
	s.put(shipping.ModelMove, 701, odoo.Record{
		"product_id":      []interface{}{float64(11), "[SKU-1] Reloj Inteligente Negro"},
		"product_uom_qty": float64(2),
		"price_unit":      float64(3000),
	})
	return s
}
