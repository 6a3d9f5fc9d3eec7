package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestRecordCreated_Get_MarkPersisted(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "guides", 0)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return fixed }

	ctx := context.Background()
	if err := s.RecordCreated(ctx, "42", "987", "https://www.servientrega.com/rastreo/987"); err != nil {
		t.Fatalf("RecordCreated error: %v", err)
	}

	rec, err := s.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.Status != StatusCreated || rec.Guide != "987" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.RecordID == "" {
		t.Fatalf("record id not set")
	}
	if want := fixed.Add(DefaultTTL).Unix(); rec.ExpiresAt != want {
		t.Fatalf("expires_at = %d, want %d", rec.ExpiresAt, want)
	}

	if err := s.MarkPersisted(ctx, "42"); err != nil {
		t.Fatalf("MarkPersisted error: %v", err)
	}
	if st, ok := mock.table["42"]["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusPersisted {
		t.Fatalf("status not updated to PERSISTED, got %+v", mock.table["42"]["status"])
	}

	// PERSISTED is terminal for the happy path
	if err := s.MarkPersistFailed(ctx, "42", "late"); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
}

func TestMarkPersistFailed_ThenReconciled(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "guides", 48*time.Hour)
	ctx := context.Background()

	if err := s.RecordCreated(ctx, "7", "555", "u"); err != nil {
		t.Fatalf("RecordCreated error: %v", err)
	}

	// only PERSIST_FAILED can be reconciled
	if err := s.MarkReconciled(ctx, "7"); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}

	if err := s.MarkPersistFailed(ctx, "7", "write rejected"); err != nil {
		t.Fatalf("MarkPersistFailed error: %v", err)
	}
	if n, ok := mock.table["7"]["note"].(*types.AttributeValueMemberS); !ok || n.Value != "write rejected" {
		t.Fatalf("note not set, got %+v", mock.table["7"]["note"])
	}

	if err := s.MarkReconciled(ctx, "7"); err != nil {
		t.Fatalf("MarkReconciled error: %v", err)
	}
	rec, err := s.Get(ctx, "7")
	if err != nil || rec == nil {
		t.Fatalf("Get: %v %v", rec, err)
	}
	if rec.Status != StatusReconciled {
		t.Fatalf("expected RECONCILED, got %s", rec.Status)
	}
}

func TestGet_Missing(t *testing.T) {
	s := NewStore(newSimpleMock(), "guides", 0)
	rec, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil, got %+v", rec)
	}
}

func TestTransition_MissingRecord(t *testing.T) {
	s := NewStore(newSimpleMock(), "guides", 0)
	if err := s.MarkPersisted(context.Background(), "nope"); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
}

func TestRecordCreated_ClientError(t *testing.T) {
	mock := newSimpleMock()
	mock.failWith = errors.New("throttled")
	s := NewStore(mock, "guides", 0)

	err := s.RecordCreated(context.Background(), "1", "2", "3")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("client errors must not look like a status mismatch")
	}
}

func TestAttributevalueMarshal_Unmarshal(t *testing.T) {
	rec := GuideRecord{
		OrderID:   "k1",
		Status:    StatusCreated,
		Guide:     "g1",
		CreatedAt: time.Now().Round(time.Second),
		UpdatedAt: time.Now().Round(time.Second),
		ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
	}
	m, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, ok := m["note"]; ok {
		t.Fatalf("empty note should be omitted")
	}
	var out GuideRecord
	if err := attributevalue.UnmarshalMap(m, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.OrderID != rec.OrderID || out.Guide != rec.Guide {
		t.Fatalf("unmarshal mismatch")
	}
}
