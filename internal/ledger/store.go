package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-servientrega-webhook/internal/aws"
)

// ErrStatusMismatch is returned when a transition's expected status does not hold.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// Store records the life of every guide the carrier accepted.
// It never drives retries; it only gives operators something to reconcile against.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. A non-positive ttlWindow uses DefaultTTL.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTL
	}
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// RecordCreated stores a CREATED entry for a freshly accepted guide. A later
// guide for the same order (non-production resubmission) replaces the entry.
func (s *Store) RecordCreated(ctx context.Context, orderID, guide, trackingURL string) error {
	now := s.nowFunc()
	rec := GuideRecord{
		OrderID:     orderID,
		RecordID:    uuid.NewString(),
		Status:      StatusCreated,
		Guide:       guide,
		TrackingURL: trackingURL,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get retrieves the record of an order. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, orderID string) (*GuideRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec GuideRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkPersisted moves CREATED -> PERSISTED once the upstream write succeeded.
func (s *Store) MarkPersisted(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, StatusCreated, StatusPersisted, "")
}

// MarkPersistFailed moves CREATED -> PERSIST_FAILED and keeps the failure note.
func (s *Store) MarkPersistFailed(ctx context.Context, orderID, note string) error {
	return s.transition(ctx, orderID, StatusCreated, StatusPersistFailed, note)
}

// MarkReconciled moves PERSIST_FAILED -> RECONCILED after the upstream record
// was found carrying the guide.
func (s *Store) MarkReconciled(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, StatusPersistFailed, StatusReconciled, "")
}

func (s *Store) transition(ctx context.Context, orderID, expected, next, note string) error {
	now := s.nowFunc()
	updateExpr := "SET #s = :new, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: next},
		":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":expected": &types.AttributeValueMemberS{Value: expected},
	}
	if note != "" {
		updateExpr += ", note = :n"
		values[":n"] = &types.AttributeValueMemberS{Value: note}
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("#s = :expected"),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item (%s -> %s): %w", expected, next, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
