package aws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_OVERRIDE", "")
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != DefaultRegion {
		t.Fatalf("expected default region %q, got %s", DefaultRegion, cfg.Region)
	}
}

func TestLoadAWSConfig_ExplicitRegionWins(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadAWSConfig(context.Background(), "sa-east-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "sa-east-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
}

func TestLoadAWSConfig_WithEndpointOverride(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ENDPOINT_OVERRIDE", "http://localhost:4566")

	cfg, err := LoadAWSConfig(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "us-east-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
	if cfg.BaseEndpoint == nil || *cfg.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("endpoint override not applied: %v", cfg.BaseEndpoint)
	}
}

type mockSQS struct {
	mu    sync.Mutex
	calls []*sqs.SendMessageInput
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestPublisher_Publish(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/alerts")

	err := p.Publish(context.Background(), `{"type":"reconciliation_required"}`, map[string]string{
		"type":     "reconciliation_required",
		"order_id": "42",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	in := mock.calls[0]
	if *in.QueueUrl != "https://sqs.local/alerts" {
		t.Fatalf("queue url mismatch: %s", *in.QueueUrl)
	}
	if got := *in.MessageAttributes["order_id"].StringValue; got != "42" {
		t.Fatalf("order_id attribute mismatch: %s", got)
	}
	if got := *in.MessageAttributes["type"].StringValue; got != "reconciliation_required" {
		t.Fatalf("type attribute mismatch: %s", got)
	}
}

type mockCloudWatch struct {
	calls []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.calls = append(m.calls, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCounterPublisher_Count(t *testing.T) {
	mock := &mockCloudWatch{}
	p := NewCounterPublisher(mock, "Servientrega/Webhook")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.nowFunc = func() time.Time { return fixed }

	if err := p.Count(context.Background(), "PipelineEvents", 1, map[string]string{"Event": "guide_created"}); err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	in := mock.calls[0]
	if *in.Namespace != "Servientrega/Webhook" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	d := in.MetricData[0]
	if *d.MetricName != "PipelineEvents" || *d.Value != 1 || !d.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected datum: %+v", d)
	}
	if len(d.Dimensions) != 1 || *d.Dimensions[0].Name != "Event" || *d.Dimensions[0].Value != "guide_created" {
		t.Fatalf("unexpected dimensions: %+v", d.Dimensions)
	}
}
