package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CounterPublisher writes single-count datapoints to one CloudWatch namespace.
type CounterPublisher struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewCounterPublisher returns a CounterPublisher for namespace.
func NewCounterPublisher(cw CloudWatchAPI, namespace string) *CounterPublisher {
	return &CounterPublisher{CloudWatch: cw, Namespace: namespace, nowFunc: time.Now}
}

// Count records value occurrences of metric, tagged with the given dimensions.
func (p *CounterPublisher) Count(ctx context.Context, metric string, value float64, dimensions map[string]string) error {
	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(metric),
		Unit:       cwtypes.StandardUnitCount,
		Value:      sdkaws.Float64(value),
		Timestamp:  sdkaws.Time(p.nowFunc()),
	}
	for k, v := range dimensions {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  sdkaws.String(k),
			Value: sdkaws.String(v),
		})
	}

	_, err := p.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(p.Namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
