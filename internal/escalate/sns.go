package escalate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the slice of the SNS client the sink needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink publishes alerts to an operator topic.
type SNSSink struct {
	client   SNSAPI
	topicARN string
}

func NewSNSSink(client SNSAPI, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

func (s *SNSSink) Publish(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshalling alert: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(fmt.Sprintf("order workflow failure: %s", alert.FailedState)),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publishing alert to %s: %w", s.topicARN, err)
	}
	return nil
}

// LogSink writes alerts to the log only, for local runs without an
// operator topic.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Publish(ctx context.Context, alert Alert) error {
	s.Log.ErrorContext(ctx, "operator alert",
		"execution_id", alert.ExecutionID,
		"failed_state", alert.FailedState,
		"error_code", alert.ErrorCode,
		"error_message", alert.ErrorMessage,
		"order_id", alert.OrderID)
	return nil
}
