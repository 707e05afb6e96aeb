package services

import (
	"context"
	"encoding/json"
	"fmt"

	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
)

// ServiceName tags logs and metrics emitted by this service.
const ServiceName = "forecast-service"

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishForecastEvent(ctx context.Context, event models.ForecastEvent) error
}

// SNSEventPublisher publishes forecast events to one SNS topic.
type SNSEventPublisher struct {
	sns      awspkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(sns awspkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{sns: sns, topicArn: topicArn}
}

func (p *SNSEventPublisher) PublishForecastEvent(ctx context.Context, event models.ForecastEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}
	if err := p.sns.Publish(ctx, p.topicArn, event.EventType, b); err != nil {
		return fmt.Errorf("publish %s event: %w", event.EventType, err)
	}
	return nil
}
