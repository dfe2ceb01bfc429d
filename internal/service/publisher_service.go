package service

import (
	"context"
	"encoding/json"
	"fmt"

	"virtual-hr-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	SendIngestDocument(ctx context.Context, msg dto.PublishIngestDocumentMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) SendIngestDocument(ctx context.Context, msg dto.PublishIngestDocumentMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ingest message: %w", err)
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)
	if err := ps.publisher.Publish(ps.topicName, m); err != nil {
		return fmt.Errorf("publish ingest message: %w", err)
	}
	return nil
}
