package service

import (
	"context"
	"encoding/json"
	"errors"

	"virtual-hr-be/internal/dto"
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/ingest"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "ConsumerService"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// DocumentIngester is the ingestion pipeline as seen by the consumer.
type DocumentIngester interface {
	Ingest(ctx context.Context, doc ingest.Document) (ingest.Report, error)
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	pipeline   DocumentIngester
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	pipeline DocumentIngester,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		pipeline:   pipeline,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal ingest message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		msg.Ack() // a malformed payload will never succeed
		return
	}

	report, err := cs.pipeline.Ingest(ctx, ingest.Document{
		ID:      payload.DocumentId,
		Source:  payload.Source,
		Content: payload.Content,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidDocument) {
			cs.logger.Error(consumerModule, "Rejected ingest document", map[string]interface{}{
				"document_id": payload.DocumentId,
				"error":       err,
			})
			msg.Ack()
			return
		}
		cs.logger.Warn(consumerModule, "Ingest failed, will retry", map[string]interface{}{
			"document_id": payload.DocumentId,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info(consumerModule, "Document ingested", map[string]interface{}{
		"document_id": report.DocumentID,
		"chunks":      report.Chunks,
		"written":     report.Written,
		"skipped":     len(report.Skipped),
	})
	msg.Ack()
}
