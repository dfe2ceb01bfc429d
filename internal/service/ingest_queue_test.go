package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"virtual-hr-be/internal/dto"
	"virtual-hr-be/internal/pkg/logger"
	"virtual-hr-be/pkg/ingest"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "INGEST_POLICY_DOCUMENT"

type scriptedIngester struct {
	mu       sync.Mutex
	errs     []error
	calls    []ingest.Document
	finished chan struct{}
}

func newScriptedIngester(errs ...error) *scriptedIngester {
	return &scriptedIngester{errs: errs, finished: make(chan struct{}, 10)}
}

func (s *scriptedIngester) Ingest(ctx context.Context, doc ingest.Document) (ingest.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.finished <- struct{}{} }()

	s.calls = append(s.calls, doc)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return ingest.Report{}, err
		}
	}
	return ingest.Report{DocumentID: doc.ID, Chunks: 1, Written: 1}, nil
}

func (s *scriptedIngester) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scriptedIngester) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.finished:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for ingest call %d", i+1)
		}
	}
}

func newQueue(t *testing.T, pipeline DocumentIngester) IPublisherService {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	consumer := NewConsumerService(pubSub, testTopic, pipeline, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))
	return NewPublisherService(testTopic, pubSub)
}

func TestIngestQueue_DeliversDocument(t *testing.T) {
	ingester := newScriptedIngester()
	publisher := newQueue(t, ingester)

	require.NoError(t, publisher.SendIngestDocument(context.Background(), dto.PublishIngestDocumentMessage{
		DocumentId: "remote-work",
		Source:     "remote-work.md",
		Content:    "Employees may work remotely two days a week.",
	}))

	ingester.waitFor(t, 1)
	require.Equal(t, 1, ingester.callCount())
	assert.Equal(t, "remote-work", ingester.calls[0].ID)
	assert.Equal(t, "remote-work.md", ingester.calls[0].Source)
}

func TestIngestQueue_RetriesTransientFailure(t *testing.T) {
	ingester := newScriptedIngester(errors.New("embedder down"), nil)
	publisher := newQueue(t, ingester)

	require.NoError(t, publisher.SendIngestDocument(context.Background(), dto.PublishIngestDocumentMessage{
		DocumentId: "leave-policy",
		Content:    "Annual leave is twenty days.",
	}))

	ingester.waitFor(t, 2)
	assert.Equal(t, 2, ingester.callCount())
}

func TestIngestQueue_DropsInvalidDocument(t *testing.T) {
	ingester := newScriptedIngester(fmt.Errorf("%w: document id is required", ingest.ErrInvalidDocument))
	publisher := newQueue(t, ingester)

	require.NoError(t, publisher.SendIngestDocument(context.Background(), dto.PublishIngestDocumentMessage{Content: "orphan"}))

	ingester.waitFor(t, 1)
	// an acked message is not redelivered
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, ingester.callCount())
}
