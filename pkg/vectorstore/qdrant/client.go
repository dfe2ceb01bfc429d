package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"virtual-hr-be/pkg/vectorstore"

	"github.com/qdrant/go-client/qdrant"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant gRPC address (e.g., "http://localhost:6334").
	URL string

	CollectionName string

	// APIKey is optional API key for authentication.
	APIKey string
}

// Client implements vectorstore.VectorStore for Qdrant.
type Client struct {
	client         *qdrant.Client
	collectionName string

	ensureOnce sync.Once
	ensureErr  error
}

// New creates a new Qdrant client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.CollectionName == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "http://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port := 6334
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Client{
		client:         qdrantClient,
		collectionName: cfg.CollectionName,
	}, nil
}

// ensureCollection creates the collection on first write, sized from the first vector.
func (c *Client) ensureCollection(ctx context.Context, dim int) error {
	c.ensureOnce.Do(func() {
		exists, err := c.client.CollectionExists(ctx, c.collectionName)
		if err != nil {
			c.ensureErr = err
			return
		}
		if exists {
			return
		}
		c.ensureErr = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
	return c.ensureErr
}

// Upsert implements vectorstore.VectorStore. Point IDs are the chunk UUIDs, so rewriting
// a document replaces its points in place.
func (c *Client) Upsert(ctx context.Context, chunks []vectorstore.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(chunks[0].Vector)); err != nil {
		return fmt.Errorf("%w: ensure collection: %v", vectorstore.ErrUnavailable, err)
	}

	known, err := c.sequences(ctx, chunks)
	if err != nil {
		return fmt.Errorf("%w: qdrant lookup failed: %v", vectorstore.ErrUnavailable, err)
	}
	chunks = keepSequences(chunks, known)

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, ch := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(ch.ID),
			Vectors: qdrant.NewVectors(ch.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id":       ch.DocumentID,
				"source":            ch.Source,
				"chunk_index":       int64(ch.Index),
				"content":           ch.Text,
				"embedding_version": ch.EmbeddingVersion,
				"sequence":          ch.Sequence,
			}),
		})
	}

	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant upsert failed: %v", vectorstore.ErrUnavailable, err)
	}
	return nil
}

// sequences returns the stored sequence of every chunk that already has a point.
func (c *Client) sequences(ctx context.Context, chunks []vectorstore.Chunk) (map[string]int64, error) {
	ids := make([]*qdrant.PointId, 0, len(chunks))
	for _, ch := range chunks {
		ids = append(ids, qdrant.NewID(ch.ID))
	}

	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.collectionName,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayloadInclude("sequence"),
	})
	if err != nil {
		return nil, err
	}

	known := make(map[string]int64, len(points))
	for _, point := range points {
		if point.Id == nil {
			continue
		}
		if v, ok := point.Payload["sequence"]; ok {
			known[point.Id.GetUuid()] = v.GetIntegerValue()
		}
	}
	return known, nil
}

// keepSequences gives rewritten chunks the sequence of their first write.
func keepSequences(chunks []vectorstore.Chunk, known map[string]int64) []vectorstore.Chunk {
	out := make([]vectorstore.Chunk, len(chunks))
	for i, ch := range chunks {
		if seq, ok := known[ch.ID]; ok {
			ch.Sequence = seq
		}
		out[i] = ch
	}
	return out
}

// Search implements vectorstore.VectorStore.
func (c *Client) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Result, error) {
	if k <= 0 {
		return nil, nil
	}

	limit := uint64(k)
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant search failed: %v", vectorstore.ErrUnavailable, err)
	}

	results := make([]vectorstore.Result, 0, len(points))
	for _, point := range points {
		results = append(results, vectorstore.Result{
			Chunk: chunkFromPoint(point),
			Score: point.Score,
		})
	}
	vectorstore.SortResults(results)
	return results, nil
}

// Count implements vectorstore.VectorStore.
func (c *Client) Count(ctx context.Context) (int, error) {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}
	if !exists {
		return 0, nil
	}
	n, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.collectionName,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant count failed: %v", vectorstore.ErrUnavailable, err)
	}
	return int(n), nil
}

// PruneDocument implements vectorstore.VectorStore.
func (c *Client) PruneDocument(ctx context.Context, documentID string, keep int) (int, error) {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}
	if !exists {
		return 0, nil
	}

	filter := staleFilter(documentID, keep)
	n, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.collectionName,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant count failed: %v", vectorstore.ErrUnavailable, err)
	}
	if n == 0 {
		return 0, nil
	}

	_, err = c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant delete failed: %v", vectorstore.ErrUnavailable, err)
	}
	return int(n), nil
}

func staleFilter(documentID string, keep int) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("document_id", documentID),
			qdrant.NewRange("chunk_index", &qdrant.Range{Gte: qdrant.PtrOf(float64(keep))}),
		},
	}
}

// Close implements vectorstore.VectorStore.
func (c *Client) Close() error {
	return c.client.Close()
}

func chunkFromPoint(point *qdrant.ScoredPoint) vectorstore.Chunk {
	var ch vectorstore.Chunk
	if point.Id != nil {
		ch.ID = point.Id.GetUuid()
	}
	for k, v := range point.Payload {
		switch k {
		case "document_id":
			ch.DocumentID = v.GetStringValue()
		case "source":
			ch.Source = v.GetStringValue()
		case "chunk_index":
			ch.Index = int(v.GetIntegerValue())
		case "content":
			ch.Text = v.GetStringValue()
		case "embedding_version":
			ch.EmbeddingVersion = v.GetStringValue()
		case "sequence":
			ch.Sequence = v.GetIntegerValue()
		}
	}
	return ch
}

// Compile-time check that Client implements VectorStore.
var _ vectorstore.VectorStore = (*Client)(nil)
