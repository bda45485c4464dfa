package qdrant

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"docpilot/src/core/rag"
	"docpilot/src/log"
)

// distinctScanBudget caps how many points the document counter will scroll
// through. Collections past the cap report the capped count and log it.
const distinctScanBudget = 100_000

// DefaultTimeout bounds each store call when no ceiling is configured. A
// stalled store must fail the request, not hold it open.
const DefaultTimeout = 60 * time.Second

// SDK encapsulates all Qdrant operations against one collection.
type SDK struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	qdrant      pb.QdrantClient
	collection  string
	dimension   int
	timeout     time.Duration
}

// Config carries the connection parameters, injected at construction.
type Config struct {
	Host       string
	Port       int
	APIKey     string // optional, sent as api-key metadata when set
	Collection string
	Dimension  int
	Timeout    time.Duration // per-call ceiling, DefaultTimeout when unset
}

// NewSDK dials the store. The connection is lazy; readiness is checked via
// Healthy, not here.
func NewSDK(cfg Config) (*SDK, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SDK{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		qdrant:      pb.NewQdrantClient(conn),
		collection:  cfg.Collection,
		dimension:   cfg.Dimension,
		timeout:     cfg.Timeout,
	}, nil
}

// opCtx derives the bounded context every store call runs under. The caller
// context still cancels early; the ceiling only caps how long a stalled
// store can hold a request.
func (s *SDK) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (s *SDK) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet.
func (s *SDK) EnsureCollection(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: listing collections: %v", rag.ErrStoreUnavailable, err)
	}
	for _, c := range list.Collections {
		if c.Name == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", rag.ErrStoreUnavailable, s.collection, err)
	}
	log.Info("created collection", "name", s.collection, "dimension", s.dimension)
	return nil
}

// DropCollection deletes and recreates the collection empty.
func (s *SDK) DropCollection(ctx context.Context) error {
	delCtx, cancel := s.opCtx(ctx)
	_, err := s.collections.Delete(delCtx, &pb.DeleteCollection{CollectionName: s.collection})
	cancel()
	if err != nil {
		return fmt.Errorf("%w: deleting collection %s: %v", rag.ErrStoreUnavailable, s.collection, err)
	}
	return s.EnsureCollection(ctx)
}

// Upsert writes records to the store, waiting for the operation to be
// applied. Re-upserting an id replaces its vector and payload. Vector
// lengths are validated locally before anything is sent.
func (s *SDK) Upsert(ctx context.Context, records []rag.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		if len(r.Vector) != s.dimension {
			return 0, fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				rag.ErrDimensionMismatch, r.ID, len(r.Vector), s.dimension)
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Vector}}},
			Payload: encodePayload(r.Payload),
		}
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: upsert: %v", rag.ErrStoreUnavailable, err)
	}
	return len(points), nil
}

// Search returns up to k passages ordered by descending similarity.
func (s *SDK) Search(ctx context.Context, vector []float32, k int) ([]rag.Passage, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection has %d",
			rag.ErrDimensionMismatch, len(vector), s.dimension)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", rag.ErrStoreUnavailable, err)
	}

	passages := make([]rag.Passage, 0, len(resp.Result))
	for _, pt := range resp.Result {
		p := decodePayload(pt.Payload)
		p.Score = float64(pt.Score)
		passages = append(passages, p)
	}
	return passages, nil
}

// CollectionInfo reports vector count, dimension and the number of distinct
// source documents. Distinct documents are counted by scrolling payloads up
// to a fixed budget; beyond it the count is a lower bound.
func (s *SDK) CollectionInfo(ctx context.Context) (rag.CollectionInfo, error) {
	// One ceiling covers the info call and the whole distinct-document scan.
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	resp, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
	if err != nil {
		return rag.CollectionInfo{}, fmt.Errorf("%w: collection info: %v", rag.ErrStoreUnavailable, err)
	}

	info := rag.CollectionInfo{
		Name:      s.collection,
		Dimension: s.dimension,
		Status:    resp.Result.Status.String(),
	}
	if resp.Result.PointsCount != nil {
		info.VectorCount = int(*resp.Result.PointsCount)
	}

	docs, err := s.countDistinctDocuments(ctx)
	if err != nil {
		return rag.CollectionInfo{}, err
	}
	info.DocumentCount = docs
	return info, nil
}

func (s *SDK) countDistinctDocuments(ctx context.Context) (int, error) {
	seen := make(map[string]struct{})
	scanned := 0
	limit := uint32(1000)
	var offset *pb.PointId

	for scanned < distinctScanBudget {
		resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload: &pb.WithPayloadSelector{
				SelectorOptions: &pb.WithPayloadSelector_Include{
					Include: &pb.PayloadIncludeSelector{Fields: []string{"documentId"}},
				},
			},
		})
		if err != nil {
			return 0, fmt.Errorf("%w: scroll: %v", rag.ErrStoreUnavailable, err)
		}
		for _, pt := range resp.Result {
			if v, ok := pt.Payload["documentId"]; ok {
				seen[v.GetStringValue()] = struct{}{}
			}
		}
		scanned += len(resp.Result)
		if resp.NextPageOffset == nil || len(resp.Result) == 0 {
			return len(seen), nil
		}
		offset = resp.NextPageOffset
	}

	log.Info("distinct document scan hit budget, count is a lower bound",
		"budget", distinctScanBudget, "documents", len(seen))
	return len(seen), nil
}

// Healthy checks the store's health endpoint.
func (s *SDK) Healthy(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.qdrant.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	return nil
}

func encodePayload(p rag.RecordPayload) map[string]*pb.Value {
	return map[string]*pb.Value{
		"documentId": {Kind: &pb.Value_StringValue{StringValue: p.DocumentID}},
		"source":     {Kind: &pb.Value_StringValue{StringValue: p.Source}},
		"content":    {Kind: &pb.Value_StringValue{StringValue: p.Content}},
		"index":      {Kind: &pb.Value_IntegerValue{IntegerValue: int64(p.Index)}},
	}
}

func decodePayload(payload map[string]*pb.Value) rag.Passage {
	p := rag.Passage{}
	if v, ok := payload["documentId"]; ok {
		p.DocumentID = v.GetStringValue()
	}
	if v, ok := payload["source"]; ok {
		p.Source = v.GetStringValue()
	}
	if v, ok := payload["content"]; ok {
		p.Content = v.GetStringValue()
	}
	if v, ok := payload["index"]; ok {
		p.Index = int(v.GetIntegerValue())
	}
	return p
}

var _ rag.VectorStore = (*SDK)(nil)
