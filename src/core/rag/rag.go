package rag

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported document format")
	ErrUpstreamUnavailable = errors.New("model provider unavailable")
	ErrRateLimited         = errors.New("model provider rate limited")
	ErrStoreUnavailable    = errors.New("vector store unavailable")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrGenerationFailed    = errors.New("answer generation failed")
	ErrInvalidRequest      = errors.New("invalid request")
)

// Chunk is a contiguous slice of a document's extracted text, the unit of
// retrieval. Offset is in runes, Index is the chunk ordinal.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Offset     int
	Content    string
}

// Record is what gets persisted in the vector store: one chunk, its
// embedding and enough payload to cite the source later.
type Record struct {
	ID      string
	Vector  []float32
	Payload RecordPayload
}

type RecordPayload struct {
	DocumentID string `json:"documentId"`
	Source     string `json:"source"`
	Content    string `json:"content"`
	Index      int    `json:"index"`
}

// Passage is a retrieved record payload with its similarity score. It lives
// only for the duration of one query.
type Passage struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	DocumentID string  `json:"documentId"`
	Index      int     `json:"index"`
	Score      float64 `json:"score"`
}

// Answer is the generated text plus the passages it was grounded on.
// Evaluation is present only when scoring was requested and succeeded.
type Answer struct {
	Text       string
	Sources    []Passage
	Evaluation *Scores
}

// Scores holds post-hoc evaluation metrics, each in [0,1]. Error carries the
// reason when scoring failed; the metric fields are nil in that case.
type Scores struct {
	Faithfulness    *float64 `json:"faithfulness"`
	AnswerRelevancy *float64 `json:"answer_relevancy"`
	EvaluationTime  float64  `json:"evaluation_time_ms"`
	Error           string   `json:"error,omitempty"`
}

// Receipt reports the outcome of one document ingestion.
type Receipt struct {
	DocumentID string
	Filename   string
	ChunkCount int
}

// CollectionInfo mirrors the store's view of the collection.
type CollectionInfo struct {
	Name          string
	DocumentCount int
	VectorCount   int
	Dimension     int
	Status        string
}

// Embedder converts texts into fixed-dimension vectors, one per input,
// order preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenStream is a finite, non-restartable sequence of answer fragments.
// Recv returns io.EOF when the provider signals completion. Close cancels
// the upstream call and must be safe to call at any point.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Generator is the external text-completion oracle.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	GenerateStream(ctx context.Context, system, prompt string) (TokenStream, error)
}

// Scorer is the external scoring oracle behind the evaluator.
type Scorer interface {
	Score(ctx context.Context, question, answer string, contexts []string) (Scores, error)
}

// VectorStore is the external similarity store.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) (int, error)
	Search(ctx context.Context, vector []float32, k int) ([]Passage, error)
	CollectionInfo(ctx context.Context) (CollectionInfo, error)
	Healthy(ctx context.Context) error
}

// Archive keeps raw uploaded bytes around so a failed ingestion can be
// replayed and orphaned records cleaned up by hand.
type Archive interface {
	Store(ctx context.Context, documentID, filename string, data []byte) error
}

// CollectionAdmin exposes destructive collection maintenance, kept separate
// from VectorStore so ordinary request paths cannot reach it.
type CollectionAdmin interface {
	DropCollection(ctx context.Context) error
}

// Service interfaces consumed by the HTTP layer. Implementations live in
// this package; the handler depends only on these.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]Passage, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, passages []Passage, includeSources bool) (Answer, error)
	AnswerStream(ctx context.Context, question string, passages []Passage) (TokenStream, error)
}

type Ingester interface {
	Ingest(ctx context.Context, filename string, data []byte) (Receipt, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string, passages []Passage) *Scores
}

type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) ReadinessStatus
}
