package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"docpilot/src/log"
)

// IngestService runs the upload pipeline: archive -> extract -> chunk ->
// embed -> upsert. Each step is a hard sequence point; the first failure
// aborts the rest and is returned as-is.
type IngestService struct {
	chunker  Chunker
	embedder Embedder
	store    VectorStore
	archive  Archive // optional, best effort
}

func NewIngestService(chunker Chunker, embedder Embedder, store VectorStore, archive Archive) *IngestService {
	return &IngestService{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		archive:  archive,
	}
}

// Ingest processes one uploaded document. Records already upserted when a
// later batch fails are left behind as orphans; the log line below carries
// the document id and point ids needed to clean them up by hand.
func (s *IngestService) Ingest(ctx context.Context, filename string, data []byte) (Receipt, error) {
	documentID := uuid.New().String()

	if s.archive != nil {
		if err := s.archive.Store(ctx, documentID, filename, data); err != nil {
			// Archival is replay insurance, not part of the ingestion
			// contract. Keep going.
			log.Error(err, "failed to archive raw document", "documentId", documentID, "filename", filename)
		}
	}

	text, err := ExtractText(ctx, filename, data)
	if err != nil {
		return Receipt{}, err
	}
	if text == "" {
		return Receipt{}, fmt.Errorf("%w: %s contains no extractable text", ErrUnsupportedFormat, filename)
	}

	chunks := s.chunker.Split(documentID, text)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return Receipt{}, fmt.Errorf("embedding %d chunks of %s: %w", len(chunks), filename, err)
	}
	if len(vectors) != len(chunks) {
		return Receipt{}, fmt.Errorf("%w: got %d vectors for %d chunks", ErrUpstreamUnavailable, len(vectors), len(chunks))
	}

	records := make([]Record, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		id := uuid.New().String()
		ids[i] = id
		records[i] = Record{
			ID:     id,
			Vector: vectors[i],
			Payload: RecordPayload{
				DocumentID: documentID,
				Source:     filename,
				Content:    c.Content,
				Index:      c.Index,
			},
		}
	}

	if _, err := s.store.Upsert(ctx, records); err != nil {
		log.Error(err, "upsert failed, records may be orphaned",
			"documentId", documentID, "filename", filename, "pointIds", ids)
		return Receipt{}, fmt.Errorf("upserting %s: %w", filename, err)
	}

	log.Info("document ingested", "documentId", documentID, "filename", filename, "chunks", len(chunks))

	return Receipt{
		DocumentID: documentID,
		Filename:   filename,
		ChunkCount: len(chunks),
	}, nil
}
