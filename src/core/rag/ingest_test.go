package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docpilot/src/core/rag"
)

func TestIngestSuccess(t *testing.T) {
	embedder := &fakeEmbedder{dim: 4}
	store := newFakeStore()
	archive := newFakeArchive()
	svc := rag.NewIngestService(rag.NewChunker(10, 3), embedder, store, archive)

	text := "abcdefghijklmnopqrstuvwxy" // 25 runes -> 4 chunks at size 10, overlap 3
	receipt, err := svc.Ingest(context.Background(), "notes.txt", []byte(text))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if receipt.ChunkCount != 4 {
		t.Errorf("ChunkCount = %d, want 4", receipt.ChunkCount)
	}
	if receipt.DocumentID == "" {
		t.Error("DocumentID is empty")
	}
	if receipt.Filename != "notes.txt" {
		t.Errorf("Filename = %q, want notes.txt", receipt.Filename)
	}
	if len(store.records) != 4 {
		t.Fatalf("store holds %d records, want 4", len(store.records))
	}
	for id, rec := range store.records {
		if rec.Payload.DocumentID != receipt.DocumentID {
			t.Errorf("record %s has documentId %q, want %q", id, rec.Payload.DocumentID, receipt.DocumentID)
		}
		if rec.Payload.Source != "notes.txt" {
			t.Errorf("record %s has source %q, want notes.txt", id, rec.Payload.Source)
		}
		if rec.Payload.Content == "" {
			t.Errorf("record %s has empty content", id)
		}
		if len(rec.Vector) != 4 {
			t.Errorf("record %s has %d dimensions, want 4", id, len(rec.Vector))
		}
	}
	if len(archive.stored) != 1 {
		t.Errorf("archive holds %d documents, want 1", len(archive.stored))
	}
	if len(embedder.calls) != 1 {
		t.Errorf("embedder called %d times, want 1 batched call", len(embedder.calls))
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	svc := rag.NewIngestService(rag.NewChunker(10, 3), &fakeEmbedder{dim: 4}, newFakeStore(), nil)

	_, err := svc.Ingest(context.Background(), "data.xlsx", []byte("whatever"))
	if !errors.Is(err, rag.ErrUnsupportedFormat) {
		t.Errorf("Ingest() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIngestEmbedFailureAbortsUpsert(t *testing.T) {
	embedder := &fakeEmbedder{err: rag.ErrRateLimited}
	store := newFakeStore()
	svc := rag.NewIngestService(rag.NewChunker(10, 3), embedder, store, nil)

	_, err := svc.Ingest(context.Background(), "notes.txt", []byte("some document text"))
	if !errors.Is(err, rag.ErrRateLimited) {
		t.Fatalf("Ingest() error = %v, want ErrRateLimited", err)
	}
	if len(store.records) != 0 {
		t.Errorf("store holds %d records after embed failure, want 0", len(store.records))
	}
}

func TestIngestUpsertFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = rag.ErrStoreUnavailable
	svc := rag.NewIngestService(rag.NewChunker(10, 3), &fakeEmbedder{dim: 4}, store, nil)

	_, err := svc.Ingest(context.Background(), "notes.txt", []byte("some document text"))
	if !errors.Is(err, rag.ErrStoreUnavailable) {
		t.Errorf("Ingest() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestIngestArchiveFailureIsNotFatal(t *testing.T) {
	archive := newFakeArchive()
	archive.err = errors.New("bucket gone")
	store := newFakeStore()
	svc := rag.NewIngestService(rag.NewChunker(10, 3), &fakeEmbedder{dim: 4}, store, archive)

	receipt, err := svc.Ingest(context.Background(), "notes.txt", []byte("some document text"))
	if err != nil {
		t.Fatalf("Ingest() error = %v, want success despite archive failure", err)
	}
	if receipt.ChunkCount == 0 {
		t.Error("ChunkCount = 0, want chunks despite archive failure")
	}
	if len(store.records) == 0 {
		t.Error("store is empty, want records despite archive failure")
	}
}

func TestIngestShortDocumentSingleChunk(t *testing.T) {
	store := newFakeStore()
	svc := rag.NewIngestService(rag.NewChunker(1000, 200), &fakeEmbedder{dim: 4}, store, nil)

	receipt, err := svc.Ingest(context.Background(), "tiny.txt", []byte("tiny"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if receipt.ChunkCount != 1 {
		t.Errorf("ChunkCount = %d, want 1", receipt.ChunkCount)
	}
	for _, rec := range store.records {
		if !strings.Contains(rec.Payload.Content, "tiny") {
			t.Errorf("record content %q does not contain document text", rec.Payload.Content)
		}
	}
}
