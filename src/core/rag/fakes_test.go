package rag_test

import (
	"context"
	"io"

	"docpilot/src/core/rag"
)

// fakeEmbedder returns one deterministic vector per input text.
type fakeEmbedder struct {
	dim   int
	err   error
	calls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(text))
		vectors[i] = v
	}
	return vectors, nil
}

// fakeStore records upserts by id and serves canned search results.
type fakeStore struct {
	records      map[string]rag.Record
	searchResult []rag.Passage
	upsertErr    error
	searchErr    error
	healthErr    error
	searchCalls  int
	lastK        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]rag.Record)}
}

func (f *fakeStore) Upsert(_ context.Context, records []rag.Record) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return len(records), nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]rag.Passage, error) {
	f.searchCalls++
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchResult) > k {
		return f.searchResult[:k], nil
	}
	return f.searchResult, nil
}

func (f *fakeStore) CollectionInfo(_ context.Context) (rag.CollectionInfo, error) {
	return rag.CollectionInfo{Name: "test", VectorCount: len(f.records)}, nil
}

func (f *fakeStore) Healthy(_ context.Context) error {
	return f.healthErr
}

// fakeGenerator captures prompts and serves canned completions.
type fakeGenerator struct {
	text       string
	err        error
	stream     *fakeStream
	streamErr  error
	lastSystem string
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	return f.text, f.err
}

func (f *fakeGenerator) GenerateStream(_ context.Context, system, prompt string) (rag.TokenStream, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

// fakeStream emits its fragments, then err (io.EOF when nil).
type fakeStream struct {
	fragments []string
	err       error
	pos       int
	closed    bool
}

func (f *fakeStream) Recv() (string, error) {
	if f.pos < len(f.fragments) {
		fragment := f.fragments[f.pos]
		f.pos++
		return fragment, nil
	}
	if f.err != nil {
		return "", f.err
	}
	return "", io.EOF
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

// fakeScorer returns canned scores or an error.
type fakeScorer struct {
	scores rag.Scores
	err    error
}

func (f *fakeScorer) Score(_ context.Context, _, _ string, _ []string) (rag.Scores, error) {
	if f.err != nil {
		return rag.Scores{}, f.err
	}
	return f.scores, nil
}

// fakeArchive records stored documents.
type fakeArchive struct {
	stored map[string][]byte
	err    error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{stored: make(map[string][]byte)}
}

func (f *fakeArchive) Store(_ context.Context, documentID, filename string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.stored[documentID+"/"+filename] = data
	return nil
}
