package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docpilot/src/core/rag"
)

const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = time.Second
)

// Config holds everything the client needs at construction; nothing is read
// from the environment at call time.
type Config struct {
	APIKey             string
	BaseURL            string // empty means the provider default
	ChatModel          string
	EmbeddingModel     string
	EmbeddingDimension int // 0 means the model default
	MaxRetries         int
	RetryDelay         time.Duration
	Timeout            time.Duration // per-call ceiling on top of the request context
}

// Client wraps the hosted model provider behind the embed/generate/score
// capabilities. Transient failures are retried a bounded number of times
// with exponential backoff; the final error is mapped onto the service's
// error taxonomy.
type Client struct {
	api        *openai.Client
	chatModel  string
	embedModel openai.EmbeddingModel
	dimension  int
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model provider API key is required")
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		chatModel:  cfg.ChatModel,
		embedModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		dimension:  cfg.EmbeddingDimension,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
	}, nil
}

// Embed returns one vector per input text, order preserving, in a single
// batched provider call.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	err := c.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      texts,
			Model:      c.embedModel,
			Dimensions: c.dimension,
		})
		return err
	})
	if err != nil {
		return nil, mapProviderError(err, rag.ErrUpstreamUnavailable)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d inputs", rag.ErrUpstreamUnavailable, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", rag.ErrUpstreamUnavailable, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Generate issues one chat completion and returns the full answer text.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
		})
		return err
	})
	if err != nil {
		return "", mapProviderError(err, rag.ErrGenerationFailed)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", rag.ErrGenerationFailed)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream starts a streaming completion. The returned stream owns a
// derived context; Close cancels the upstream call. No retry: once tokens
// may have been delivered the call is not repeatable.
func (c *Client) GenerateStream(ctx context.Context, system, prompt string) (rag.TokenStream, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		cancel()
		return nil, mapProviderError(err, rag.ErrGenerationFailed)
	}

	return &tokenStream{stream: stream, cancel: cancel}, nil
}

type tokenStream struct {
	stream    *openai.ChatCompletionStream
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *tokenStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.cancel()
				return "", io.EOF
			}
			return "", mapProviderError(err, rag.ErrGenerationFailed)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *tokenStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.stream.Close()
	})
	return err
}

type judgeVerdict struct {
	Faithfulness    *float64 `json:"faithfulness"`
	AnswerRelevancy *float64 `json:"answer_relevancy"`
}

// Score asks the chat model to act as judge and return faithfulness and
// answer relevancy as JSON.
func (c *Client) Score(ctx context.Context, question, answer string, contexts []string) (rag.Scores, error) {
	var sb strings.Builder
	sb.WriteString("<QUESTION>\n" + question + "\n</QUESTION>\n\n")
	sb.WriteString("<ANSWER>\n" + answer + "\n</ANSWER>\n\n")
	sb.WriteString("<CONTEXT>\n")
	for _, passage := range contexts {
		sb.WriteString(passage + "\n\n")
	}
	sb.WriteString("</CONTEXT>")

	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: rag.EvaluationSystemMessage},
				{Role: openai.ChatMessageRoleUser, Content: sb.String()},
			},
			Temperature: 0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		return err
	})
	if err != nil {
		return rag.Scores{}, mapProviderError(err, rag.ErrUpstreamUnavailable)
	}
	if len(resp.Choices) == 0 {
		return rag.Scores{}, fmt.Errorf("%w: judge returned no choices", rag.ErrUpstreamUnavailable)
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &verdict); err != nil {
		return rag.Scores{}, fmt.Errorf("parsing judge verdict: %w", err)
	}
	return rag.Scores{
		Faithfulness:    clamp01(verdict.Faithfulness),
		AnswerRelevancy: clamp01(verdict.AnswerRelevancy),
	}, nil
}

// Healthy reports whether the provider is reachable and the key accepted.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return mapProviderError(err, rag.ErrUpstreamUnavailable)
	}
	return nil
}

// withRetry runs call with a per-attempt timeout, retrying transient
// failures with exponential backoff. Latency stays bounded: at most
// maxRetries+1 attempts.
func (c *Client) withRetry(ctx context.Context, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := call(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Non-API errors are transport-level; worth one more try.
	return !errors.Is(err, context.Canceled)
}

// mapProviderError folds a provider error into the service taxonomy.
// Throttling keeps its own identity; everything else gets the caller's
// fallback sentinel.
func mapProviderError(err error, fallback error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return fmt.Errorf("%w: %v", rag.ErrRateLimited, err)
		}
		if apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403 || apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", rag.ErrUpstreamUnavailable, err)
		}
		return fmt.Errorf("%w: %v", fallback, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

func clamp01(v *float64) *float64 {
	if v == nil {
		return nil
	}
	val := *v
	if val < 0 {
		val = 0
	}
	if val > 1 {
		val = 1
	}
	return &val
}
