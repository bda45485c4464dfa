package rag

import (
	"context"
	"time"

	"docpilot/src/log"
)

// EvaluateService scores a finished answer against its question and
// grounding passages. Scoring is pure post-hoc: whatever happens here, the
// answer stands. A scorer failure is reported through Scores.Error and a
// log line, never as a request error.
type EvaluateService struct {
	scorer Scorer
}

func NewEvaluateService(scorer Scorer) *EvaluateService {
	return &EvaluateService{scorer: scorer}
}

func (s *EvaluateService) Evaluate(ctx context.Context, question, answer string, passages []Passage) *Scores {
	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = p.Content
	}

	start := time.Now()
	scores, err := s.scorer.Score(ctx, question, answer, contexts)
	scores.EvaluationTime = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		log.Error(err, "evaluation failed, returning answer without metrics", "question", truncate(question, 80))
		return &Scores{
			EvaluationTime: scores.EvaluationTime,
			Error:          err.Error(),
		}
	}
	return &scores
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
