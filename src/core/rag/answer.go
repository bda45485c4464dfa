package rag

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// AnswerService turns a question and its retrieved passages into a grounded
// completion, either whole or as a token stream.
type AnswerService struct {
	generator Generator
	prompt    *template.Template
}

type promptData struct {
	Question string
	Passages []Passage
}

func NewAnswerService(generator Generator) *AnswerService {
	return &AnswerService{
		generator: generator,
		prompt:    template.Must(template.New("grounded").Parse(GroundedAnswerPromptTmpl)),
	}
}

func (s *AnswerService) buildPrompt(question string, passages []Passage) (string, error) {
	var sb strings.Builder
	if err := s.prompt.Execute(&sb, promptData{Question: question, Passages: passages}); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return sb.String(), nil
}

// Answer generates a complete answer in one call. The passages always ground
// the prompt; they appear in the returned Answer's source list only when
// includeSources is set.
func (s *AnswerService) Answer(ctx context.Context, question string, passages []Passage, includeSources bool) (Answer, error) {
	prompt, err := s.buildPrompt(question, passages)
	if err != nil {
		return Answer{}, err
	}

	text, err := s.generator.Generate(ctx, GroundedAnswerSystemMessageTmpl, prompt)
	if err != nil {
		return Answer{}, err
	}

	answer := Answer{Text: text}
	if includeSources {
		answer.Sources = passages
	}
	return answer, nil
}

// AnswerStream starts a streaming generation and returns the raw token
// stream. The caller owns the stream: it must drain until io.EOF or Close it
// early, which cancels the upstream call. A non-EOF error from Recv means
// the stream died after zero or more fragments were already delivered;
// those fragments stand.
func (s *AnswerService) AnswerStream(ctx context.Context, question string, passages []Passage) (TokenStream, error) {
	prompt, err := s.buildPrompt(question, passages)
	if err != nil {
		return nil, err
	}
	return s.generator.GenerateStream(ctx, GroundedAnswerSystemMessageTmpl, prompt)
}
