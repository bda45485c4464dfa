package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docpilot/src/core/rag"
	"docpilot/src/log"
)

const maxQuestionLength = 1000

type queryRequest struct {
	Question         string `json:"question" binding:"required"`
	K                int    `json:"k"`
	IncludeSources   *bool  `json:"includeSources"`
	EnableEvaluation bool   `json:"enableEvaluation"`
}

func (r *queryRequest) validate() error {
	if len([]rune(r.Question)) > maxQuestionLength {
		return fmt.Errorf("%w: question exceeds %d characters", rag.ErrInvalidRequest, maxQuestionLength)
	}
	if r.K < 0 {
		return fmt.Errorf("%w: k must be positive", rag.ErrInvalidRequest)
	}
	return nil
}

func (r *queryRequest) includeSources() bool {
	return r.IncludeSources == nil || *r.IncludeSources
}

type queryResponse struct {
	Question         string        `json:"question"`
	Answer           string        `json:"answer"`
	Sources          []rag.Passage `json:"sources,omitempty"`
	Evaluation       *rag.Scores   `json:"evaluation,omitempty"`
	ProcessingTimeMs float64       `json:"processing_time_ms"`
}

// Query answers a question synchronously.
func (h *Handler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", rag.ErrInvalidRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	start := time.Now()

	passages, err := h.retriever.Retrieve(ctx, req.Question, req.K)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	answer, err := h.answerer.Answer(ctx, req.Question, passages, req.includeSources())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	// Evaluation is post-hoc scoring: its failure is reported inside the
	// evaluation field, never as a request error.
	if req.EnableEvaluation {
		answer.Evaluation = h.evaluator.Evaluate(ctx, req.Question, answer.Text, passages)
	}

	sendJSON(c, http.StatusOK, queryResponse{
		Question:         req.Question,
		Answer:           answer.Text,
		Sources:          answer.Sources,
		Evaluation:       answer.Evaluation,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

// QueryStream answers a question as a chunked stream of text fragments.
// A mid-stream generation failure terminates the stream with an error
// marker after whatever was already sent; a client disconnect cancels the
// upstream call through the request context.
func (h *Handler) QueryStream(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", rag.ErrInvalidRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()

	passages, err := h.retriever.Retrieve(ctx, req.Question, req.K)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	stream, err := h.answerer.AnswerStream(ctx, req.Question, passages)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Error(err, "stream aborted mid-answer", "question", req.Question)
			c.Writer.WriteString("\n\n[ERROR] " + err.Error())
			c.Writer.Flush()
			return
		}
		if _, err := c.Writer.WriteString(fragment); err != nil {
			// Client went away; Close (deferred) cancels the upstream call.
			return
		}
		c.Writer.Flush()
	}
}

type searchResponse struct {
	Query   string        `json:"query"`
	Results []rag.Passage `json:"results"`
	Count   int           `json:"count"`
}

// Search runs retrieval only, no generation.
func (h *Handler) Search(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", rag.ErrInvalidRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	passages, err := h.retriever.Retrieve(c.Request.Context(), req.Question, req.K)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	if passages == nil {
		passages = []rag.Passage{}
	}

	sendJSON(c, http.StatusOK, searchResponse{
		Query:   req.Question,
		Results: passages,
		Count:   len(passages),
	})
}
