package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docpilot/src/core/rag"
)

// DefaultMaxUploadBytes bounds uploaded file size when no limit is configured.
const DefaultMaxUploadBytes = 20 << 20

type Handler struct {
	retriever rag.Retriever
	answerer  rag.Answerer
	ingester  rag.Ingester
	evaluator rag.Evaluator
	store     rag.VectorStore
	admin     rag.CollectionAdmin
	readiness rag.ReadinessChecker

	maxUploadBytes int64
}

func NewHandler(
	retriever rag.Retriever,
	answerer rag.Answerer,
	ingester rag.Ingester,
	evaluator rag.Evaluator,
	store rag.VectorStore,
	admin rag.CollectionAdmin,
	readiness rag.ReadinessChecker,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		retriever:      retriever,
		answerer:       answerer,
		ingester:       ingester,
		evaluator:      evaluator,
		store:          store,
		admin:          admin,
		readiness:      readiness,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/query", h.Query)
	r.POST("/query/stream", h.QueryStream)
	r.POST("/query/search", h.Search)

	r.POST("/documents/upload", h.UploadDocument)
	r.GET("/documents/info", h.CollectionInfo)
	r.DELETE("/documents/collection", h.DeleteCollection)

	r.GET("/health", h.Health)
	r.GET("/health/ready", h.Ready)
}

// Common error response structure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, rag.ErrInvalidRequest):
		code = "VALIDATION_ERROR"
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrUnsupportedFormat):
		code = "UNSUPPORTED_FORMAT"
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrRateLimited):
		code = "RATE_LIMITED"
		status = http.StatusTooManyRequests
	case errors.Is(err, rag.ErrUpstreamUnavailable):
		code = "UPSTREAM_UNAVAILABLE"
		status = http.StatusBadGateway
	case errors.Is(err, rag.ErrStoreUnavailable):
		code = "STORE_UNAVAILABLE"
		status = http.StatusServiceUnavailable
	case errors.Is(err, rag.ErrDimensionMismatch):
		code = "DIMENSION_MISMATCH"
		status = http.StatusInternalServerError
	case errors.Is(err, rag.ErrGenerationFailed):
		code = "GENERATION_FAILED"
		status = http.StatusInternalServerError
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
