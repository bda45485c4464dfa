package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness only; it must stay dependency-free so a
// live-but-not-ready process still answers.
func (h *Handler) Health(c *gin.Context) {
	sendJSON(c, http.StatusOK, gin.H{"status": "live"})
}

type readinessResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	ModelProvider string `json:"modelProvider"`
}

// Ready checks that the vector store and the model provider are reachable.
func (h *Handler) Ready(c *gin.Context) {
	status := h.readiness.CheckReadiness(c.Request.Context())

	resp := readinessResponse{
		Status:        "ready",
		Store:         string(status.Store),
		ModelProvider: string(status.ModelProvider),
	}
	code := http.StatusOK
	if !status.Ready {
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	}
	sendJSON(c, code, resp)
}
