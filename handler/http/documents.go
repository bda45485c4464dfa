package http

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docpilot/src/core/rag"
)

type uploadResponse struct {
	Message       string `json:"message"`
	Filename      string `json:"filename"`
	DocumentID    string `json:"documentId"`
	ChunksCreated int    `json:"chunksCreated"`
}

// UploadDocument accepts a multipart file and runs it through the ingestion
// pipeline.
func (h *Handler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: file upload required: %v", rag.ErrInvalidRequest, err))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: filename is required", rag.ErrInvalidRequest))
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !rag.SupportedExtensions[ext] {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: %q", rag.ErrUnsupportedFormat, ext))
		return
	}
	if header.Size > h.maxUploadBytes {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: file exceeds %d bytes", rag.ErrInvalidRequest, h.maxUploadBytes))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: file exceeds %d bytes", rag.ErrInvalidRequest, h.maxUploadBytes))
		return
	}

	receipt, err := h.ingester.Ingest(c.Request.Context(), header.Filename, data)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, uploadResponse{
		Message:       "Document uploaded and processed successfully",
		Filename:      receipt.Filename,
		DocumentID:    receipt.DocumentID,
		ChunksCreated: receipt.ChunkCount,
	})
}

type collectionInfoResponse struct {
	CollectionName string `json:"collectionName"`
	DocumentCount  int    `json:"documentCount"`
	VectorCount    int    `json:"vectorCount"`
	Dimension      int    `json:"dimension"`
	Status         string `json:"status"`
}

// CollectionInfo reports the state of the document collection.
func (h *Handler) CollectionInfo(c *gin.Context) {
	info, err := h.store.CollectionInfo(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, collectionInfoResponse{
		CollectionName: info.Name,
		DocumentCount:  info.DocumentCount,
		VectorCount:    info.VectorCount,
		Dimension:      info.Dimension,
		Status:         info.Status,
	})
}

// DeleteCollection drops every stored document. Destructive.
func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.admin.DropCollection(c.Request.Context()); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, gin.H{"message": "Collection deleted successfully"})
}
