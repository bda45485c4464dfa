package rag

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// SupportedExtensions lists the media types the extractor can convert to text.
var SupportedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".csv": true,
}

// ExtractText converts raw uploaded bytes into plain text based on the file
// extension. Unsupported extensions and undecodable input both surface
// ErrUnsupportedFormat.
func ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var (
		docs []schema.Document
		err  error
	)
	switch ext {
	case ".pdf":
		docs, err = documentloaders.NewPDF(bytes.NewReader(data), int64(len(data))).Load(ctx)
	case ".csv":
		docs, err = documentloaders.NewCSV(bytes.NewReader(data)).Load(ctx)
	default:
		docs, err = documentloaders.NewText(bytes.NewReader(data)).Load(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, filename, err)
	}

	// PDF loaders return one document per page; join them back into the
	// document's full text before chunking.
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(doc.PageContent)
	}
	return sb.String(), nil
}
