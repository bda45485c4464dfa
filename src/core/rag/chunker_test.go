package rag_test

import (
	"strings"
	"testing"

	"docpilot/src/core/rag"
)

func TestSplitWindowing(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		size       int
		overlap    int
		wantChunks int
		wantFirst  string
		wantLast   string
	}{
		{
			name:       "text shorter than chunk size yields one chunk",
			text:       "short",
			size:       10,
			overlap:    3,
			wantChunks: 1,
			wantFirst:  "short",
			wantLast:   "short",
		},
		{
			name:       "text equal to chunk size yields one chunk",
			text:       "0123456789",
			size:       10,
			overlap:    3,
			wantChunks: 1,
			wantFirst:  "0123456789",
			wantLast:   "0123456789",
		},
		{
			name:       "25 units at size 10 overlap 3 yields 4 chunks",
			text:       "abcdefghijklmnopqrstuvwxy",
			size:       10,
			overlap:    3,
			wantChunks: 4,
			wantFirst:  "abcdefghij",
			wantLast:   "vwxy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rag.NewChunker(tt.size, tt.overlap)
			chunks := c.Split("doc-1", tt.text)

			if len(chunks) != tt.wantChunks {
				t.Fatalf("Split() produced %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			if chunks[0].Content != tt.wantFirst {
				t.Errorf("first chunk = %q, want %q", chunks[0].Content, tt.wantFirst)
			}
			if chunks[len(chunks)-1].Content != tt.wantLast {
				t.Errorf("last chunk = %q, want %q", chunks[len(chunks)-1].Content, tt.wantLast)
			}
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	c := rag.NewChunker(10, 3)
	if chunks := c.Split("doc-1", ""); len(chunks) != 0 {
		t.Errorf("Split(empty) produced %d chunks, want 0", len(chunks))
	}
}

func TestSplitExactSizesAndOverlap(t *testing.T) {
	const size, overlap = 10, 3
	text := strings.Repeat("abcdefg", 11) // 77 runes, not a multiple of the stride
	c := rag.NewChunker(size, overlap)
	chunks := c.Split("doc-1", text)

	for i, chunk := range chunks {
		if i < len(chunks)-1 && len([]rune(chunk.Content)) != size {
			t.Errorf("chunk %d has length %d, want %d", i, len([]rune(chunk.Content)), size)
		}
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if i == 0 {
			continue
		}
		prev := []rune(chunks[i-1].Content)
		cur := []rune(chunk.Content)
		shared := string(prev[len(prev)-overlap:])
		if string(cur[:overlap]) != shared {
			t.Errorf("chunks %d/%d share %q and %q, want exactly %d overlapping runes",
				i-1, i, shared, string(cur[:overlap]), overlap)
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"ascii", "the quick brown fox jumps over the lazy dog repeatedly", 12, 4},
		{"multibyte", strings.Repeat("héllo wörld ", 20), 17, 5},
		{"stride one", "abcdefghij", 3, 2},
		{"no overlap", "abcdefghijklmnop", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rag.NewChunker(tt.size, tt.overlap)
			chunks := c.Split("doc-1", tt.text)

			var sb strings.Builder
			for i, chunk := range chunks {
				runes := []rune(chunk.Content)
				if i == 0 {
					sb.WriteString(chunk.Content)
					continue
				}
				sb.WriteString(string(runes[tt.overlap:]))
			}
			if sb.String() != tt.text {
				t.Errorf("round trip = %q, want %q", sb.String(), tt.text)
			}
		})
	}
}

func TestSplitCoversTextWithoutGaps(t *testing.T) {
	const size, overlap = 10, 3
	text := "abcdefghijklmnopqrstuvwxy" // 25 runes
	c := rag.NewChunker(size, overlap)
	chunks := c.Split("doc-1", text)

	covered := 0
	for i, chunk := range chunks {
		if chunk.Offset > covered {
			t.Fatalf("chunk %d starts at %d, leaving a gap after %d", i, chunk.Offset, covered)
		}
		end := chunk.Offset + len([]rune(chunk.Content))
		if end > covered {
			covered = end
		}
	}
	if covered != len([]rune(text)) {
		t.Errorf("chunks cover [0,%d), want [0,%d)", covered, len([]rune(text)))
	}
}
