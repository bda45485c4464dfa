package rag

// Chunker splits extracted text into fixed-size rune windows with a fixed
// overlap between neighbours. Windows cover the whole text with no gaps;
// every chunk except possibly the last is exactly Size runes long.
type Chunker struct {
	Size    int // target chunk length in runes
	Overlap int // runes shared with the previous chunk, must be < Size
}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return Chunker{Size: size, Overlap: overlap}
}

// Split cuts text into chunks for the given document. Text shorter than the
// chunk size yields exactly one chunk; empty text yields none.
func (c Chunker) Split(documentID, text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		c = NewChunker(c.Size, c.Overlap)
	}
	stride := c.Size - c.Overlap
	var chunks []Chunk
	for start := 0; ; start += stride {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Offset:     start,
			Content:    string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
