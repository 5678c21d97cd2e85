package parser

import "strings"

// ChunkText splits text into overlapping whitespace-token chunks of size
// words each, consecutive chunks sharing overlap words. An overlap at or
// above size degrades to a single truncated chunk instead of looping.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	tokens := strings.Fields(text)
	if len(tokens) <= size {
		return []string{text}
	}
	if overlap >= size {
		return []string{strings.Join(tokens[:size], " ")}
	}

	var chunks []string
	for start := 0; start < len(tokens); start += size - overlap {
		end := min(start+size, len(tokens))
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
