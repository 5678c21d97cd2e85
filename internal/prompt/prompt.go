package prompt

import (
	"fmt"
	"strings"

	"finbot/internal/models"
)

const defaultSystem = "You are a helpful Canadian financial expert assistant. " +
	"Answer the user's question using the provided context. " +
	"Give a clear, concise answer. If the answer isn't in the context, " +
	"say 'I don't have that information in the provided documents.'"

const (
	maxContextChunks = 3
	minChunkChars    = 50
	maxChunkChars    = 400
)

// Llama-3 chat template with explicit role header markers
const template = `<|begin_of_text|><|start_header_id|>system<|end_header_id|>

%s<|eot_id|><|start_header_id|>user<|end_header_id|>

Context:
%s

Question: %s<|eot_id|><|start_header_id|>assistant<|end_header_id|>

`

// Build assembles the generation prompt from the query and the retrieved
// chunks. Pure and deterministic: at most the first 3 chunks are considered,
// chunks of 50 characters or less are dropped as noise, longer ones are cut
// at 400 characters. An empty context block still renders.
func Build(query string, results []models.RetrievalResult, systemInstructions string) string {
	system := strings.TrimSpace(systemInstructions)
	if system == "" {
		system = defaultSystem
	}

	candidates := results
	if len(candidates) > maxContextChunks {
		candidates = candidates[:maxContextChunks]
	}

	var parts []string
	for _, r := range candidates {
		text := strings.TrimSpace(r.Text)
		// character counts, not bytes: multi-byte text must not dodge the
		// noise filter or get cut mid-rune
		runes := []rune(text)
		if len(runes) <= minChunkChars {
			continue
		}
		if len(runes) > maxChunkChars {
			text = string(runes[:maxChunkChars]) + "..."
		}
		parts = append(parts, text)
	}
	context := strings.Join(parts, "\n\n")

	return fmt.Sprintf(template, system, context, query)
}
