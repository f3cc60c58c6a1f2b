package provider

import (
	"context"
	"time"
)

const simulatedChunkSize = 15

// SimulateStreaming breaks a full response into chunks and replays it
// through handler. Used for cache hits and degraded fallbacks so that
// consumers see one uniform streaming surface.
func SimulateStreaming(ctx context.Context, fullResponse string, handler StreamHandler) error {
	chunks := splitTextChunks(fullResponse, simulatedChunkSize)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		isFinal := i == len(chunks)-1
		if err := handler(ResponseChunk{
			Content: chunk,
			IsFinal: isFinal,
		}); err != nil {
			return err
		}

		if !isFinal {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if len(chunks) == 0 {
		return handler(ResponseChunk{IsFinal: true})
	}
	return nil
}

// splitTextChunks splits text into rune-safe chunks of roughly size runes
func splitTextChunks(text string, size int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
