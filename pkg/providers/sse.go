package providers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// readStream consumes an SSE response body and forwards normalized chunks.
// It owns the body and the output channel: both are closed before return.
func (a *OpenAIAdapter) readStream(ctx context.Context, body io.ReadCloser, out chan<- *StreamChunk) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	// Provider chunks can exceed the default 64K scanner buffer when tool
	// call arguments are large.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			a.emit(ctx, out, &StreamChunk{Err: ctx.Err()})
			return
		}

		line := scanner.Text()
		if line == "" || !strings.HasPrefix(line, "data: ") {
			// Skip blank lines, comments, and event-type lines.
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}

		var wireChunk wireStreamResponse
		if err := json.Unmarshal([]byte(data), &wireChunk); err != nil {
			a.emit(ctx, out, &StreamChunk{Err: &ParseError{
				Provider:    a.config.Slug,
				RawResponse: truncate(data, 512),
				Cause:       fmt.Errorf("failed to parse stream chunk: %w", err),
			}})
			return
		}

		if !a.emit(ctx, out, transformStreamChunk(&wireChunk)) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		a.emit(ctx, out, &StreamChunk{Err: &StreamError{
			Provider: a.config.Slug,
			Message:  "failed to read stream",
			Cause:    err,
		}})
	}
}

// emit delivers a chunk unless the consumer has gone away.
// Returns false when the context was cancelled before delivery.
func (a *OpenAIAdapter) emit(ctx context.Context, out chan<- *StreamChunk, chunk *StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
