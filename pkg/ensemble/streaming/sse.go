// Package streaming provides Server-Sent Events framing for the
// ensemble event stream, plus helpers for accumulating chunked text.
package streaming

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Event is one Server-Sent Event on the wire.
type Event struct {
	ID   string
	Type string
	Data string
}

// WriteEvent writes a single SSE frame with a JSON-encoded payload.
func WriteEvent(w io.Writer, id, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}

// maxLineSize bounds a single SSE line (1MB)
const maxLineSize = 1024 * 1024

// Parser reads Server-Sent Events from a stream.
type Parser struct {
	reader *bufio.Reader
}

// NewParser creates an SSE parser over reader
func NewParser(reader io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(reader)}
}

// Next reads and parses the next event. It returns io.EOF when the
// stream ends cleanly.
func (p *Parser) Next(ctx context.Context) (*Event, error) {
	event := &Event{}
	haveField := false

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := p.readLine()
		if err != nil {
			if err == io.EOF && haveField {
				return event, nil
			}
			return nil, err
		}

		// Empty line ends the event
		if line == "" {
			if haveField {
				return event, nil
			}
			continue
		}

		// Comment line
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			field, value = line, ""
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "id":
			event.ID = value
			haveField = true
		case "event":
			event.Type = value
			haveField = true
		case "data":
			if event.Data != "" {
				event.Data += "\n" + value
			} else {
				event.Data = value
			}
			haveField = true
		}
	}
}

// readLine reads a line with a size limit
func (p *Parser) readLine() (string, error) {
	line, isPrefix, err := p.reader.ReadLine()
	if err != nil {
		return "", err
	}

	if isPrefix {
		for isPrefix {
			_, isPrefix, err = p.reader.ReadLine()
			if err != nil {
				return "", err
			}
		}
		return "", errors.New("line exceeds maximum size")
	}
	if len(line) > maxLineSize {
		return "", errors.New("line exceeds maximum size")
	}

	return string(line), nil
}

// ChunkedTextBuilder accumulates streaming text fragments.
type ChunkedTextBuilder struct {
	chunks []string
	total  int
}

// NewChunkedTextBuilder creates a new text builder
func NewChunkedTextBuilder() *ChunkedTextBuilder {
	return &ChunkedTextBuilder{
		chunks: make([]string, 0, 64),
	}
}

// Append adds a fragment to the builder
func (b *ChunkedTextBuilder) Append(chunk string) {
	b.chunks = append(b.chunks, chunk)
	b.total += len(chunk)
}

// Len returns the accumulated byte length
func (b *ChunkedTextBuilder) Len() int {
	return b.total
}

// String returns the concatenated text
func (b *ChunkedTextBuilder) String() string {
	if len(b.chunks) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.Grow(b.total)
	for _, chunk := range b.chunks {
		builder.WriteString(chunk)
	}
	return builder.String()
}
