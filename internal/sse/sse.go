// Package sse implements the server-sent-event framer and parser (spec
// §4.8, C8): encoding on the control plane side, and a consumer-side parser
// grounded on the teacher's MCP SSE transport read loop
// (internal/mcp/transport_sse.go in the teacher repo), adapted from parsing
// JSON-RPC frames to parsing sandboxd's own event shapes.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Writer encodes events as "data: <JSON>\n\n" and flushes after each one so
// consumers observe them as soon as they are produced (spec §5: subscribers
// must see output in emission order).
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for event-stream output. It sets the standard SSE
// response headers; callers must not write a status code or other headers
// afterward.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Writer{w: w, flusher: flusher}, nil
}

// Send encodes payload as one SSE frame and flushes immediately.
func (sw *Writer) Send(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

// Event is a parsed server-sent event, produced by Parse.
type Event struct {
	Type string
	Data json.RawMessage
}

// Parse reads body as an SSE stream, invoking onEvent for each complete
// frame in arrival order. It splits on blank lines, strips the "data: "
// prefix, ignores comment lines (leading ':'), ignores blank payloads and
// the literal "[DONE]" marker, and silently discards frames whose payload
// is not valid JSON — mirroring the teacher's SSE read loop. Parse returns
// when ctx is canceled, body is exhausted, or onEvent returns an error.
func Parse(ctx context.Context, body io.Reader, onEvent func(Event) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	eventType := "message"
	var dataLines []string

	flush := func() error {
		if len(dataLines) == 0 {
			return nil
		}
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		defer func() { eventType = "message" }()

		if data == "" || data == "[DONE]" {
			return nil
		}
		if !json.Valid([]byte(data)) {
			return nil
		}
		return onEvent(Event{Type: eventType, Data: json.RawMessage(data)})
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment, ignore
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
		default:
			// id:, retry:, or unknown field — ignored per spec §4.8
		}
	}

	if err := flush(); err != nil {
		return err
	}
	return scanner.Err()
}
