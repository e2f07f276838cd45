// Package executor implements the interpreter executor protocol (spec
// §4.1, C1): line-delimited JSON requests and responses exchanged with a
// language-specific child process over its standard streams.
//
// Grounded on the teacher's internal/mcp/transport_stdio.go, which speaks a
// similar line-delimited JSON protocol over a child's stdio (ready
// handshake, dedicated stderr-draining goroutine, bufio.Scanner-based
// stdout reader). The JSON-RPC envelope and request/ID correlation are
// replaced with this protocol's flat request/result shape, since C1 has no
// notion of concurrent in-flight requests per child — one worker serves one
// execution at a time (spec §3 InterpreterWorker invariant i).
package executor

import "encoding/json"

// Request is one execution request, serialized as a single JSON line on the
// child's standard input (spec §3, §4.1).
type Request struct {
	Code        string `json:"code"`
	ExecutionID string `json:"executionId"`
}

// OutputType tags one entry of Result.Outputs (spec §3, GLOSSARY "Rich
// output").
type OutputType string

const (
	OutputText       OutputType = "text"
	OutputImagePNG   OutputType = "image-png"
	OutputImageJPEG  OutputType = "image-jpeg"
	OutputSVG        OutputType = "svg"
	OutputHTML       OutputType = "html"
	OutputJSON       OutputType = "json"
	OutputLaTeX      OutputType = "latex"
	OutputMarkdown   OutputType = "markdown"
	OutputJavaScript OutputType = "javascript"
	OutputError      OutputType = "error"
)

// Output is one rich-output item, ordered within Result.Outputs in
// emission order (spec §4.1).
type Output struct {
	Type OutputType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExecError carries the interpreter-side failure detail surfaced by result
// events and rendered by the interpreter service (C3) as an SSE "error"
// event (spec §4.3, §7).
type ExecError struct {
	Name      string   `json:"ename"`
	Value     string   `json:"evalue"`
	Traceback []string `json:"traceback,omitempty"`
}

// Result is one execution result, serialized as a single JSON line on the
// child's standard output (spec §3, §4.1).
type Result struct {
	Stdout      string     `json:"stdout"`
	Stderr      string     `json:"stderr"`
	Success     bool       `json:"success"`
	ExecutionID string     `json:"executionId"`
	Outputs     []Output   `json:"outputs"`
	Error       *ExecError `json:"error,omitempty"`
}

// readyFrame is the single handshake line a child emits before any
// request is valid (spec §4.1).
type readyFrame struct {
	Status string `json:"status"`
}

// isReadyLine reports whether line is the child's readiness announcement.
func isReadyLine(line []byte) bool {
	var rf readyFrame
	if err := json.Unmarshal(line, &rf); err != nil {
		return false
	}
	return rf.Status == "ready"
}

// EncodeRequest serializes req as the single JSON line the protocol
// requires, including the trailing newline.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeResult parses one complete line into a Result. Per testable
// property 8, a caller must only ever pass the first complete JSON object
// observed on the child's stdout; any bytes beyond that object belong to a
// corrupted child and the worker must be evicted (see pool.go in package
// pool).
func DecodeResult(line []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(line, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
