package httpapi

import (
	"net/http"
	"time"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/process"
	"sandboxd/internal/sse"
)

type processStartRequest struct {
	Command string                `json:"command"`
	Options process.StartOptions `json:"options,omitempty"`
}

func (s *Server) handleProcessStart(w http.ResponseWriter, r *http.Request) {
	var req processStartRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	rec, err := s.procs.StartBackground(req.Command, req.Options)
	if err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

func (s *Server) handleProcessList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.procs.List())
}

// handleProcessGet implements GET /api/process/{id}. Per spec §6's literal
// table entry ("null if unknown"), an unknown id renders the JSON literal
// null with 200 OK rather than a 404 — this is preserved exactly as
// specified even though it is unusual for a REST API.
func (s *Server) handleProcessGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := s.procs.Get(id)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

func (s *Server) handleProcessKill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.procs.Kill(id, nil); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"killed": true})
}

func (s *Server) handleProcessKillAll(w http.ResponseWriter, r *http.Request) {
	n := s.procs.KillAll()
	writeJSON(w, http.StatusOK, map[string]int{"killed": n})
}

func (s *Server) handleProcessLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := s.procs.Get(id)
	if !ok {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindNotFound, "PROCESS_NOT_FOUND", 404, "process_logs", "process not found").WithContext(id))
		return
	}
	stdout, stderr := rec.Logs()
	writeJSON(w, http.StatusOK, map[string]string{"stdout": stdout, "stderr": stderr})
}

// logEvent is the wire shape for GET /api/process/{id}/stream (spec §6:
// "SSE stream of live log events (stdout, stderr, exit, error)"), distinct
// from the command_start/output/command_complete vocabulary §4.4 defines
// for /api/execute/stream.
type logEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      string    `json:"data,omitempty"`
	ExitCode  *int      `json:"exitCode,omitempty"`
	Success   *bool     `json:"success,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// translateLogEvent maps a process.Event (the record's internal
// command_start/output/command_complete stream) onto the §6 log-stream
// vocabulary. command_start has no analog in that vocabulary and is
// dropped; everything else becomes stdout/stderr/exit/error.
func translateLogEvent(evt process.Event) (logEvent, bool) {
	switch evt.Type {
	case "output":
		switch evt.Stream {
		case "stdout":
			return logEvent{Type: "stdout", Timestamp: evt.Timestamp, Data: evt.Data}, true
		case "stderr":
			return logEvent{Type: "stderr", Timestamp: evt.Timestamp, Data: evt.Data}, true
		default:
			return logEvent{}, false
		}
	case "command_complete":
		return logEvent{Type: "exit", Timestamp: evt.Timestamp, ExitCode: evt.ExitCode, Success: evt.Success}, true
	case "command_start":
		return logEvent{}, false
	default:
		return logEvent{Type: "error", Timestamp: evt.Timestamp, Error: evt.Error}, true
	}
}

func (s *Server) handleProcessStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, cancel, ok := s.procs.Subscribe(id)
	if !ok {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindNotFound, "PROCESS_NOT_FOUND", 404, "process_stream", "process not found").WithContext(id))
		return
	}
	defer cancel()

	writer, err := sse.NewWriter(w)
	if err != nil {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindInternal, "STREAM_UNSUPPORTED", 500, "process_stream", "response does not support streaming"))
		return
	}

	for {
		select {
		case evt, open := <-ch:
			if !open {
				return
			}
			out, ok := translateLogEvent(evt)
			if !ok {
				continue
			}
			if err := writer.Send(out); err != nil {
				return
			}
			if out.Type == "exit" {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
