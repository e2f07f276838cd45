package httpapi

import (
	"net/http"
	"strings"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/process"
	"sandboxd/internal/sse"
)

type executeRequest struct {
	Command    string            `json:"command"`
	Args       []string          `json:"args,omitempty"`
	SessionID  string            `json:"sessionId,omitempty"`
	Background bool              `json:"background,omitempty"`
	Cwd        string            `json:"cwd,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

func (req executeRequest) fullCommand() string {
	if len(req.Args) == 0 {
		return req.Command
	}
	return strings.Join(append([]string{req.Command}, req.Args...), " ")
}

// handleExecute implements POST /api/execute (spec §6, §4.4).
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	if req.Background {
		rec, err := s.procs.StartBackground(req.fullCommand(), process.StartOptions{ID: req.SessionID, Cwd: req.Cwd, Env: req.Env})
		if err != nil {
			sberrors.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec.Snapshot())
		return
	}

	res, err := s.procs.RunForeground(r.Context(), req.fullCommand(), req.Cwd, req.Env)
	if err != nil {
		if classified, ok := err.(*sberrors.Error); ok {
			sberrors.WriteHTTP(w, classified)
			return
		}
		sberrors.WriteHTTP(w, sberrors.MapCommandError("execute", req.fullCommand(), err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleExecuteStream implements POST /api/execute/stream: the SSE
// variant of the foreground path (spec §4.4 "Streaming semantics"),
// built over the same background-style subscriber fan-out as a
// background command, since the spec treats the two as collapsible (§9
// Open Question).
func (s *Server) handleExecuteStream(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	rec, err := s.procs.StartBackground(req.fullCommand(), process.StartOptions{Cwd: req.Cwd, Env: req.Env})
	if err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	ch, cancel, ok := s.procs.Subscribe(rec.ID)
	if !ok {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindInternal, "PROCESS_ERROR", 500, "execute_stream", "process disappeared immediately after start"))
		return
	}
	defer cancel()

	writer, err := sse.NewWriter(w)
	if err != nil {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindInternal, "STREAM_UNSUPPORTED", 500, "execute_stream", "response does not support streaming"))
		return
	}

	for evt := range ch {
		if err := writer.Send(evt); err != nil {
			return
		}
		if evt.Type == "command_complete" {
			return
		}
	}
}
