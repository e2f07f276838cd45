package httpapi

import (
	"net/http"

	"sandboxd/internal/config"
	sberrors "sandboxd/internal/errors"
)

type createContextRequest struct {
	Language   config.Language `json:"language"`
	WorkingDir string          `json:"cwd,omitempty"`
}

func (s *Server) handleCreateContext(w http.ResponseWriter, r *http.Request) {
	var req createContextRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	if req.Language == "" {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindValidation, "INVALID_LANGUAGE", 400, "create_context", "language is required"))
		return
	}
	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = s.cfg.Server.Workspace
	}
	ctx := s.interp.Contexts().Create(req.Language, workingDir)
	writeJSON(w, http.StatusOK, ctx)
}

func (s *Server) handleListContexts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.interp.Contexts().List())
}

func (s *Server) handleDeleteContext(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.interp.Contexts().Delete(id) {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindNotFound, "CONTEXT_NOT_FOUND", 404, "delete_context", "execution context not found").WithContext(id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type executeCodeRequest struct {
	ContextID string          `json:"context_id"`
	Code      string          `json:"code"`
	Language  config.Language `json:"language,omitempty"`
	TimeoutMs int             `json:"timeoutMs,omitempty"`
}

// handleExecuteCode implements POST /api/execute/code (spec §4.3, §6).
func (s *Server) handleExecuteCode(w http.ResponseWriter, r *http.Request) {
	var req executeCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	if err := s.interp.Execute(r.Context(), w, req.ContextID, req.Code, req.Language, req.TimeoutMs); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
}
