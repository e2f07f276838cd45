package httpapi

import "net/http"

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"sandboxId": s.cfg.Server.SandboxID,
	})
}
