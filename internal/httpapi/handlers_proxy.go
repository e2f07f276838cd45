package httpapi

import (
	"net/http"
	"strconv"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/proxy"
)

type exposePortRequest struct {
	Port int    `json:"port"`
	Name string `json:"name,omitempty"`
}

type exposePortResponse struct {
	proxy.ExposedPort
	PreviewURL string `json:"previewUrl"`
}

// handleExposePort implements POST /api/expose-port (spec §4.5
// "Registry"). The preview URL is built from the requesting host H, per
// spec §4.5 "Preview URL construction": "for a request from a host name
// H ... builds https://<port>-<sandboxId>.<H>".
func (s *Server) handleExposePort(w http.ResponseWriter, r *http.Request) {
	var req exposePortRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	entry, err := s.registry.Expose(req.Port, req.Name)
	if err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	preview := proxy.BuildPreviewURL(r.Host, s.cfg.Server.SandboxID, req.Port)
	writeJSON(w, http.StatusOK, exposePortResponse{ExposedPort: *entry, PreviewURL: preview.String()})
}

type unexposePortRequest struct {
	Port int `json:"port"`
}

func (s *Server) handleUnexposePort(w http.ResponseWriter, r *http.Request) {
	var req unexposePortRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	if err := s.registry.Unexpose(req.Port); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListExposedPorts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// handleProxyDirect implements the "/proxy/{port}/*" direct-path form
// (spec §6).
func (s *Server) handleProxyDirect(w http.ResponseWriter, r *http.Request) {
	port, err := strconv.Atoi(r.PathValue("port"))
	if err != nil {
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindValidation, "INVALID_PORT", 400, "proxy_direct", "port path segment is not numeric"))
		return
	}
	s.router.ServeDirectPath(w, r, port)
}
