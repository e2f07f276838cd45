package httpapi

import (
	"encoding/base64"
	"net/http"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/fsops"
)

type pathRequest struct {
	Path string `json:"path"`
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Base64  bool   `json:"base64,omitempty"`
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	if err := fsops.Mkdir(req.Path); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}

	data := []byte(req.Content)
	if req.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			sberrors.WriteHTTP(w, sberrors.New(sberrors.KindValidation, "INVALID_BODY", 400, "write", "content is not valid base64"))
			return
		}
		data = decoded
	}

	if err := fsops.Write(req.Path, data); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	data, err := fsops.Read(req.Path)
	if err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": string(data)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	if err := fsops.Delete(req.Path); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	if err := fsops.Rename(req.From, req.To); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	if err := fsops.Move(req.From, req.To); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
