package httpapi

import (
	"net/http"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/git"
)

type gitCheckoutRequest struct {
	URL    string `json:"url"`
	Dir    string `json:"dir"`
	Branch string `json:"branch,omitempty"`
}

func (s *Server) handleGitCheckout(w http.ResponseWriter, r *http.Request) {
	var req gitCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	res, err := git.Checkout(r.Context(), git.CheckoutOptions{URL: req.URL, Dir: req.Dir, Branch: req.Branch})
	if err != nil {
		sberrors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
