package process

import (
	"net/http"
	"strings"

	sberrors "sandboxd/internal/errors"
)

// checkSafety rejects command if it contains any deny-listed substring
// (spec §4.4 "Safety filter"). Per spec §9 design note, this is a coarse
// substring match, not a security boundary: it rejects benign commands
// like `echo "alarm"` and accepts `/bin/rm`.
func checkSafety(command string, denyList []string) error {
	for _, token := range denyList {
		if token == "" {
			continue
		}
		if strings.Contains(command, token) {
			return sberrors.New(sberrors.KindValidation, "DANGEROUS_COMMAND", http.StatusBadRequest, "execute", "Dangerous command not allowed").WithDetails(token)
		}
	}
	return nil
}
