// Package guard implements the path and input validation contract (spec
// §4.7/§3): the one place that rejects traversal, system-path targets, and
// malformed ports/identities before any filesystem, git, or proxy operation
// touches the outside world.
//
// This is new logic with no direct analog in the teacher's code; it is
// deliberately built on the standard library (path/filepath, strings) since
// no library in the corpus owns this kind of deny-list path validation, and
// the check is simple and security-sensitive enough that hand-rolling it is
// the idiomatic choice (see DESIGN.md).
package guard

import (
	"path/filepath"
	"strings"

	sberrors "sandboxd/internal/errors"
)

var systemPrefixes = []string{
	"/etc", "/var", "/usr", "/bin", "/sbin", "/boot", "/dev", "/proc", "/sys",
}

// ValidatePath rejects the root path, system-path prefixes, "/tmp/..", and
// any path containing a ".." segment, per spec §4.7. An empty path is also
// rejected.
func ValidatePath(operation, path string) error {
	if path == "" {
		return sberrors.New(sberrors.KindValidation, "INVALID_PATH", 400, operation, "path must not be empty")
	}
	if path == "/" {
		return sberrors.New(sberrors.KindValidation, "INVALID_PATH", 400, operation, "root path is not allowed").WithPath(path)
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return sberrors.New(sberrors.KindValidation, "PATH_TRAVERSAL", 400, operation, "path must not contain '..' segments").WithPath(path)
		}
	}

	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "/tmp/..") {
		return sberrors.New(sberrors.KindValidation, "PATH_TRAVERSAL", 400, operation, "path escapes /tmp").WithPath(path)
	}

	for _, prefix := range systemPrefixes {
		if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			return sberrors.New(sberrors.KindValidation, "SYSTEM_PATH_REJECTED", 400, operation, "path targets a reserved system directory").WithPath(path)
		}
	}

	return nil
}

// ValidatePort rejects any port outside [1024, 65535] or present in the
// reserved set (spec §4.5, §3 ExposedPort invariant).
func ValidatePort(operation string, port int, reserved []int) error {
	if port < 1024 || port > 65535 {
		return sberrors.New(sberrors.KindValidation, "INVALID_PORT", 400, operation, "port must be between 1024 and 65535")
	}
	for _, r := range reserved {
		if port == r {
			return sberrors.New(sberrors.KindValidation, "RESERVED_PORT", 400, operation, "port is reserved")
		}
	}
	return nil
}

var reservedIdentities = map[string]bool{
	"localhost": true, "api": true, "www": true, "admin": true,
	"root": true, "sandbox": true, "proxy": true,
}

// ValidateSandboxIdentity validates a SandboxIdentity (spec §3): length
// <=63, no leading/trailing hyphen, DNS-label-safe characters only, and
// absence from a reserved name list.
func ValidateSandboxIdentity(operation, id string) error {
	if id == "" {
		return sberrors.New(sberrors.KindValidation, "INVALID_IDENTITY", 400, operation, "sandbox identity must not be empty")
	}
	if len(id) > 63 {
		return sberrors.New(sberrors.KindValidation, "INVALID_IDENTITY", 400, operation, "sandbox identity exceeds 63 characters")
	}
	if strings.HasPrefix(id, "-") || strings.HasSuffix(id, "-") {
		return sberrors.New(sberrors.KindValidation, "INVALID_IDENTITY", 400, operation, "sandbox identity must not start or end with a hyphen")
	}
	for _, r := range id {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		if !isLower && !isUpper && !isDigit && r != '-' {
			return sberrors.New(sberrors.KindValidation, "INVALID_IDENTITY", 400, operation, "sandbox identity contains an invalid character")
		}
	}
	if reservedIdentities[strings.ToLower(id)] {
		return sberrors.New(sberrors.KindValidation, "RESERVED_IDENTITY", 400, operation, "sandbox identity is reserved")
	}
	return nil
}
