package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SecurityEventType identifies the kind of security-relevant event emitted
// by the proxy router (spec §4.5 step 1: "Rejects malformed subdomains
// (emits a security event)").
type SecurityEventType string

const (
	SecurityMalformedSubdomain SecurityEventType = "malformed_subdomain"
	SecurityInvalidToken       SecurityEventType = "invalid_token"
	SecurityInvalidPort        SecurityEventType = "invalid_port"
	SecurityInvalidIdentity    SecurityEventType = "invalid_identity"
	SecurityPathTraversal      SecurityEventType = "path_traversal_rejected"
)

// SecurityEvent is one append-only audit line.
type SecurityEvent struct {
	Timestamp int64             `json:"ts"`
	Type      SecurityEventType `json:"type"`
	RemoteIP  string            `json:"remote_ip,omitempty"`
	Host      string            `json:"host,omitempty"`
	Path      string            `json:"path,omitempty"`
	Detail    string            `json:"detail,omitempty"`
}

var (
	auditFile *os.File
	auditMu   sync.Mutex
)

// InitAudit opens the security audit log under <workspace>/.sandboxd/logs.
// A no-op when debug mode / logging is not initialized (logsDir empty).
func InitAudit() error {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil || logsDir == "" {
		return nil
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(logsDir, fmt.Sprintf("%s_security.log", date))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open security audit log: %w", err)
	}
	auditFile = file
	return nil
}

// CloseAudit closes the security audit log.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// EmitSecurityEvent records a security-relevant rejection. It also writes a
// warning line to the proxy category log file regardless of audit file
// state; that logger, like the audit file, only writes when debug_mode is
// on, so with debug_mode off the event is not recorded anywhere.
func EmitSecurityEvent(evt SecurityEvent) {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	Get(CategoryProxy).Warn("security event type=%s host=%s path=%s detail=%s", evt.Type, evt.Host, evt.Path, evt.Detail)

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	auditFile.Write(append(data, '\n'))
}
