package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandboxd/internal/config"
	"sandboxd/internal/executor"
	"sandboxd/internal/interp"
	"sandboxd/internal/logging"
	"sandboxd/internal/pool"
	"sandboxd/internal/process"
	"sandboxd/internal/proxy"
	"sandboxd/internal/sse"
)

type fakePool struct{}

func (fakePool) Execute(ctx context.Context, language config.Language, sessionID string, req executor.Request, timeoutMs int) (*executor.Result, error) {
	return &executor.Result{Stdout: "ok\n", Success: true, ExecutionID: req.ExecutionID}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.SandboxID = "test-sandbox"
	cfg.Server.Domain = "example.com"

	procs := process.NewManager(cfg.Server.DenyCommands)
	interpSvc := interp.NewService(fakePool{})
	registry := proxy.NewRegistry(cfg.Server.ReservedPorts)
	router := proxy.NewRouter(registry, cfg.Server.SandboxID, cfg.Server.Domain, cfg.Server.ReservedPorts)

	var poolMgr *pool.Manager
	_ = logging.CategoryHTTP

	return NewServer(cfg, poolMgr, procs, interpSvc, registry, router)
}

func TestPingReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "expected permissive CORS header")
}

func TestOptionsReturnsOKWithCORS(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/execute", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "expected 200 for OPTIONS")
}

func TestExecuteForegroundReturnsResult(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(executeRequest{Command: "echo hi"})
	req := httptest.NewRequest(http.MethodPost, "/api/execute", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result process.ForegroundResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "hi\n", result.Stdout)
	assert.True(t, result.Success)
}

func TestProcessGetUnknownIDReturnsNullNot404(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/process/missing", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "expected 200 for unknown process id")
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestFsopsRoundTripOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir() + "/sub"

	mkdirBody, _ := json.Marshal(pathRequest{Path: dir})
	req := httptest.NewRequest(http.MethodPost, "/api/mkdir", bytes.NewReader(mkdirBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "mkdir: %s", rec.Body.String())

	writeBody, _ := json.Marshal(writeRequest{Path: dir + "/file.txt", Content: "hello"})
	req = httptest.NewRequest(http.MethodPost, "/api/write", bytes.NewReader(writeBody))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "write: %s", rec.Body.String())

	readBody, _ := json.Marshal(pathRequest{Path: dir + "/file.txt"})
	req = httptest.NewRequest(http.MethodPost, "/api/read", bytes.NewReader(readBody))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "read: %s", rec.Body.String())

	var readResp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &readResp))
	assert.Equal(t, "hello", readResp["content"])
}

func TestExposePortAndListRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(exposePortRequest{Port: 4500, Name: "web"})
	req := httptest.NewRequest(http.MethodPost, "/api/expose-port", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "expose-port: %s", rec.Body.String())

	var resp exposePortResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.PreviewURL)

	req = httptest.NewRequest(http.MethodGet, "/api/exposed-ports", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "exposed-ports")
}

func TestContextCreateListDeleteOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(createContextRequest{Language: config.LanguagePython})
	req := httptest.NewRequest(http.MethodPost, "/api/contexts", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "create context: %s", rec.Body.String())

	var ctx interp.ExecutionContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ctx))

	req = httptest.NewRequest(http.MethodDelete, "/api/contexts/"+ctx.ID, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "delete context: %s", rec.Body.String())
}

// TestProcessStreamEmitsLogVocabulary guards the GET /api/process/{id}/stream
// endpoint against regressing to the command_start/output/command_complete
// shapes that /api/execute/stream uses: it must emit only stdout, stderr,
// exit, and error events.
func TestProcessStreamEmitsLogVocabulary(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	startBody, _ := json.Marshal(processStartRequest{Command: "echo stream-hi"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process/start", bytes.NewReader(startBody)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap process.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/process/"+snap.ID+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	var types []string
	err = sse.Parse(ctx, resp.Body, func(e sse.Event) error {
		var evt logEvent
		if jsonErr := json.Unmarshal(e.Data, &evt); jsonErr != nil {
			return jsonErr
		}
		types = append(types, evt.Type)
		if evt.Type == "exit" {
			return context.Canceled
		}
		return nil
	})
	assert.True(t, err == nil || err == context.Canceled, "unexpected stream parse error: %v", err)

	require.NotEmpty(t, types, "expected at least one log event")
	for _, typ := range types {
		assert.Contains(t, []string{"stdout", "stderr", "exit", "error"}, typ, "unexpected event type %q in process log stream", typ)
	}
	assert.Equal(t, "exit", types[len(types)-1], "expected the stream to terminate with an exit event")
}
