package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubdomainHost(t *testing.T) {
	cases := []struct {
		host      string
		wantOK    bool
		wantPort  int
		wantID    string
		wantToken string
	}{
		{"3000-my-sandbox-abc123.preview.example.com", true, 3000, "my-sandbox", "abc123"},
		{"8080-a-xyz.example.com", true, 8080, "a", "xyz"},
		{"example.com", false, 0, "", ""},
		{"not-a-port-token.example.com", false, 0, "", ""},
		{"3000-abc.example.com:443", false, 0, "", ""},
	}

	for _, c := range cases {
		route, ok := ParseSubdomainHost(c.host)
		if !assert.Equal(t, c.wantOK, ok, "ParseSubdomainHost(%q)", c.host) {
			continue
		}
		if !ok {
			continue
		}
		assert.Equal(t, c.wantPort, route.Port, "ParseSubdomainHost(%q)", c.host)
		assert.Equal(t, c.wantID, route.SandboxID, "ParseSubdomainHost(%q)", c.host)
	}
}

func TestRegistryExposeUnexposeRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)

	entry, err := reg.Expose(4000, "web")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.Token)

	_, err = reg.Expose(4000, "web")
	assert.Error(t, err, "expected duplicate Expose to conflict")

	got, ok := reg.Lookup(4000)
	require.True(t, ok)
	assert.Equal(t, entry.Token, got.Token)

	assert.Len(t, reg.List(), 1)

	require.NoError(t, reg.Unexpose(4000))
	assert.Error(t, reg.Unexpose(4000), "expected second Unexpose to 404")
}

func TestBuildPreviewURLUsesHTTPSExceptLoopback(t *testing.T) {
	u := BuildPreviewURL("sandboxd.example.com", "abc", 3000)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "3000-abc.sandboxd.example.com", u.Host)

	local := BuildPreviewURL("localhost", "abc", 3000)
	assert.Equal(t, "http", local.Scheme)
}

func TestRouterForwardsPlainRequestsToLoopbackTarget(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-sandbox", r.Header.Get("X-Sandbox-Name"))
		w.Write([]byte("hello from upstream"))
	}))
	defer upstream.Close()

	upstreamURL, _ := url.Parse(upstream.URL)
	port, err := strconv.Atoi(upstreamURL.Port())
	require.NoError(t, err)

	reg := NewRegistry(nil)
	_, err = reg.Expose(port, "")
	require.NoError(t, err)

	rt := NewRouter(reg, "test-sandbox", "example.com", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = ""
	rec := httptest.NewRecorder()
	rt.ServeDirectPath(rec, req, port)

	body, _ := io.ReadAll(rec.Result().Body)
	assert.Equal(t, "hello from upstream", string(body))
}

func TestRouterRejectsInvalidToken(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Expose(5000, "")
	require.NoError(t, err)
	rt := NewRouter(reg, "test-sandbox", "example.com", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "5000-test-sandbox-wrongtoken.example.com"
	rec := httptest.NewRecorder()
	rt.ServeSubdomain(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterRejectsMalformedSubdomain(t *testing.T) {
	reg := NewRegistry(nil)
	rt := NewRouter(reg, "test-sandbox", "example.com", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	rt.ServeSubdomain(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
