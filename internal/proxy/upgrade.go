package proxy

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	sberrors "sandboxd/internal/errors"

	"github.com/gorilla/websocket"
)

// forwardUpgrade handles a protocol-upgrade request: the only path that
// supports WebSocket upgrades (spec §4.5 step 5). It dials the loopback
// service, forwarding the "cf-container-target-port" header, upgrades the
// inbound connection, and pumps frames in both directions until either
// side closes.
func (rt *Router) forwardUpgrade(w http.ResponseWriter, r *http.Request, port int, path string) {
	upstreamURL := BuildLoopbackURL(port, path, r.URL.RawQuery)
	upstreamURL.Scheme = "ws"

	reqHeader := make(http.Header)
	for k, vs := range r.Header {
		switch strings.ToLower(k) {
		case "upgrade", "connection", "sec-websocket-key", "sec-websocket-version", "sec-websocket-extensions":
			continue
		default:
			reqHeader[k] = vs
		}
	}
	reqHeader.Set("cf-container-target-port", strconv.Itoa(port))

	upstreamConn, resp, err := rt.dialer.Dial(upstreamURL.String(), reqHeader)
	if err != nil {
		status := http.StatusBadGateway
		if resp != nil {
			status = resp.StatusCode
		}
		sberrors.WriteHTTP(w, sberrors.New(sberrors.KindUpstreamFailure, "SERVICE_NOT_RESPONDING", status, "proxy_upgrade", "upstream service did not respond to the upgrade request").WithCause(err))
		return
	}
	defer upstreamConn.Close()

	clientConn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer clientConn.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go pumpMessages(&wg, clientConn, upstreamConn)
	go pumpMessages(&wg, upstreamConn, clientConn)
	wg.Wait()
}

func pumpMessages(wg *sync.WaitGroup, dst, src *websocket.Conn) {
	defer wg.Done()
	for {
		mt, data, err := src.ReadMessage()
		if err != nil {
			dst.Close()
			return
		}
		if err := dst.WriteMessage(mt, data); err != nil {
			src.Close()
			return
		}
	}
}
