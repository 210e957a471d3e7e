package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/config"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/log"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/media"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store/sqlite"
)

type testServer struct {
	server *stdhttp.Server
	ts     *httptest.Server
	store  store.Store
}

func newTestServer(t *testing.T, uploader media.Uploader) *testServer {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if uploader == nil {
		uploader = media.Disabled{}
	}

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.RateLimitMax = 0 // disabled in tests unless set explicitly

	sessions := core.NewSessionHandler(core.NewRegistry(), st, log.Nop())
	server := NewServer(sessions, st, uploader, &cfg, log.Nop())

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{server: server, ts: ts, store: st}
}

func (s *testServer) do(t *testing.T, req *stdhttp.Request) *httptest.ResponseRecorder {
	t.Helper()

	resp := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(resp, req)
	return resp
}
