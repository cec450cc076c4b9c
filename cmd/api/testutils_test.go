package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"neniwer/api/internal/jsonlog"
	"neniwer/api/internal/probe"
)

type fakeProber struct {
	mu    sync.Mutex
	err   error
	calls int
	dsn   string
}

func (p *fakeProber) Probe(_ context.Context, dsn string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	p.dsn = dsn
	if p.err != nil {
		return p.err
	}
	if dsn == "" {
		return probe.ErrNotConfigured
	}
	return nil
}

func testConfig() config {
	var cfg config
	cfg.port = defaultPort
	cfg.env = defaultEnv
	cfg.logLevel = jsonlog.InfoLevel
	cfg.db.driver = "postgres"
	cfg.db.timeout = time.Second
	return cfg
}

// syncBuffer collects log output written from server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApplication(t *testing.T, cfg config, prober probe.Prober) (*application, *syncBuffer) {
	t.Helper()

	logs := &syncBuffer{}
	if prober == nil {
		prober = &fakeProber{}
	}

	app := &application{
		logger: jsonlog.New(logs, jsonlog.InfoLevel),
		cfg:    cfg,
		prober: prober,
		done:   make(chan struct{}),
	}
	t.Cleanup(func() { close(app.done) })

	return app, logs
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &testServer{ts}
}

func (ts *testServer) get(t *testing.T, path string) (int, http.Header, []byte) {
	t.Helper()

	rs, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	require.NoError(t, err)

	return rs.StatusCode, rs.Header, body
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), "body: %s", body)
	return out
}
