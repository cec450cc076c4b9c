package main

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	app, logs := newTestApplication(t, testConfig(), nil)
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
	assert.Contains(t, logs.String(), "handler exploded")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.limiter.enable = true
	cfg.limiter.rps = 1
	cfg.limiter.burst = 2
	app, _ := newTestApplication(t, cfg, nil)
	h := app.routes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Real-Ip", "203.0.113.7")
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.8")
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "limits are per client")
}

func TestSweepStopsOnShutdown(t *testing.T) {
	app := &application{done: make(chan struct{})}

	var mu sync.Mutex
	calls := 0
	returned := make(chan struct{})
	go func() {
		app.sweep(5*time.Millisecond, func() {
			mu.Lock()
			calls++
			mu.Unlock()
		})
		close(returned)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)

	close(app.done)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("sweep did not return after shutdown")
	}
}

func TestRateLimitDisabled(t *testing.T) {
	app, _ := newTestApplication(t, testConfig(), nil)
	h := app.routes()

	for i := 0; i < 20; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestEnableCORS(t *testing.T) {
	cfg := testConfig()
	cfg.cors.trustedOrigins = []string{"https://dashboard.neniwer.id"}
	app, _ := newTestApplication(t, cfg, nil)
	h := app.routes()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.neniwer.id")
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://dashboard.neniwer.id", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.neniwer.id")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OPTIONS, GET", rr.Header().Get("Access-Control-Allow-Methods"))

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
