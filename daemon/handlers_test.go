package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keymeter/typespeed/pkg/meter"
	"github.com/rs/zerolog"
)

func newTestDaemon() (*Daemon, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	d := &Daemon{
		meter:   meter.New(),
		logger:  zerolog.Nop(),
		started: time.Now(),
		version: "test",
	}
	r := gin.New()
	r.Use(requestContext(zerolog.Nop()))
	d.registerRoutes(r)
	return d, r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestStatusLineFreshStart(t *testing.T) {
	_, r := newTestDaemon()

	resp := get(r, "/typespeed")
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	if got := resp.Body.String(); got != "0 0 0 0\n" {
		t.Fatalf("body = %q, want %q", got, "0 0 0 0\n")
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}
}

func TestStatusLineAfterBurst(t *testing.T) {
	d, r := newTestDaemon()
	for i := 0; i < 5; i++ {
		d.meter.Record()
	}
	d.meter.Rotate()

	if got := get(r, "/typespeed").Body.String(); got != "30 10 5 5\n" {
		t.Fatalf("body = %q, want %q", got, "30 10 5 5\n")
	}

	// Repeated reads with no activity are identical.
	for i := 0; i < 3; i++ {
		if got := get(r, "/typespeed").Body.String(); got != "30 10 5 5\n" {
			t.Fatalf("read %d: body = %q", i, got)
		}
	}
}

func TestStatsJSON(t *testing.T) {
	d, r := newTestDaemon()
	for i := 0; i < 7; i++ {
		d.meter.Record()
	}
	d.meter.Rotate()

	resp := get(r, "/v1/stats")
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}

	var body struct {
		Rate10 uint64 `json:"rate_10s"`
		Rate30 uint64 `json:"rate_30s"`
		Rate60 uint64 `json:"rate_60s"`
		Total  uint64 `json:"total"`
		Sum10  uint64 `json:"sum_10s"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Rate10 != 42 || body.Rate30 != 14 || body.Rate60 != 7 || body.Total != 7 {
		t.Errorf("unexpected rates: %+v", body)
	}
	if body.Sum10 != 7 {
		t.Errorf("sum_10s = %d, want 7", body.Sum10)
	}
}

func TestHealth(t *testing.T) {
	_, r := newTestDaemon()

	resp := get(r, "/v1/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}

	var body struct {
		Status     string `json:"status"`
		Subscribed bool   `json:"subscribed"`
		Version    string `json:"version"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q", body.Status)
	}
	if body.Subscribed {
		t.Error("subscribed should be false without a source")
	}
	if body.Version != "test" {
		t.Errorf("version = %q", body.Version)
	}
}

func TestHistoryDisabled(t *testing.T) {
	_, r := newTestDaemon()

	if resp := get(r, "/v1/history"); resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	_, r := newTestDaemon()

	resp := get(r, "/typespeed")
	if resp.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request ID header")
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	_, r := newTestDaemon()

	req := httptest.NewRequest(http.MethodGet, "/typespeed", nil)
	req.Header.Set(requestIDHeader, "caller-chosen")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get(requestIDHeader); got != "caller-chosen" {
		t.Fatalf("request ID = %q, want caller-chosen", got)
	}
}

func TestConcurrentStatusReads(t *testing.T) {
	d, r := newTestDaemon()
	d.meter.Record()
	d.meter.Rotate()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				if resp := get(r, "/typespeed"); resp.Code != http.StatusOK {
					t.Errorf("unexpected status: %d", resp.Code)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
