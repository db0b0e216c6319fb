package actions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

func newBackend(url string, retries int) *Backend {
	b := NewBackend(models.MBackendConfig{
		BaseURL:        url,
		TimeoutSeconds: 2,
		Retries:        retries,
		SaveConfigPath: "/save_config",
		PanicPath:      "/panic",
		WipePath:       "/wipe_config",
	}, logger.NewLoggerTo(io.Discard, "INFO", "actions"))
	b.retryDelay = time.Millisecond
	return b
}

func TestSaveConfigPostsPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/save_config" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"status":"success","message":"Settings saved"}`))
	}))
	defer srv.Close()

	res, err := newBackend(srv.URL, 0).SaveConfig(context.Background(), map[string]interface{}{"risk": 2.5})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Succeeded() || res.Message != "Settings saved" {
		t.Errorf("result = %+v", res)
	}
	if got["risk"] != 2.5 {
		t.Errorf("payload = %v", got)
	}
}

func TestRejectedActionIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Engine not running"}`))
	}))
	defer srv.Close()

	res, err := newBackend(srv.URL, 3).EmergencyExit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Succeeded() || res.Message != "Engine not running" {
		t.Errorf("result = %+v", res)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestServerErrorRetriedThenReported(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"success","message":"Data wiped"}`))
	}))
	defer srv.Close()

	res, err := newBackend(srv.URL, 2).WipeData(context.Background())
	if err != nil || !res.Succeeded() {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestServerErrorWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"disk full"}`))
	}))
	defer srv.Close()

	res, err := newBackend(srv.URL, 1).SaveConfig(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Succeeded() || res.Message != "disk full" {
		t.Errorf("result = %+v", res)
	}
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newBackend(url, 1).EmergencyExit(context.Background())
	var ae *helpers.ActionError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want ActionError", err)
	}
	if msg := helpers.UserMessage(err); msg != "panic failed: backend unreachable" {
		t.Errorf("user message = %q", msg)
	}
}

func TestEmergencyExitIsSentOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newBackend(srv.URL, 3).EmergencyExit(context.Background())
	var ae *helpers.ActionError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want ActionError", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("panic posted %d times, want 1", n)
	}
}
