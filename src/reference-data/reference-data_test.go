package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"go.uber.org/zap"
)

func TestRefreshReplacesOperators(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tocListPath || r.Header.Get("x-apikey") != "secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		// first call fails to exercise the retry
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"version":"1","TOCList":[{"toc":"LM","Value":"London Midland"},{"toc":" LE ","Value":"Greater Anglia"},{"toc":"","Value":"nobody"}]}`))
	}))
	defer srv.Close()

	store := data.NewMemoryStore()
	r := &refresher{
		cfg:    config.ReferenceConfig{URL: srv.URL + "/", APIKey: "secret", Interval: time.Hour},
		client: srv.Client(),
		store:  store,
		logger: zap.NewNop().Sugar(),
	}
	ctx := context.Background()
	if err := r.refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("made %d calls, want 2", calls.Load())
	}
	for code, want := range map[string]string{"LM": "London Midland", "LE": "Greater Anglia"} {
		op, err := store.OperatorByCode(ctx, code)
		if err != nil || op.Name != want {
			t.Errorf("%s: %+v %v", code, op, err)
		}
	}
}

func TestRefreshKeepsListOnBadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r := &refresher{
		cfg:    config.ReferenceConfig{URL: srv.URL, Interval: time.Hour},
		client: srv.Client(),
		store:  data.NewMemoryStore(),
		logger: zap.NewNop().Sugar(),
	}
	if err := r.refresh(ctx); err == nil {
		t.Error("expected an error")
	}
}
