package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	pkgredis "github.com/zauberjournal/journal-api/pkg/redis"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts     map[string]int64
	err        error
	retryAfter time.Duration
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (pkgredis.RateDecision, error) {
	if f.err != nil {
		return pkgredis.RateDecision{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	count := f.counts[scope]
	decision := pkgredis.RateDecision{Allowed: count <= limit, Count: count}
	if !decision.Allowed {
		decision.RetryAfter = f.retryAfter
	}
	return decision, nil
}

func notifyRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(`{"message":"gespeichert"}`))
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("notifications", time.Minute, 2)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, notifyRequest("1.2.3.4:5678"))

		if i < 2 {
			if rec.Code != http.StatusAccepted {
				t.Fatalf("request %d: expected 202, got %d", i, rec.Code)
			}
			if want := fmt.Sprint(1 - i); rec.Header().Get("X-RateLimit-Remaining") != want {
				t.Fatalf("request %d: expected remaining %s, got %q", i, want, rec.Header().Get("X-RateLimit-Remaining"))
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code %s", payload.Error.Code)
		}
	}

	if store.counts["notifications:ip:1.2.3.4"] != 3 {
		t.Fatalf("unexpected counters %v", store.counts)
	}
}

func TestRateLimitUsesStoreRetryAfter(t *testing.T) {
	store := newFakeRateStore()
	store.retryAfter = 1500 * time.Millisecond
	handler := RateLimit(NewRateLimitPolicy("notifications", time.Minute, 1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), notifyRequest("1.2.3.4:5678"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, notifyRequest("1.2.3.4:5678"))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After rounded up to 2, got %q", got)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                      "1",
		300 * time.Millisecond: "1",
		time.Second:            "1",
		61 * time.Second:       "61",
	}
	for in, want := range cases {
		if got := retryAfterSeconds(in); got != want {
			t.Fatalf("retryAfterSeconds(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestRateLimitCountsPerIP(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("notifications", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, notifyRequest("1.1.1.1:1"))
	second := httptest.NewRecorder()
	forwarded := notifyRequest("1.1.1.1:1")
	forwarded.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	handler.ServeHTTP(second, forwarded)

	if first.Code != http.StatusAccepted || second.Code != http.StatusAccepted {
		t.Fatalf("expected both distinct clients to pass, got %d and %d", first.Code, second.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeRateStore()
	handler := RateLimit(NewRateLimitPolicy("notifications", 0, 0), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, notifyRequest("1.2.3.4:5678"))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy should not touch the store")
	}
}

func TestRateLimitStoreFailure(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := RateLimit(NewRateLimitPolicy("notifications", time.Minute, 1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, notifyRequest("1.2.3.4:5678"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMemoryRateStoreBlocksBurst(t *testing.T) {
	store := NewMemoryRateStore()
	handler := RateLimit(NewRateLimitPolicy("notifications", time.Hour, 3), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, notifyRequest("5.6.7.8:1"))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusAccepted || codes[2] != http.StatusAccepted {
		t.Fatalf("expected first three to pass, got %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Fatalf("expected fourth to be limited, got %v", codes)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, notifyRequest("8.7.6.5:1"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("other clients keep their own bucket, got %d", rec.Code)
	}
}

func TestMemoryRateStoreRetryAfter(t *testing.T) {
	store := NewMemoryRateStore()
	clock := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := store.FixedWindowAllow(ctx, "notify:ip:a", 2, time.Minute)
		if err != nil || !decision.Allowed {
			t.Fatalf("attempt %d should pass: %+v %v", i, decision, err)
		}
	}
	decision, err := store.FixedWindowAllow(ctx, "notify:ip:a", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("third attempt should be rejected")
	}
	if decision.RetryAfter < 29*time.Second || decision.RetryAfter > 31*time.Second {
		t.Fatalf("expected about 30s until the next token, got %v", decision.RetryAfter)
	}

	clock = clock.Add(31 * time.Second)
	decision, _ = store.FixedWindowAllow(ctx, "notify:ip:a", 2, time.Minute)
	if !decision.Allowed {
		t.Fatal("a token should have refilled after 31s")
	}
}
