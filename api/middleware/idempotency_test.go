package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
)

type memoryReplayStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryReplayStore() *memoryReplayStore {
	return &memoryReplayStore{data: map[string]string{}}
}

func (s *memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memoryReplayStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value.(string)
	return nil
}

func (s *memoryReplayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *memoryReplayStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memoryReplayStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func replayRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users", strings.NewReader(body))
	req = req.WithContext(WithIdentity(req.Context(), 7, "admin", enums.RoleAdmin))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	handler := Idempotency(store, time.Hour, 1<<20, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, replayRequest("k1", `"Ca.9"`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, replayRequest("k1", `"Ca.9"`))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotencyRejections(t *testing.T) {
	store := newMemoryReplayStore()
	handler := Idempotency(store, time.Hour, 16, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"missing key", replayRequest("", `{}`), http.StatusBadRequest},
		{"oversized key", replayRequest(strings.Repeat("k", maxIdempotencyKeyLen+1), `{}`), http.StatusBadRequest},
		{"body too large", replayRequest("big", strings.Repeat("x", 64)), http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tc.req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, replayRequest("k2", `{"a":1}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, replayRequest("k2", `{"a":2}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeConflict))
}

func TestIdempotencyKeyIsScopedToCaller(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	handler := Idempotency(store, time.Hour, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), replayRequest("shared", `{}`))
	other := replayRequest("shared", `{}`)
	other = other.WithContext(WithIdentity(other.Context(), 8, "admin2", enums.RoleAdmin))
	handler.ServeHTTP(httptest.NewRecorder(), other)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyInFlightDuplicateConflicts(t *testing.T) {
	store := newMemoryReplayStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := Idempotency(store, time.Hour, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, replayRequest("slow", `{}`))
		done <- rec.Code
	}()
	<-entered

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, replayRequest("slow", `{}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	assert.Equal(t, http.StatusCreated, <-done)
}

func TestIdempotencyReleasesClaimAfterPanic(t *testing.T) {
	store := newMemoryReplayStore()
	panicking := true
	handler := Idempotency(store, time.Hour, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if panicking {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	func() {
		defer func() { _ = recover() }()
		handler.ServeHTTP(httptest.NewRecorder(), replayRequest("retry", `{}`))
	}()

	panicking = false
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, replayRequest("retry", `{}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIdempotencyWithoutStorePassesThrough(t *testing.T) {
	calls := 0
	handler := Idempotency(nil, 0, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	handler.ServeHTTP(httptest.NewRecorder(), replayRequest("", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), replayRequest("", `{}`))
	assert.Equal(t, 2, calls)
}
