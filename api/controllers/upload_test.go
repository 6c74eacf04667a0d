package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-incentives/incentives-backend/api/middleware"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

type replayStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *replayStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (s *replayStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value.(string)
	return nil
}

func (s *replayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *replayStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *replayStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func TestAdminUploadEventsRetryIsNotIngestedTwice(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("csv_file", "picks_0108.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, eventsCSV)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	send := func(handler http.Handler, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Idempotency-Key", key)
		req = req.WithContext(middleware.WithIdentity(req.Context(), 1, "admin", enums.RoleAdmin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	svc := &stubItems{}
	store := &replayStore{data: map[string]string{}}
	handler := middleware.Idempotency(store, time.Hour, 1<<20, nil)(AdminUploadEvents(svc, 1<<20, nil))

	first := send(handler, "upload-0108")
	retry := send(handler, "upload-0108")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, 1, svc.ingestCalls)
	assert.Equal(t, first.Body.String(), retry.Body.String())

	var result items.IngestResult
	decodeData(t, retry.Body.Bytes(), &result)
	assert.Equal(t, 2, result.RowsInserted)

	again := send(handler, "upload-0108-again")
	require.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, 2, svc.ingestCalls, "a new key is a deliberate re-upload")
}
