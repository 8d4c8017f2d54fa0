package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoster_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v", body["k"])
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	p := NewPoster("test", srv.URL, nil, time.Second, 2)
	p.Backoff = time.Millisecond

	require.NoError(t, p.PostJSON(context.Background(), map[string]string{"k": "v"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPoster_ReturnsLastFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, strings.Repeat("x", 4<<10), http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	p := NewPoster("test", srv.URL, nil, 0, 1)
	p.Backoff = time.Millisecond

	err := p.PostJSON(context.Background(), struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Less(t, len(err.Error()), 3<<10)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPoster_StopsOnContextDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p := NewPoster("test", srv.URL, nil, time.Second, 5)
	p.Backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.PostJSON(ctx, struct{}{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoster_UnencodablePayload(t *testing.T) {
	p := NewPoster("test", "http://127.0.0.1:1", nil, 0, 0)
	require.ErrorContains(t, p.PostJSON(context.Background(), func() {}), "encode test payload")
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "b", Fallback("  ", "b"))
	assert.Equal(t, "a", Fallback("a", "b"))
}
