package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// fakeBackend is a chi router standing in for the dashboard API. It counts
// requests per route pattern.
type fakeBackend struct {
	chi.Router

	mu    sync.Mutex
	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{Router: chi.NewRouter(), calls: map[string]int{}}
	b.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			b.mu.Lock()
			b.calls[r.Method+" "+pattern]++
			b.mu.Unlock()
		})
	})
	return b
}

func (b *fakeBackend) client(t *testing.T) *pulseapi.Client {
	t.Helper()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	return pulseapi.NewClient(server.URL, pulseapi.WithToken("test-token"))
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
