package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func TestTokenService(t *testing.T) {
	backend := newFakeBackend()
	backend.Get("/api/security/tokens", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tokens": []map[string]any{
			{"id": "t1", "name": "ci", "prefix": "pulse_ab", "suffix": "wxyz"},
			{"id": "t2", "name": "legacy"},
		}})
	})
	backend.Post("/api/security/regenerate-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "rotated"})
	})
	backend.Delete("/api/security/tokens/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	svc := NewTokenService(backend.client(t))

	tokens, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "pulse_ab…wxyz", tokens[0].Display)
	assert.Equal(t, "••••", tokens[1].Display)

	_, err = svc.Create(context.Background(), " ", nil)
	assert.ErrorIs(t, err, ErrNameRequired)

	raw, err := svc.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", raw)

	require.NoError(t, svc.Delete(context.Background(), "t1"))
	assert.Equal(t, 1, backend.count("DELETE /api/security/tokens/{id}"))
}

func TestBuildRows(t *testing.T) {
	now := time.UnixMilli(1700000100000)
	hosts := []pulseapi.Host{
		{ID: "b", Hostname: "zeta", Status: "online", LastSeen: pulseapi.NewTimestamp(now.Add(-10 * time.Second))},
		{ID: "a", Hostname: "alpha", Status: "online"},
	}
	revokedAt := pulseapi.NewTimestamp(now)
	hosts = append(hosts, pulseapi.Host{ID: "c", Hostname: "Mid", Status: "online",
		LastSeen: pulseapi.NewTimestamp(now), TokenRevokedAt: &revokedAt})

	rows := BuildRows(hosts, now)
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0].Host.Hostname)
	assert.Equal(t, "Mid", rows[1].Host.Hostname)
	assert.Equal(t, "zeta", rows[2].Host.Hostname)

	assert.True(t, rows[0].Staleness.IsStale)
	assert.Equal(t, "stale", rows[0].Badge.String())
	assert.Equal(t, "token revoked", rows[1].Badge.String())
	assert.Equal(t, "online", rows[2].Badge.String())
	assert.Equal(t, 80*time.Second, rows[2].UntilStale)
}
