package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func newGuestBackend() *fakeBackend {
	b := newFakeBackend()
	b.Get("/api/guests/metadata/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pulseapi.GuestMetadata{ID: chi.URLParam(r, "id"), Description: "db primary"})
	})
	b.Put("/api/guests/metadata/{id}", func(w http.ResponseWriter, r *http.Request) {
		var md pulseapi.GuestMetadata
		_ = decodeBody(r, &md)
		writeJSON(w, http.StatusOK, md)
	})
	return b
}

func TestGuestService_Metadata(t *testing.T) {
	b := newGuestBackend()
	svc := NewGuestService(b.client(t))

	md, err := svc.Metadata(context.Background(), "pve1:100")
	require.NoError(t, err)
	assert.Equal(t, "pve1:100", md.ID)
	assert.Equal(t, "db primary", md.Description)
}

func TestGuestService_SetMetadata(t *testing.T) {
	b := newGuestBackend()
	svc := NewGuestService(b.client(t))

	md, err := svc.SetMetadata(context.Background(), pulseapi.GuestMetadata{
		ID:        " pve1:100 ",
		CustomURL: " https://grafana.example.com/d/db ",
		Tags:      []string{"prod"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pve1:100", md.ID)
	assert.Equal(t, "https://grafana.example.com/d/db", md.CustomURL)
	assert.Equal(t, []string{"prod"}, md.Tags)
	assert.Equal(t, 1, b.count("PUT /api/guests/metadata/{id}"))
}

func TestGuestService_SetMetadataValidation(t *testing.T) {
	b := newGuestBackend()
	svc := NewGuestService(b.client(t))

	_, err := svc.SetMetadata(context.Background(), pulseapi.GuestMetadata{CustomURL: "ftp://files"})
	require.Error(t, err)

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "Guest ID is required", fieldErrs["id"])
	assert.Equal(t, "Custom URL must be an http(s) URL", fieldErrs["customUrl"])
	assert.Zero(t, b.total())
}
