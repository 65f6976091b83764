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

func newOrgBackend(billingStatus int) *fakeBackend {
	b := newFakeBackend()
	b.Route("/api/orgs/{orgID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, pulseapi.Organization{ID: chi.URLParam(r, "orgID"), DisplayName: "Acme"})
		})
		r.Put("/", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				DisplayName string `json:"displayName"`
			}
			_ = decodeBody(r, &body)
			writeJSON(w, http.StatusOK, pulseapi.Organization{ID: chi.URLParam(r, "orgID"), DisplayName: body.DisplayName})
		})
		r.Get("/members", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []pulseapi.Member{{UserID: "alice", Role: "owner"}, {UserID: "bob", Role: "viewer"}})
		})
		r.Post("/members", func(w http.ResponseWriter, r *http.Request) {
			var m pulseapi.Member
			_ = decodeBody(r, &m)
			writeJSON(w, http.StatusCreated, m)
		})
		r.Get("/billing", func(w http.ResponseWriter, r *http.Request) {
			if billingStatus != http.StatusOK {
				writeJSON(w, billingStatus, map[string]string{"error": "billing unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, pulseapi.BillingStatus{Plan: "pro", Status: "active", HostLimit: 50, HostsUsed: 3})
		})
		r.Get("/shares", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []pulseapi.Share{{ID: "s1", SourceOrgID: "acme", TargetOrgID: "globex"}})
		})
		r.Get("/shares/incoming", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []pulseapi.Share{{ID: "s2", SourceOrgID: "globex", TargetOrgID: "acme"}})
		})
		r.Delete("/shares/{shareID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return b
}

func TestOrgService_Overview(t *testing.T) {
	backend := newOrgBackend(http.StatusOK)
	svc := NewOrgService(backend.client(t))

	overview, err := svc.Overview(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", overview.Organization.DisplayName)
	assert.Len(t, overview.Members, 2)
	assert.Equal(t, "pro", overview.Billing.Plan)
}

func TestOrgService_OverviewSurfacesFailure(t *testing.T) {
	backend := newOrgBackend(http.StatusServiceUnavailable)
	svc := NewOrgService(backend.client(t))

	_, err := svc.Overview(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get billing status")
	assert.Equal(t, "billing unavailable", pulseapi.ErrorMessage(err, ""))
}

func TestOrgService_Rename(t *testing.T) {
	backend := newOrgBackend(http.StatusOK)
	svc := NewOrgService(backend.client(t))

	_, err := svc.Rename(context.Background(), "acme", "  ")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, backend.total())

	org, err := svc.Rename(context.Background(), "acme", " Acme Corp ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.DisplayName)
}

func TestOrgService_AddMember(t *testing.T) {
	backend := newOrgBackend(http.StatusOK)
	svc := NewOrgService(backend.client(t))

	_, err := svc.AddMember(context.Background(), "acme", "", "superuser")
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
	assert.Zero(t, backend.total())

	member, err := svc.AddMember(context.Background(), "acme", "carol", "Editor")
	require.NoError(t, err)
	assert.Equal(t, "carol", member.UserID)
	assert.Equal(t, "editor", member.Role)
}

func TestOrgService_SharesAreFetchedIndependently(t *testing.T) {
	backend := newOrgBackend(http.StatusOK)
	svc := NewOrgService(backend.client(t))

	outgoing, err := svc.Shares(context.Background(), "acme")
	require.NoError(t, err)
	incoming, err := svc.IncomingShares(context.Background(), "acme")
	require.NoError(t, err)

	require.Len(t, outgoing, 1)
	require.Len(t, incoming, 1)
	assert.Equal(t, "globex", outgoing[0].TargetOrgID)
	assert.Equal(t, "globex", incoming[0].SourceOrgID)

	require.NoError(t, svc.DeleteShare(context.Background(), "acme", "s1"))
	assert.Equal(t, 1, backend.count("DELETE /api/orgs/{orgID}/shares/{shareID}"))
}
