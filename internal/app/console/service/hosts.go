package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/strrl/pulsectl/pkg/hoststatus"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// HostsAPI is the subset of the API used to manage host agents.
type HostsAPI interface {
	GetHost(ctx context.Context, id string) (*pulseapi.Host, error)
	UpdateHost(ctx context.Context, id string, patch pulseapi.HostPatch) error
}

// HostRow is a host with its derived display state.
type HostRow struct {
	Host       pulseapi.Host
	Status     hoststatus.Status
	Badge      hoststatus.Badge
	Staleness  hoststatus.Staleness
	UntilStale time.Duration
}

// HostsService lists host agents from the live store and edits their settings.
type HostsService struct {
	api   HostsAPI
	store livestore.Store
}

// NewHostsService creates a new HostsService.
func NewHostsService(api HostsAPI, store livestore.Store) *HostsService {
	return &HostsService{api: api, store: store}
}

// Rows derives the display state of every live host at now, sorted by name.
func (s *HostsService) Rows(now time.Time) []HostRow {
	return BuildRows(s.store.Snapshot().Hosts, now)
}

// BuildRows derives the display state of hosts at now, sorted by name.
func BuildRows(hosts []pulseapi.Host, now time.Time) []HostRow {
	rows := make([]HostRow, len(hosts))
	for i, h := range hosts {
		rows[i] = HostRow{
			Host:       h,
			Status:     hoststatus.Classify(h.Status),
			Badge:      hoststatus.DeriveBadge(h, now),
			Staleness:  hoststatus.ComputeStaleness(h, now),
			UntilStale: hoststatus.UntilStale(h, now),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Host.Name()) < strings.ToLower(rows[j].Host.Name())
	})
	return rows
}

// Find returns the live host with the given id or hostname.
func (s *HostsService) Find(key string) (pulseapi.Host, bool) {
	return livestore.FindHost(s.store.Snapshot().Hosts, key)
}

// Get fetches a host from the backend.
func (s *HostsService) Get(ctx context.Context, id string) (*pulseapi.Host, error) {
	return s.api.GetHost(ctx, id)
}

// Update changes a host's display name and tags. Tags are trimmed and empty
// ones dropped.
func (s *HostsService) Update(ctx context.Context, id string, patch pulseapi.HostPatch) error {
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		patch.DisplayName = &name
	}
	if patch.Tags != nil {
		tags := make([]string, 0, len(patch.Tags))
		for _, tag := range patch.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		patch.Tags = tags
	}
	return s.api.UpdateHost(ctx, id, patch)
}
