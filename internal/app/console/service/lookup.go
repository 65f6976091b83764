package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/strrl/pulsectl/pkg/hoststatus"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	"k8s.io/utils/clock"
)

// HighlightDuration is how long a looked-up host stays highlighted.
const HighlightDuration = 10 * time.Second

// HostLookuper resolves a hostname or host id to a reporting host agent.
type HostLookuper interface {
	LookupHost(ctx context.Context, query string) (*pulseapi.HostLookup, error)
}

// NotReportingError is returned when the lookup finds no host for Query.
type NotReportingError struct {
	Query string
}

func (e *NotReportingError) Error() string {
	return fmt.Sprintf("No host has reported with %q yet. Try again in a few seconds.", e.Query)
}

// LookupTracker runs manual host lookups and keeps the result in step with
// the live host list. A successful lookup highlights the matching row for
// HighlightDuration.
type LookupTracker struct {
	api   HostLookuper
	store livestore.Store
	clock clock.WithDelayedExecution

	mu          sync.Mutex
	result      *pulseapi.HostLookup
	message     string
	highlighted string
	timer       clock.Timer
	generation  uint64
}

// NewLookupTracker creates a LookupTracker.
func NewLookupTracker(api HostLookuper, store livestore.Store, clk clock.WithDelayedExecution) *LookupTracker {
	return &LookupTracker{
		api:   api,
		store: store,
		clock: clk,
	}
}

// Lookup asks the backend for query. An empty query fails locally with
// ErrEmptyQuery. When nothing matches, a *NotReportingError is returned and
// the current highlight is left as it is.
func (t *LookupTracker) Lookup(ctx context.Context, query string) (*pulseapi.HostLookup, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		t.setMessage(ErrEmptyQuery.Error())
		return nil, ErrEmptyQuery
	}

	result, err := t.api.LookupHost(ctx, query)
	if err != nil {
		msg := pulseapi.ErrorMessage(err, "Host lookup failed")
		slog.Warn("host lookup failed", "query", query, "error", err)
		t.setMessage(msg)
		return nil, fmt.Errorf("lookup host: %w", err)
	}
	if result == nil {
		notFound := &NotReportingError{Query: query}
		t.mu.Lock()
		t.result = nil
		t.message = notFound.Error()
		t.mu.Unlock()
		return nil, notFound
	}

	highlightID := result.ID
	if host, ok := t.liveMatch(result); ok {
		highlightID = host.ID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.result = result
	t.message = ""
	t.highlightLocked(highlightID)
	slog.Debug("host lookup matched", "query", query, "host", highlightID)

	copied := *result
	return &copied, nil
}

func (t *LookupTracker) liveMatch(result *pulseapi.HostLookup) (pulseapi.Host, bool) {
	if t.store == nil {
		return pulseapi.Host{}, false
	}
	hosts := t.store.Snapshot().Hosts
	if host, ok := livestore.FindHost(hosts, result.ID); ok {
		return host, true
	}
	if result.Hostname != "" {
		return livestore.FindHost(hosts, result.Hostname)
	}
	return pulseapi.Host{}, false
}

// highlightLocked sets the highlight and replaces any pending clear. The
// generation check keeps a superseded timer from clearing a newer highlight.
func (t *LookupTracker) highlightLocked(id string) {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.generation++
	gen := t.generation
	t.highlighted = id
	t.timer = t.clock.AfterFunc(HighlightDuration, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.generation == gen {
			t.highlighted = ""
			t.timer = nil
		}
	})
}

// Reconcile refreshes the displayed lookup fields from the live host list.
// It reports whether anything changed; nothing is written when the live
// host already matches.
func (t *LookupTracker) Reconcile(hosts []pulseapi.Host) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.result == nil {
		return false
	}
	host, ok := livestore.FindHost(hosts, t.result.ID)
	if !ok && t.result.Hostname != "" {
		host, ok = livestore.FindHost(hosts, t.result.Hostname)
	}
	if !ok {
		return false
	}

	connected := hoststatus.IsOnline(host.Status)
	agentVersion := host.AgentVersion
	if agentVersion == "" {
		agentVersion = t.result.AgentVersion
	}

	if t.result.Status == host.Status &&
		t.result.Connected == connected &&
		t.result.LastSeen.Equal(host.LastSeen.Time) &&
		t.result.AgentVersion == agentVersion {
		return false
	}

	updated := *t.result
	updated.Status = host.Status
	updated.Connected = connected
	updated.LastSeen = host.LastSeen
	updated.AgentVersion = agentVersion
	t.result = &updated
	return true
}

// Result returns the last successful lookup, if any.
func (t *LookupTracker) Result() *pulseapi.HostLookup {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result == nil {
		return nil
	}
	copied := *t.result
	return &copied
}

// Message returns the last validation, not-found or failure message.
func (t *LookupTracker) Message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message
}

// Highlighted returns the id of the highlighted host, or "".
func (t *LookupTracker) Highlighted() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highlighted
}

// Stop cancels the pending highlight clear and drops the highlight.
func (t *LookupTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.generation++
	t.highlighted = ""
}

func (t *LookupTracker) setMessage(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = msg
}
