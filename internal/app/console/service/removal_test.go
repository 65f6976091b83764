package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/pkg/agentcmd"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	testingclock "k8s.io/utils/clock/testing"
)

const deleteHostRoute = "DELETE /api/agents/host/{id}"

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func newTestRemovalFlow(t *testing.T, deleteStatus int) (*RemovalFlow, *fakeBackend, *memClipboard, *notify.Recorder, *testingclock.FakeClock) {
	t.Helper()
	backend := newFakeBackend()
	backend.Delete("/api/agents/host/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deleteStatus != http.StatusNoContent {
			writeJSON(w, deleteStatus, map[string]string{"error": "host " + chi.URLParam(r, "id") + " is locked"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	cb := &memClipboard{}
	rec := &notify.Recorder{}
	clk := testingclock.NewFakeClock(time.UnixMilli(1700000000000))
	flow := NewRemovalFlow(backend.client(t), cb, rec, clk, "https://pulse.example.com")
	return flow, backend, cb, rec, clk
}

func TestRemovalFlow_RemoveEnabledOnlyWhenCopiedAndConfirmed(t *testing.T) {
	tests := []struct {
		copied, confirmed bool
		want              bool
	}{
		{copied: false, confirmed: false, want: false},
		{copied: true, confirmed: false, want: false},
		{copied: false, confirmed: true, want: false},
		{copied: true, confirmed: true, want: true},
	}

	for _, tt := range tests {
		flow, _, _, _, _ := newTestRemovalFlow(t, http.StatusNoContent)
		flow.Open(pulseapi.Host{ID: "h1", Hostname: "web-01", Status: "online"})
		flow.copied = tt.copied
		flow.confirmed = tt.confirmed

		assert.Equal(t, tt.want, flow.CanRemove(), "copied=%v confirmed=%v", tt.copied, tt.confirmed)
		if tt.want {
			assert.Equal(t, RemovalRemovable, flow.State())
		} else {
			assert.Equal(t, RemovalOpened, flow.State())
		}
	}
}

func TestRemovalFlow_StalenessDoesNotGateRemove(t *testing.T) {
	flow, _, _, _, _ := newTestRemovalFlow(t, http.StatusNoContent)
	// never reported, so stale
	flow.Open(pulseapi.Host{ID: "h1", Hostname: "web-01"})
	assert.False(t, flow.CanRemove())
	assert.ErrorIs(t, flow.Remove(context.Background()), ErrNotRemovable)
}

func TestRemovalFlow_ConfirmRequiresCopy(t *testing.T) {
	flow, _, cb, rec, clk := newTestRemovalFlow(t, http.StatusNoContent)

	assert.ErrorIs(t, flow.CopyUninstall(), ErrNoHostSelected)

	flow.Open(pulseapi.Host{ID: "h1", Hostname: "mac-01", Platform: "Darwin"})
	assert.ErrorIs(t, flow.Confirm(), ErrCopyFirst)
	assert.False(t, flow.Confirmed())

	require.NoError(t, flow.CopyUninstall())
	assert.Equal(t, agentcmd.MacOS, flow.Platform())
	assert.Equal(t, agentcmd.Uninstall(agentcmd.MacOS, "https://pulse.example.com"), cb.text)
	assert.Equal(t, "just now", flow.CopiedAgo())

	clk.Step(90 * time.Second)
	assert.Equal(t, "1m ago", flow.CopiedAgo())

	require.NoError(t, flow.Confirm())
	assert.True(t, flow.CanRemove())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, last.Level)
}

func TestRemovalFlow_OpenResetsSteps(t *testing.T) {
	flow, _, _, _, _ := newTestRemovalFlow(t, http.StatusNoContent)
	flow.Open(pulseapi.Host{ID: "h1"})
	require.NoError(t, flow.CopyUninstall())
	require.NoError(t, flow.Confirm())

	flow.Open(pulseapi.Host{ID: "h2", Platform: "windows"})
	assert.False(t, flow.Copied())
	assert.False(t, flow.Confirmed())
	assert.Equal(t, "h2", flow.Host().ID)
	assert.Equal(t, agentcmd.Windows, flow.Platform())
}

func TestRemovalFlow_UnknownPlatformFallsBackToLinux(t *testing.T) {
	flow, _, _, _, _ := newTestRemovalFlow(t, http.StatusNoContent)
	flow.Open(pulseapi.Host{ID: "h1", Platform: "plan9"})
	assert.Equal(t, agentcmd.Linux, flow.Platform())
	assert.Contains(t, flow.Command(), "--uninstall")
}

func TestRemovalFlow_RemoveSuccess(t *testing.T) {
	flow, backend, _, rec, _ := newTestRemovalFlow(t, http.StatusNoContent)
	flow.Open(pulseapi.Host{ID: "h1", Hostname: "web-01"})
	require.NoError(t, flow.CopyUninstall())
	require.NoError(t, flow.Confirm())

	require.NoError(t, flow.Remove(context.Background()))
	assert.Equal(t, 1, backend.count(deleteHostRoute))
	assert.Equal(t, RemovalClosed, flow.State())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, last.Level)
	assert.Contains(t, last.Message, "web-01")
}

func TestRemovalFlow_RemoveFailureReturnsToRemovable(t *testing.T) {
	flow, backend, _, rec, _ := newTestRemovalFlow(t, http.StatusConflict)
	flow.Open(pulseapi.Host{ID: "h1", Hostname: "web-01"})
	require.NoError(t, flow.CopyUninstall())
	require.NoError(t, flow.Confirm())

	err := flow.Remove(context.Background())
	require.Error(t, err)
	assert.True(t, Notified(err))
	var apiErr *pulseapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, 1, backend.count(deleteHostRoute))
	assert.Equal(t, RemovalRemovable, flow.State())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Toast{Level: notify.LevelError, Message: "host h1 is locked"}, last)
}

func TestRemovalFlow_CopyFailure(t *testing.T) {
	flow, _, cb, rec, _ := newTestRemovalFlow(t, http.StatusNoContent)
	cb.err = errors.New("no clipboard")
	flow.Open(pulseapi.Host{ID: "h1"})

	err := flow.CopyUninstall()
	require.Error(t, err)
	assert.False(t, flow.Copied())
	last, _ := rec.Last()
	assert.Equal(t, notify.LevelError, last.Level)

	require.NoError(t, flow.MarkCopied())
	require.NoError(t, flow.Confirm())
	assert.True(t, flow.CanRemove())
}

func TestRemovalFlow_Countdown(t *testing.T) {
	flow, _, _, _, clk := newTestRemovalFlow(t, http.StatusNoContent)
	now := clk.Now()
	host := pulseapi.Host{ID: "h1", IntervalSeconds: 30, LastSeen: pulseapi.NewTimestamp(now.Add(-30 * time.Second))}
	flow.Open(host)

	remaining, ok := flow.Countdown([]pulseapi.Host{host})
	require.True(t, ok)
	assert.Equal(t, 60*time.Second, remaining)

	clk.Step(61 * time.Second)
	remaining, ok = flow.Countdown([]pulseapi.Host{host})
	require.True(t, ok)
	assert.Zero(t, remaining)

	_, ok = flow.Countdown(nil)
	assert.False(t, ok, "a host gone from the live list has no countdown")
}
