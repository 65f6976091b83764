package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	testingclock "k8s.io/utils/clock/testing"
)

type stubLookup struct {
	result *pulseapi.HostLookup
	err    error
}

func (s *stubLookup) LookupHost(ctx context.Context, query string) (*pulseapi.HostLookup, error) {
	return s.result, s.err
}

type stubDeleter struct {
	err   error
	calls []string
}

func (s *stubDeleter) DeleteHost(ctx context.Context, id string) error {
	s.calls = append(s.calls, id)
	return s.err
}

type stubClipboard struct {
	text string
}

func (s *stubClipboard) WriteAll(text string) error {
	s.text = text
	return nil
}

type fixture struct {
	model     *Model
	store     *livestore.Static
	clock     *testingclock.FakeClock
	lookup    *stubLookup
	deleter   *stubDeleter
	clipboard *stubClipboard
	recorder  *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clk := testingclock.NewFakeClock(now)
	store := livestore.NewStatic(pulseapi.State{Hosts: []pulseapi.Host{
		{ID: "h2", Hostname: "web-02", Status: "online", Platform: "linux", LastSeen: pulseapi.NewTimestamp(now), IntervalSeconds: 30},
		{ID: "h1", Hostname: "web-01", Status: "online", Platform: "linux", LastSeen: pulseapi.NewTimestamp(now), IntervalSeconds: 30},
	}})

	f := &fixture{
		store:     store,
		clock:     clk,
		lookup:    &stubLookup{},
		deleter:   &stubDeleter{},
		clipboard: &stubClipboard{},
		recorder:  &notify.Recorder{},
	}
	f.model = New(context.Background(), Deps{
		Store:    store,
		Tracker:  service.NewLookupTracker(f.lookup, store, clk),
		Removal:  service.NewRemovalFlow(f.deleter, f.clipboard, f.recorder, clk, "https://pulse.example.com"),
		Recorder: f.recorder,
		Clock:    clk,
	})
	t.Cleanup(f.model.Close)
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	_, cmd := f.model.Update(msg)
	return cmd
}

// press sends a key. For the keys that start API calls the returned command
// is run and its result fed back.
func (f *fixture) press(key string) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	cmd := f.send(msg)
	if cmd == nil || (key != "enter" && key != "d") {
		return
	}
	switch out := cmd().(type) {
	case lookupDoneMsg, removeDoneMsg:
		f.send(out)
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_RowsSortedAndRefreshed(t *testing.T) {
	f := newFixture(t)

	require.Len(t, f.model.rows, 2)
	assert.Equal(t, "web-01", f.model.rows[0].Host.Hostname)
	assert.Equal(t, "web-02", f.model.rows[1].Host.Hostname)

	f.clock.Step(90 * time.Second)
	f.send(tickMsg(f.clock.Now()))
	assert.Contains(t, f.model.View(), "stale")

	state := pulseapi.State{Hosts: []pulseapi.Host{{ID: "h3", Hostname: "db-01", Status: "online", LastSeen: pulseapi.NewTimestamp(f.clock.Now())}}}
	f.store.Set(state)
	f.send(stateMsg(state))
	require.Len(t, f.model.rows, 1)
	assert.Equal(t, 0, f.model.cursor)
	assert.Contains(t, f.model.View(), "db-01")
}

func TestModel_LookupHighlightsAndSelects(t *testing.T) {
	f := newFixture(t)
	f.lookup.result = &pulseapi.HostLookup{ID: "h2", Hostname: "web-02", Status: "online", Connected: true}

	f.press("/")
	assert.Equal(t, modeLookup, f.model.mode)
	f.model.input.SetValue("web-02")
	f.press("enter")

	assert.Equal(t, modeBrowse, f.model.mode)
	assert.Equal(t, "h2", f.model.tracker.Highlighted())
	assert.Equal(t, 1, f.model.cursor)
	assert.Contains(t, f.model.View(), "Lookup: web-02 (h2) online, connected")

	f.clock.Step(service.HighlightDuration)
	assert.Empty(t, f.model.tracker.Highlighted())
}

func TestModel_LookupNotReporting(t *testing.T) {
	f := newFixture(t)

	f.press("/")
	f.model.input.SetValue("ghost")
	f.press("enter")

	require.Error(t, f.model.err)
	assert.Contains(t, f.model.View(), `No host has reported with "ghost" yet.`)
}

func TestModel_LookupEscCancels(t *testing.T) {
	f := newFixture(t)

	f.press("/")
	f.press("esc")
	assert.Equal(t, modeBrowse, f.model.mode)
}

func TestModel_RemovalRequiresCopyAndConfirm(t *testing.T) {
	f := newFixture(t)

	f.press("x")
	require.Equal(t, modeRemove, f.model.mode)
	assert.Equal(t, "h1", f.model.removal.Host().ID)

	f.press("d")
	assert.ErrorIs(t, f.model.err, service.ErrNotRemovable)
	assert.Empty(t, f.deleter.calls)

	f.press("y")
	assert.ErrorIs(t, f.model.err, service.ErrCopyFirst)

	f.press("c")
	assert.Equal(t, f.model.removal.Command(), f.clipboard.text)
	assert.Contains(t, f.clipboard.text, "https://pulse.example.com")

	f.press("y")
	assert.Equal(t, service.RemovalRemovable, f.model.removal.State())
	assert.Contains(t, f.model.View(), "d: remove host")

	f.press("d")
	assert.Equal(t, []string{"h1"}, f.deleter.calls)
	assert.Equal(t, modeBrowse, f.model.mode)
	assert.NoError(t, f.model.err)
	assert.Contains(t, f.model.status, "Host web-01 removed.")
}

func TestModel_RemovalFailureStaysOpen(t *testing.T) {
	f := newFixture(t)
	f.deleter.err = errors.New("backend unavailable")

	f.press("x")
	f.press("c")
	f.press("y")
	f.press("d")

	assert.Equal(t, modeRemove, f.model.mode)
	assert.Equal(t, service.RemovalRemovable, f.model.removal.State())
	require.Error(t, f.model.err)
	assert.Equal(t, "backend unavailable", f.model.err.Error())
}

func TestModel_RemovalCountdown(t *testing.T) {
	f := newFixture(t)

	f.press("x")
	assert.Contains(t, f.model.View(), "Expected to go stale in 1m30s")

	f.clock.Step(90 * time.Second)
	assert.Contains(t, f.model.View(), "Host is stale.")

	f.press("esc")
	assert.Equal(t, modeBrowse, f.model.mode)
	assert.Equal(t, service.RemovalClosed, f.model.removal.State())
}

func TestModel_Quit(t *testing.T) {
	f := newFixture(t)

	cmd := f.send(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
