// Package tui implements the interactive host watch: a live host table with
// lookup and the guarded removal dialog.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	"k8s.io/utils/clock"
)

const refreshInterval = time.Second

type mode int

const (
	modeBrowse mode = iota
	modeLookup
	modeRemove
)

type (
	stateMsg       pulseapi.State
	storeClosedMsg struct{}
	tickMsg        time.Time
	lookupDoneMsg  struct{ err error }
	removeDoneMsg  struct{ err error }
)

// Deps are the collaborators of the watch model.
type Deps struct {
	Store    livestore.Store
	Tracker  *service.LookupTracker
	Removal  *service.RemovalFlow
	Recorder *notify.Recorder
	Clock    clock.PassiveClock
}

// Model is the bubbletea model of the host watch.
type Model struct {
	ctx      context.Context
	store    livestore.Store
	tracker  *service.LookupTracker
	removal  *service.RemovalFlow
	recorder *notify.Recorder
	clock    clock.PassiveClock
	styles   styles

	updates <-chan pulseapi.State
	cancel  func()

	input  textinput.Model
	mode   mode
	rows   []service.HostRow
	cursor int
	status string
	err    error
}

// New creates the watch model. Call Close once the program exits.
func New(ctx context.Context, deps Deps) *Model {
	ti := textinput.New()
	ti.Placeholder = "hostname or host ID"
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaForeground))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))

	updates, cancel := deps.Store.Subscribe()
	m := &Model{
		ctx:      ctx,
		store:    deps.Store,
		tracker:  deps.Tracker,
		removal:  deps.Removal,
		recorder: deps.Recorder,
		clock:    deps.Clock,
		styles:   newStyles(),
		updates:  updates,
		cancel:   cancel,
		input:    ti,
	}
	m.refresh()
	return m
}

// Close releases the store subscription and the highlight timer.
func (m *Model) Close() {
	m.cancel()
	m.tracker.Stop()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), tick())
}

func waitForState(ch <-chan pulseapi.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return storeClosedMsg{}
		}
		return stateMsg(state)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.refresh()
		m.tracker.Reconcile(pulseapi.State(msg).Hosts)
		return m, waitForState(m.updates)
	case storeClosedMsg:
		m.status = "Live connection closed"
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tick()
	case lookupDoneMsg:
		m.mode = modeBrowse
		m.input.Blur()
		if msg.err != nil {
			m.err = errors.New(m.tracker.Message())
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.moveToHighlight()
		return m, nil
	case removeDoneMsg:
		m.status = ""
		m.err = nil
		if msg.err == nil {
			m.mode = modeBrowse
			m.status = m.lastToast()
		} else {
			m.err = m.toastError(msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeLookup {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.mode {
	case modeLookup:
		return m.handleLookupKey(msg)
	case modeRemove:
		return m.handleRemoveKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "/":
		m.mode = modeLookup
		m.input.SetValue("")
		return m, m.input.Focus()
	case "x", "delete":
		if row, ok := m.selected(); ok {
			m.removal.Open(row.Host)
			m.mode = modeRemove
			m.err = nil
			m.status = ""
		}
	}
	return m, nil
}

func (m *Model) handleLookupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		query := m.input.Value()
		return m, func() tea.Msg {
			_, err := m.tracker.Lookup(m.ctx, query)
			return lookupDoneMsg{err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleRemoveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.removal.State() == service.RemovalRemoving {
		return m, nil
	}

	switch msg.String() {
	case "esc", "q":
		m.removal.Close()
		m.mode = modeBrowse
		m.err = nil
	case "c":
		m.status = ""
		if err := m.removal.CopyUninstall(); err != nil {
			m.err = m.toastError(err)
			return m, nil
		}
		m.err = nil
		m.status = m.lastToast()
	case "m":
		m.err = m.removal.MarkCopied()
	case "y":
		if m.removal.Confirmed() {
			m.removal.Unconfirm()
			return m, nil
		}
		m.err = m.removal.Confirm()
	case "d":
		if !m.removal.CanRemove() {
			m.err = service.ErrNotRemovable
			return m, nil
		}
		return m, func() tea.Msg {
			return removeDoneMsg{err: m.removal.Remove(m.ctx)}
		}
	}
	return m, nil
}

func (m *Model) refresh() {
	m.rows = service.BuildRows(m.store.Snapshot().Hosts, m.clock.Now())
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m *Model) selected() (service.HostRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return service.HostRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) moveToHighlight() {
	id := m.tracker.Highlighted()
	for i, row := range m.rows {
		if row.Host.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *Model) lastToast() string {
	if m.recorder == nil {
		return ""
	}
	if t, ok := m.recorder.Last(); ok {
		return t.Message
	}
	return ""
}

// toastError prefers the message already shown as a toast over the wrapped error.
func (m *Model) toastError(err error) error {
	if service.Notified(err) {
		if msg := m.lastToast(); msg != "" {
			return errors.New(msg)
		}
	}
	return err
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Host agents") + "\n\n")
	b.WriteString(m.styles.header.Render(fmt.Sprintf("  %-28s %-14s %-12s %s", "NAME", "BADGE", "LAST SEEN", "PLATFORM")) + "\n")

	if len(m.rows) == 0 {
		b.WriteString(m.styles.help.Render("  No host agents have reported yet.") + "\n")
	}

	highlighted := m.tracker.Highlighted()
	now := m.clock.Now()
	for i, row := range m.rows {
		line := fmt.Sprintf("%-28s %s %-12s %s",
			truncate(row.Host.Name(), 28),
			m.styles.badges[row.Badge].Render(fmt.Sprintf("%-14s", row.Badge)),
			lastSeen(row.Host, now),
			row.Host.Platform,
		)
		switch {
		case i == m.cursor:
			line = m.styles.selected.Render("> " + line)
		case row.Host.ID == highlighted:
			line = m.styles.highlight.Render("* " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if result := m.tracker.Result(); result != nil {
		connected := "disconnected"
		if result.Connected {
			connected = "connected"
		}
		fmt.Fprintf(&b, "\nLookup: %s (%s) %s, %s, agent %s\n",
			result.Hostname, result.ID, result.Status, connected, orDash(result.AgentVersion))
	}

	switch m.mode {
	case modeLookup:
		b.WriteString("\n" + m.input.View() + "\n")
		b.WriteString(m.styles.help.Render("enter: look up • esc: cancel") + "\n")
	case modeRemove:
		b.WriteString("\n" + m.removalView() + "\n")
	default:
		b.WriteString("\n" + m.styles.help.Render("↑/↓: move • /: look up • x: remove • q: quit") + "\n")
	}

	if m.err != nil {
		b.WriteString(m.styles.error.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(m.styles.success.Render(m.status) + "\n")
	}
	return b.String()
}

func (m *Model) removalView() string {
	var b strings.Builder
	host := m.removal.Host()

	fmt.Fprintf(&b, "Remove %s\n\n", host.Name())
	b.WriteString("Removing a host revokes its API token right away. Uninstall the agent first:\n\n")
	b.WriteString(m.styles.command.Render(m.removal.Command()) + "\n\n")

	copied := "[ ] c: copy uninstall command (m: mark as copied)"
	if m.removal.Copied() {
		copied = "[x] uninstall command copied " + m.removal.CopiedAgo()
	}
	confirmed := "[ ] y: I ran the uninstall command on the host"
	if m.removal.Confirmed() {
		confirmed = "[x] uninstall confirmed"
	}
	b.WriteString(copied + "\n" + confirmed + "\n\n")

	if remaining, ok := m.removal.Countdown(m.store.Snapshot().Hosts); ok {
		if remaining > 0 {
			fmt.Fprintf(&b, "Expected to go stale in %s\n", remaining.Round(time.Second))
		} else {
			b.WriteString(m.styles.hint.Render("Host is stale. The agent has stopped reporting.") + "\n")
		}
	}

	switch m.removal.State() {
	case service.RemovalRemoving:
		b.WriteString(m.styles.hint.Render("Removing...") + "\n")
	case service.RemovalRemovable:
		b.WriteString(m.styles.error.Render("d: remove host") + " • esc: cancel\n")
	default:
		b.WriteString(m.styles.help.Render("d: remove host (copy and confirm first) • esc: cancel") + "\n")
	}

	return m.styles.dialog.Render(b.String())
}

func lastSeen(host pulseapi.Host, now time.Time) string {
	if !host.LastSeen.Valid() {
		return "never"
	}
	d := now.Sub(host.LastSeen.Time).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String() + " ago"
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
