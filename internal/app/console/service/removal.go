package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/strrl/pulsectl/pkg/agentcmd"
	"github.com/strrl/pulsectl/pkg/hoststatus"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	"k8s.io/utils/clock"
)

// HostDeleter removes host agents.
type HostDeleter interface {
	DeleteHost(ctx context.Context, id string) error
}

// Clipboard receives copied commands.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// RemovalState is the step the removal dialog is in.
type RemovalState int

const (
	RemovalClosed RemovalState = iota
	RemovalOpened
	RemovalRemovable
	RemovalRemoving
)

func (s RemovalState) String() string {
	switch s {
	case RemovalOpened:
		return "opened"
	case RemovalRemovable:
		return "removable"
	case RemovalRemoving:
		return "removing"
	default:
		return "closed"
	}
}

// RemovalFlow walks an operator through uninstalling a host agent before its
// record can be deleted. Deleting revokes the host's token right away, so the
// delete stays disabled until the uninstall command was copied and the
// operator confirmed running it.
type RemovalFlow struct {
	api       HostDeleter
	clipboard Clipboard
	notifier  notify.Notifier
	clock     clock.PassiveClock
	baseURL   string

	mu        sync.Mutex
	open      bool
	removing  bool
	host      pulseapi.Host
	platform  agentcmd.Platform
	command   string
	copied    bool
	confirmed bool
	copiedAt  time.Time
}

// NewRemovalFlow creates a RemovalFlow. baseURL is substituted into the
// uninstall command.
func NewRemovalFlow(api HostDeleter, cb Clipboard, notifier notify.Notifier, clk clock.PassiveClock, baseURL string) *RemovalFlow {
	return &RemovalFlow{
		api:       api,
		clipboard: cb,
		notifier:  notifier,
		clock:     clk,
		baseURL:   baseURL,
	}
}

// Open starts the flow for host, discarding any earlier progress.
func (f *RemovalFlow) Open(host pulseapi.Host) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.open = true
	f.removing = false
	f.host = host
	f.platform, f.command = agentcmd.UninstallFor(host.Platform, f.baseURL)
	f.copied = false
	f.confirmed = false
	f.copiedAt = time.Time{}
}

// Close abandons the flow.
func (f *RemovalFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.removing = false
	f.copied = false
	f.confirmed = false
}

// State returns the current step.
func (f *RemovalFlow) State() RemovalState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *RemovalFlow) stateLocked() RemovalState {
	switch {
	case !f.open:
		return RemovalClosed
	case f.removing:
		return RemovalRemoving
	case f.copied && f.confirmed:
		return RemovalRemovable
	default:
		return RemovalOpened
	}
}

// Host returns the host snapshot the flow was opened with.
func (f *RemovalFlow) Host() pulseapi.Host {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.host
}

// Platform returns the platform the uninstall command targets.
func (f *RemovalFlow) Platform() agentcmd.Platform {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.platform
}

// Command returns the uninstall command for the host's platform.
func (f *RemovalFlow) Command() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.command
}

// CopyUninstall writes the uninstall command to the clipboard.
func (f *RemovalFlow) CopyUninstall() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return ErrNoHostSelected
	}
	if err := f.clipboard.WriteAll(f.command); err != nil {
		f.notifier.Error("Failed to copy command")
		return notified(fmt.Errorf("copy uninstall command: %w", err))
	}
	f.copied = true
	f.copiedAt = f.clock.Now()
	f.notifier.Success("Uninstall command copied")
	return nil
}

// MarkCopied records that the command was copied by other means, for
// terminals without clipboard access where the command is printed instead.
func (f *RemovalFlow) MarkCopied() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return ErrNoHostSelected
	}
	f.copied = true
	f.copiedAt = f.clock.Now()
	return nil
}

// Copied reports whether the uninstall command has been copied.
func (f *RemovalFlow) Copied() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copied
}

// CopiedAgo renders how long ago the command was copied.
func (f *RemovalFlow) CopiedAgo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.copied {
		return ""
	}
	return relativeTime(f.clock.Since(f.copiedAt))
}

// Confirm records that the operator ran the uninstall command. It is only
// accepted after the command was copied.
func (f *RemovalFlow) Confirm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return ErrNoHostSelected
	}
	if !f.copied {
		return ErrCopyFirst
	}
	f.confirmed = true
	return nil
}

// Unconfirm withdraws the confirmation.
func (f *RemovalFlow) Unconfirm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = false
}

// Confirmed reports whether the operator confirmed the uninstall.
func (f *RemovalFlow) Confirmed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed
}

// CanRemove reports whether the delete action is enabled. Staleness plays no
// part in it.
func (f *RemovalFlow) CanRemove() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open && !f.removing && f.copied && f.confirmed
}

// Remove deletes the host. On success the flow closes; on failure it returns
// to the removable state so the operator can retry.
func (f *RemovalFlow) Remove(ctx context.Context) error {
	f.mu.Lock()
	if f.removing {
		f.mu.Unlock()
		return ErrRemoveInFlight
	}
	if !f.open || !f.copied || !f.confirmed {
		f.mu.Unlock()
		return ErrNotRemovable
	}
	f.removing = true
	host := f.host
	f.mu.Unlock()

	err := f.api.DeleteHost(ctx, host.ID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.removing = false

	if err != nil {
		slog.Error("failed to remove host", "host", host.ID, "error", err)
		f.notifier.Error(pulseapi.ErrorMessage(err, "Failed to remove host"))
		return notified(fmt.Errorf("remove host %s: %w", host.ID, err))
	}

	slog.Info("host removed", "host", host.ID, "hostname", host.Hostname)
	f.open = false
	f.copied = false
	f.confirmed = false
	f.notifier.Success(fmt.Sprintf("Host %s removed. It will disappear after its next missed heartbeat.", host.Name()))
	return nil
}

// Countdown returns the time left until the host is expected to be declared
// stale, looking it up in the live host list. It only feeds the display.
// ok is false when the host is no longer reported.
func (f *RemovalFlow) Countdown(hosts []pulseapi.Host) (remaining time.Duration, ok bool) {
	f.mu.Lock()
	id := f.host.ID
	f.mu.Unlock()

	host, found := livestore.FindHost(hosts, id)
	if !found {
		return 0, false
	}
	return hoststatus.UntilStale(host, f.clock.Now()), true
}

func relativeTime(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
