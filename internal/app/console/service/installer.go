package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/strrl/pulsectl/pkg/agentcmd"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// DefaultAgentTokenName names tokens generated for host agent installs.
const DefaultAgentTokenName = "host-agent"

var errEmptyToken = errors.New("server returned an empty token")

const tokenGenerationFailed = "Failed to generate API token. Confirm you are signed in as an administrator."

// SecurityAPI is the subset of the API used to gate install commands.
type SecurityAPI interface {
	SecurityStatus(ctx context.Context) (*pulseapi.SecurityStatus, error)
	CreateToken(ctx context.Context, req pulseapi.CreateTokenRequest) (*pulseapi.CreatedToken, error)
}

// InstallCommand is a rendered install command for one platform.
type InstallCommand struct {
	Platform agentcmd.Platform
	Label    string
	Command  string
}

// InstallerService builds host agent install commands. When the server
// requires a token the commands stay locked until one is generated; when it
// does not, the operator may instead confirm installing without a token.
type InstallerService struct {
	api             SecurityAPI
	notifier        notify.Notifier
	baseURL         string
	intervalSeconds int

	mu               sync.Mutex
	requiresToken    bool
	statusLoaded     bool
	token            string
	tokenRecord      *pulseapi.APIToken
	confirmedNoToken bool
}

// NewInstallerService creates an InstallerService. Until the security
// status is loaded a token is assumed to be required.
func NewInstallerService(api SecurityAPI, notifier notify.Notifier, baseURL string, intervalSeconds int) *InstallerService {
	return &InstallerService{
		api:             api,
		notifier:        notifier,
		baseURL:         baseURL,
		intervalSeconds: intervalSeconds,
		requiresToken:   true,
	}
}

// LoadSecurityStatus fetches the security status and derives whether a token
// is required. On failure the service keeps requiring one.
func (s *InstallerService) LoadSecurityStatus(ctx context.Context) error {
	status, err := s.api.SecurityStatus(ctx)
	if err != nil {
		slog.Warn("failed to load security status, assuming a token is required", "error", err)
		s.setRequiresToken(true)
		return fmt.Errorf("load security status: %w", err)
	}

	s.setRequiresToken(status.RequiresAuth || status.APITokenConfigured)
	s.mu.Lock()
	s.statusLoaded = true
	s.mu.Unlock()
	return nil
}

// setRequiresToken updates the requirement. A flip discards the generated
// token and any no-token confirmation so no unlocked state survives it.
func (s *InstallerService) setRequiresToken(required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requiresToken == required {
		return
	}
	s.requiresToken = required
	s.token = ""
	s.tokenRecord = nil
	s.confirmedNoToken = false
}

// RequiresToken reports whether install commands need a generated token.
func (s *InstallerService) RequiresToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requiresToken
}

// StatusLoaded reports whether the security status was fetched successfully.
func (s *InstallerService) StatusLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLoaded
}

// HasToken reports whether a token was generated in this session.
func (s *InstallerService) HasToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Token returns the generated raw token. It only lives in memory.
func (s *InstallerService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// TokenRecord returns the display record of the generated token.
func (s *InstallerService) TokenRecord() *pulseapi.APIToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenRecord
}

// CommandsUnlocked reports whether the install commands may be shown.
func (s *InstallerService) CommandsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return commandsUnlocked(s.requiresToken, s.token != "", s.confirmedNoToken)
}

func commandsUnlocked(requiresToken, hasToken, confirmedNoToken bool) bool {
	if requiresToken {
		return hasToken
	}
	return hasToken || confirmedNoToken
}

// GenerateToken creates a token scoped to host agent reporting. Failures are
// reported through the notifier and not retried.
func (s *InstallerService) GenerateToken(ctx context.Context, name string) (*pulseapi.CreatedToken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultAgentTokenName
	}

	created, err := s.api.CreateToken(ctx, pulseapi.CreateTokenRequest{
		Name:   name,
		Scopes: []string{pulseapi.ScopeHostAgentReport},
	})
	if err == nil && (created == nil || created.Token == "") {
		err = errEmptyToken
	}
	if err != nil {
		slog.Error("failed to generate host agent token", "error", err)
		s.notifier.Error(tokenGenerationFailed)
		return nil, notified(fmt.Errorf("generate token: %w", err))
	}

	s.mu.Lock()
	s.token = created.Token
	record := created.Record
	s.tokenRecord = &record
	s.mu.Unlock()

	s.notifier.Success(fmt.Sprintf("Token %q created. Copy it now; it will not be shown again.", name))
	return created, nil
}

// ConfirmWithoutToken unlocks the commands without a token. It is rejected
// when the server requires one.
func (s *InstallerService) ConfirmWithoutToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requiresToken {
		return ErrTokenRequired
	}
	s.confirmedNoToken = true
	return nil
}

// TokenValue is what replaces the token placeholder in the commands.
func (s *InstallerService) TokenValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenValueLocked()
}

func (s *InstallerService) tokenValueLocked() string {
	switch {
	case s.token != "":
		return s.token
	case !s.requiresToken && s.confirmedNoToken:
		return agentcmd.TokenDisabled
	default:
		return agentcmd.TokenPlaceholder
	}
}

// Commands renders the install command for every platform. Locked commands
// keep the token placeholder.
func (s *InstallerService) Commands() []InstallCommand {
	s.mu.Lock()
	value := s.tokenValueLocked()
	if !commandsUnlocked(s.requiresToken, s.token != "", s.confirmedNoToken) {
		value = agentcmd.TokenPlaceholder
	}
	s.mu.Unlock()

	commands := make([]InstallCommand, 0, len(agentcmd.Platforms))
	for _, p := range agentcmd.Platforms {
		commands = append(commands, InstallCommand{
			Platform: p,
			Label:    p.Label(),
			Command:  agentcmd.WithToken(agentcmd.InstallTemplate(p, s.baseURL, s.intervalSeconds), value),
		})
	}
	return commands
}

// Command renders the install command for one platform.
func (s *InstallerService) Command(p agentcmd.Platform) InstallCommand {
	for _, c := range s.Commands() {
		if c.Platform == p {
			return c
		}
	}
	return s.Commands()[0]
}

// CopyCommand writes the install command for p to cb. A copy failure is
// reported through the notifier.
func (s *InstallerService) CopyCommand(cb Clipboard, p agentcmd.Platform) (InstallCommand, error) {
	ic := s.Command(p)
	if err := cb.WriteAll(ic.Command); err != nil {
		slog.Error("failed to copy install command", "platform", p, "error", err)
		s.notifier.Error("Failed to copy command")
		return ic, notified(fmt.Errorf("copy install command: %w", err))
	}
	s.notifier.Success("Install command copied")
	return ic, nil
}
