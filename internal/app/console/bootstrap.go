// Package console wires the operator console: the dashboard API client, the
// live resource store, the local cache and the services built on them.
package console

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/strrl/pulsectl/internal/app/console/database"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/internal/app/console/store"
	"github.com/strrl/pulsectl/pkg/keycloak"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	"k8s.io/utils/clock"
)

// Console holds everything a command needs.
type Console struct {
	Config   Config
	API      *pulseapi.Client
	Notifier notify.Notifier
	Clock    clock.WithTickerAndDelayedExecution

	Tokens *service.TokenService
	Orgs   *service.OrgService
	SSO    *service.SSOService
	Guests *service.GuestService

	dbOnce sync.Once
	db     *database.Manager
	dbErr  error
}

// New creates a Console from cfg. Notifications are written to out.
func New(cfg Config, out io.Writer) (*Console, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api := pulseapi.NewClient(cfg.Server.URL,
		pulseapi.WithToken(cfg.Server.Token),
		pulseapi.WithHTTPClient(&http.Client{Timeout: cfg.Server.Timeout}),
	)

	var importer service.ProviderImporter
	if cfg.Keycloak.Enabled() {
		importer = keycloak.NewAdminClient(keycloak.AdminClientConfig{
			URL:          cfg.Keycloak.URL,
			Realm:        cfg.Keycloak.Realm,
			ClientID:     cfg.Keycloak.ClientID,
			ClientSecret: cfg.Keycloak.ClientSecret,
		})
	}

	c := &Console{
		Config:   cfg,
		API:      api,
		Notifier: notify.NewTerminal(out),
		Clock:    clock.RealClock{},
		Tokens:   service.NewTokenService(api),
		Orgs:     service.NewOrgService(api),
		SSO:      service.NewSSOService(api, importer, cfg.Server.URL),
		Guests:   service.NewGuestService(api),
	}

	slog.Debug("console initialized", "server", cfg.Server.URL, "token_set", cfg.Server.Token != "")
	return c, nil
}

// Installer returns a fresh token-gated install command builder.
func (c *Console) Installer() *service.InstallerService {
	return service.NewInstallerService(c.API, c.Notifier, c.Config.Server.URL, c.Config.Agent.Interval)
}

// Hosts returns a HostsService reading from st.
func (c *Console) Hosts(st livestore.Store) *service.HostsService {
	return service.NewHostsService(c.API, st)
}

// LookupTracker returns a tracker matching lookups against st.
func (c *Console) LookupTracker(st livestore.Store) *service.LookupTracker {
	return service.NewLookupTracker(c.API, st, c.Clock)
}

// RemovalFlow returns a removal flow copying to cb.
func (c *Console) RemovalFlow(cb service.Clipboard) *service.RemovalFlow {
	return service.NewRemovalFlow(c.API, cb, c.Notifier, c.Clock, c.Config.Server.URL)
}

// ShareForm returns a share form for orgID with quick picks from state.
func (c *Console) ShareForm(orgID string, state pulseapi.State) *service.ShareForm {
	return service.NewShareForm(c.API, c.Notifier, orgID, service.ShareOptionsFromState(state))
}

// LiveStore dials the dashboard's push channel. Callers run it with Run.
func (c *Console) LiveStore() (*livestore.WSStore, error) {
	return livestore.NewWSStore(c.Config.Server.URL, c.Config.Server.Token)
}

// Discovery returns the discovery service. The local cache is opened on first
// use; when it cannot be opened discovery still works without it.
func (c *Console) Discovery() *service.DiscoveryService {
	db, err := c.database()
	if err != nil {
		slog.Warn("discovery cache unavailable", "error", err)
		return service.NewDiscoveryService(c.API, nil)
	}
	return service.NewDiscoveryService(c.API, store.NewDiscoveryStore(db, c.Clock))
}

func (c *Console) database() (*database.Manager, error) {
	c.dbOnce.Do(func() {
		driver, err := database.ParseDriver(c.Config.Cache.Driver)
		if err != nil {
			c.dbErr = err
			return
		}
		dsn, err := c.Config.CacheDSN()
		if err != nil {
			c.dbErr = fmt.Errorf("resolve cache DSN: %w", err)
			return
		}
		c.db, c.dbErr = database.NewManager(database.Config{Driver: driver, DSN: dsn})
		if c.dbErr == nil {
			slog.Debug("discovery cache opened", "driver", c.db.Driver())
		}
	})
	return c.db, c.dbErr
}

// Close releases the cache database.
func (c *Console) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
