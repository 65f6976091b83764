package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/internal/app/console/database"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	testingclock "k8s.io/utils/clock/testing"
)

func newTestStore(t *testing.T) (*DiscoveryStore, *testingclock.FakeClock) {
	t.Helper()
	m, err := database.NewManager(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "cache.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	clk := testingclock.NewFakeClock(time.UnixMilli(1700000000000))
	return NewDiscoveryStore(m, clk), clk
}

func TestDiscoveryStore_Empty(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.LatestScan(context.Background())
	assert.ErrorIs(t, err, service.ErrCacheEmpty)
}

func TestDiscoveryStore_SaveAndLoad(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveScan(ctx, &pulseapi.DiscoveryResult{
		Subnet:  "10.0.0.0/24",
		Servers: []pulseapi.DiscoveredServer{{IP: "10.0.0.9", Port: 8006, Type: "pve"}},
	}))

	clk.Step(time.Minute)
	require.NoError(t, s.SaveScan(ctx, &pulseapi.DiscoveryResult{
		Subnet: "192.168.1.0/24",
		Servers: []pulseapi.DiscoveredServer{
			{IP: "192.168.1.20", Port: 8007, Type: "pbs", Version: "3.1"},
			{IP: "192.168.1.10", Port: 8006, Type: "pve", Hostname: "pve1", Release: "8.2"},
			{IP: "192.168.1.10", Port: 8006, Type: "pve"},
		},
		Errors: []string{"192.168.1.30: timeout"},
	}))

	latest, err := s.LatestScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/24", latest.Subnet)
	assert.Equal(t, clk.Now().UnixMilli(), *latest.UpdatedAt.Millis())
	assert.Equal(t, []string{"192.168.1.30: timeout"}, latest.Errors)
	require.Len(t, latest.Servers, 2, "duplicate ip:port is stored once")
	assert.Equal(t, "192.168.1.10", latest.Servers[0].IP)
	assert.Equal(t, "pve1", latest.Servers[0].Hostname)
	assert.Equal(t, "8.2", latest.Servers[0].Release)
	assert.Equal(t, "pbs", latest.Servers[1].Type)
}

func TestDiscoveryStore_Prunes(t *testing.T) {
	s, clk := newTestStore(t)
	s.keep = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		clk.Step(time.Second)
		require.NoError(t, s.SaveScan(ctx, &pulseapi.DiscoveryResult{
			Subnet:  "auto",
			Servers: []pulseapi.DiscoveredServer{{IP: "10.0.0.1", Port: 8006 + i, Type: "pve"}},
		}))
	}

	scans, servers := countRows(t, s)
	assert.Equal(t, 3, scans)
	assert.Equal(t, 3, servers)
}

func TestDiscoveryStore_SameResultStoredOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	result := &pulseapi.DiscoveryResult{
		Subnet:    "auto",
		Servers:   []pulseapi.DiscoveredServer{{IP: "10.0.0.1", Port: 8006, Type: "pve"}},
		UpdatedAt: pulseapi.FromMillis(1700000000000),
	}
	for i := 0; i < 25; i++ {
		require.NoError(t, s.SaveScan(ctx, result))
	}

	scans, servers := countRows(t, s)
	assert.Equal(t, 1, scans)
	assert.Equal(t, 1, servers)
}

func TestDiscoveryStore_PrunesEqualTimestamps(t *testing.T) {
	s, _ := newTestStore(t)
	s.keep = 3
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, s.SaveScan(ctx, &pulseapi.DiscoveryResult{
			Subnet:    fmt.Sprintf("10.0.%d.0/24", i),
			Servers:   []pulseapi.DiscoveredServer{{IP: fmt.Sprintf("10.0.%d.1", i), Port: 8006, Type: "pve"}},
			UpdatedAt: pulseapi.FromMillis(1700000000000),
		}))
	}

	scans, servers := countRows(t, s)
	assert.Equal(t, 3, scans)
	assert.Equal(t, 3, servers)
}

func countRows(t *testing.T, s *DiscoveryStore) (scans, servers int) {
	t.Helper()
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM discovery_scans`).Scan(&scans))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM discovered_servers`).Scan(&servers))
	return scans, servers
}
