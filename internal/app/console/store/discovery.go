package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/strrl/pulsectl/internal/app/console/database"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/pkg/pulseapi"
	"k8s.io/utils/clock"
)

// DefaultKeepScans is how many discovery scans are kept locally.
const DefaultKeepScans = 10

// DiscoveryStore persists discovery results in the local cache database.
type DiscoveryStore struct {
	db      *sql.DB
	queries database.Queries
	clock   clock.PassiveClock
	keep    int
}

// NewDiscoveryStore creates a DiscoveryStore on top of manager.
func NewDiscoveryStore(manager *database.Manager, clk clock.PassiveClock) *DiscoveryStore {
	return &DiscoveryStore{
		db:      manager.DB(),
		queries: manager.Queries(),
		clock:   clk,
		keep:    DefaultKeepScans,
	}
}

var _ service.DiscoveryCache = (*DiscoveryStore)(nil)

// SaveScan stores result as the newest scan and prunes scans beyond the
// retention limit. A result whose timestamp and subnet match the newest stored
// scan is the same backend result and is not stored again.
func (s *DiscoveryStore) SaveScan(ctx context.Context, result *pulseapi.DiscoveryResult) error {
	scannedAt := s.clock.Now().UnixMilli()
	if result.UpdatedAt.Valid() {
		scannedAt = result.UpdatedAt.UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	latest, err := q.GetLatestDiscoveryScan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("get latest scan: %w", err)
	case latest.ScannedAt == scannedAt && latest.Subnet == result.Subnet:
		return nil
	}

	scanID := uuid.NewString()
	if err := q.InsertDiscoveryScan(ctx, database.DiscoveryScan{
		ID:        scanID,
		Subnet:    result.Subnet,
		Errors:    strings.Join(result.Errors, "\n"),
		ScannedAt: scannedAt,
	}); err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	seen := make(map[string]struct{}, len(result.Servers))
	for _, srv := range result.Servers {
		key := fmt.Sprintf("%s:%d", srv.IP, srv.Port)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if err := q.InsertDiscoveredServer(ctx, database.DiscoveredServer{
			ScanID:   scanID,
			IP:       srv.IP,
			Port:     srv.Port,
			Type:     srv.Type,
			Version:  srv.Version,
			Hostname: srv.Hostname,
			Release:  srv.Release,
		}); err != nil {
			return fmt.Errorf("insert server %s: %w", key, err)
		}
	}

	if err := q.DeleteDiscoveryScansBeyond(ctx, s.keep); err != nil {
		return fmt.Errorf("prune scans: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LatestScan returns the newest stored scan, or service.ErrCacheEmpty.
func (s *DiscoveryStore) LatestScan(ctx context.Context) (*pulseapi.DiscoveryResult, error) {
	scan, err := s.queries.GetLatestDiscoveryScan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrCacheEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("get latest scan: %w", err)
	}

	rows, err := s.queries.ListDiscoveredServers(ctx, scan.ID)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}

	result := &pulseapi.DiscoveryResult{
		Servers:   make([]pulseapi.DiscoveredServer, 0, len(rows)),
		Subnet:    scan.Subnet,
		UpdatedAt: pulseapi.FromMillis(scan.ScannedAt),
	}
	if scan.Errors != "" {
		result.Errors = strings.Split(scan.Errors, "\n")
	}
	for _, row := range rows {
		result.Servers = append(result.Servers, pulseapi.DiscoveredServer{
			IP:       row.IP,
			Port:     row.Port,
			Type:     row.Type,
			Version:  row.Version,
			Hostname: row.Hostname,
			Release:  row.Release,
		})
	}
	return result, nil
}
