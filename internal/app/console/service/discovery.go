package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// DiscoveryAPI is the subset of the API used for network discovery.
type DiscoveryAPI interface {
	Discovery(ctx context.Context) (*pulseapi.DiscoveryResult, error)
	Discover(ctx context.Context, subnet string) (*pulseapi.DiscoveryResult, error)
}

// DiscoveryCache keeps the last discovery results on this machine.
type DiscoveryCache interface {
	SaveScan(ctx context.Context, result *pulseapi.DiscoveryResult) error
	LatestScan(ctx context.Context) (*pulseapi.DiscoveryResult, error)
}

// ErrCacheEmpty is returned by a DiscoveryCache with nothing stored.
var ErrCacheEmpty = errors.New("discovery cache is empty")

// DiscoveryService runs network discovery through the backend and keeps a
// local copy of the results for offline viewing.
type DiscoveryService struct {
	api   DiscoveryAPI
	cache DiscoveryCache
}

// NewDiscoveryService creates a new DiscoveryService. cache may be nil.
func NewDiscoveryService(api DiscoveryAPI, cache DiscoveryCache) *DiscoveryService {
	return &DiscoveryService{api: api, cache: cache}
}

// Cached returns the backend's last scan result.
func (s *DiscoveryService) Cached(ctx context.Context) (*pulseapi.DiscoveryResult, error) {
	result, err := s.api.Discovery(ctx)
	if err != nil {
		return nil, fmt.Errorf("get discovery result: %w", err)
	}
	s.save(ctx, result)
	return result, nil
}

// Scan triggers a scan of subnet, which is "auto" or a CIDR range.
func (s *DiscoveryService) Scan(ctx context.Context, subnet string) (*pulseapi.DiscoveryResult, error) {
	subnet = strings.TrimSpace(subnet)
	if subnet == "" {
		subnet = "auto"
	}
	if subnet != "auto" {
		if _, _, err := net.ParseCIDR(subnet); err != nil {
			return nil, ErrInvalidSubnet
		}
	}

	result, err := s.api.Discover(ctx, subnet)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	s.save(ctx, result)
	return result, nil
}

// Offline returns the last result stored locally without contacting the
// backend.
func (s *DiscoveryService) Offline(ctx context.Context) (*pulseapi.DiscoveryResult, error) {
	if s.cache == nil {
		return nil, ErrNoCachedScan
	}
	result, err := s.cache.LatestScan(ctx)
	if errors.Is(err, ErrCacheEmpty) {
		return nil, ErrNoCachedScan
	}
	if err != nil {
		return nil, fmt.Errorf("read discovery cache: %w", err)
	}
	result.Cached = true
	return result, nil
}

// save stores result in the local cache. Cache failures are logged only;
// they never fail the scan.
func (s *DiscoveryService) save(ctx context.Context, result *pulseapi.DiscoveryResult) {
	if s.cache == nil || result == nil || result.Scanning {
		return
	}
	if err := s.cache.SaveScan(ctx, result); err != nil {
		slog.Warn("failed to cache discovery result", "error", err)
	}
}
