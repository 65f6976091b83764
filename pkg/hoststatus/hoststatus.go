// Package hoststatus derives the displayed state of a host agent from its last
// report: whether it is stale, how its free-text status classifies, and which
// badge a host list should show.
//
// Everything here is a pure function of the host and the supplied "now", so
// callers recompute it on every render instead of caching it.
package hoststatus

import (
	"strings"
	"time"

	"github.com/strrl/pulsectl/pkg/pulseapi"
)

const (
	// DefaultIntervalSeconds is assumed when a host reports no positive interval.
	DefaultIntervalSeconds = 30
	// MissedReports is how many report intervals may pass before a host is stale.
	MissedReports = 3
	// MinStaleThreshold is the floor of the staleness threshold.
	MinStaleThreshold = 60 * time.Second
)

// Staleness is the result of ComputeStaleness.
type Staleness struct {
	IsStale bool
	// LastSeenMs is nil when the host never reported.
	LastSeenMs       *int64
	StaleThresholdMs int64
}

// EffectiveInterval returns the report interval used for the threshold.
func EffectiveInterval(intervalSeconds int) int {
	if intervalSeconds > 0 {
		return intervalSeconds
	}
	return DefaultIntervalSeconds
}

// Threshold returns max(interval*3, 60s) for the given reported interval.
func Threshold(intervalSeconds int) time.Duration {
	threshold := time.Duration(EffectiveInterval(intervalSeconds)*MissedReports) * time.Second
	if threshold < MinStaleThreshold {
		return MinStaleThreshold
	}
	return threshold
}

// ComputeStaleness reports whether host is stale at now. A host that never
// reported is always stale.
func ComputeStaleness(host pulseapi.Host, now time.Time) Staleness {
	threshold := Threshold(host.IntervalSeconds)
	s := Staleness{
		IsStale:          true,
		StaleThresholdMs: threshold.Milliseconds(),
	}

	lastSeen := host.LastSeen.Millis()
	if lastSeen == nil {
		return s
	}
	s.LastSeenMs = lastSeen
	s.IsStale = now.UnixMilli()-*lastSeen >= s.StaleThresholdMs
	return s
}

// UntilStale returns how long until host becomes stale, or zero if it already is.
func UntilStale(host pulseapi.Host, now time.Time) time.Duration {
	s := ComputeStaleness(host, now)
	if s.IsStale || s.LastSeenMs == nil {
		return 0
	}
	remaining := *s.LastSeenMs + s.StaleThresholdMs - now.UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// SecondsUntilStale is UntilStale in whole seconds, rounded up so a host with
// any time left never shows 0.
func SecondsUntilStale(host pulseapi.Host, now time.Time) int64 {
	remaining := UntilStale(host, now)
	return int64((remaining + time.Second - 1) / time.Second)
}

// Status is the closed classification of a host's free-text status.
type Status int

const (
	Unknown Status = iota
	Online
	Offline
)

func (s Status) String() string {
	switch s {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

var onlineTokens = map[string]struct{}{
	"online":  {},
	"running": {},
	"healthy": {},
}

// Classify maps a reported status string onto Status. Matching is
// case-insensitive; an empty status is Unknown and anything not online-like
// is Offline.
func Classify(status string) Status {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return Unknown
	}
	if _, ok := onlineTokens[normalized]; ok {
		return Online
	}
	return Offline
}

// IsOnline is shorthand for Classify(status) == Online.
func IsOnline(status string) bool {
	return Classify(status) == Online
}

// Badge is what a host row displays.
type Badge int

const (
	BadgeOffline Badge = iota
	BadgeOnline
	BadgeStale
	BadgeTokenRevoked
)

func (b Badge) String() string {
	switch b {
	case BadgeOnline:
		return "online"
	case BadgeStale:
		return "stale"
	case BadgeTokenRevoked:
		return "token revoked"
	default:
		return "offline"
	}
}

// DeriveBadge picks the row badge. A revoked token wins over everything,
// then staleness, then the reported status.
func DeriveBadge(host pulseapi.Host, now time.Time) Badge {
	if host.TokenRevokedAt != nil && host.TokenRevokedAt.Valid() {
		return BadgeTokenRevoked
	}
	if ComputeStaleness(host, now).IsStale {
		return BadgeStale
	}
	if IsOnline(host.Status) {
		return BadgeOnline
	}
	return BadgeOffline
}
