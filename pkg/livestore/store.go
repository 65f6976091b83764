// Package livestore holds the live resource state pushed by the dashboard.
//
// Consumers treat it as a read-only capability: they take the current
// Snapshot or Subscribe to be told about newer ones. A Store never blocks a
// publisher on a slow subscriber; each subscriber only ever sees the latest
// snapshot.
package livestore

import (
	"strings"
	"sync"

	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// Store exposes live resource state.
type Store interface {
	// Snapshot returns the most recent state. It never blocks on the network.
	Snapshot() pulseapi.State
	// Subscribe returns a channel of newer snapshots and a cancel func that
	// must be called to release it.
	Subscribe() (<-chan pulseapi.State, func())
}

// hub is the shared snapshot + fan-out used by every Store implementation.
type hub struct {
	mu     sync.RWMutex
	state  pulseapi.State
	subs   map[int]chan pulseapi.State
	nextID int
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan pulseapi.State)}
}

func (h *hub) Snapshot() pulseapi.State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *hub) Subscribe() (<-chan pulseapi.State, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan pulseapi.State, 1)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// publish replaces the snapshot and offers it to every subscriber, replacing
// any snapshot a subscriber has not consumed yet.
func (h *hub) publish(state pulseapi.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = state
	for _, ch := range h.subs {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Static is a Store whose state is set explicitly, for one-shot commands
// that load /api/state once and for tests.
type Static struct {
	*hub
}

// NewStatic creates a Static store holding state.
func NewStatic(state pulseapi.State) *Static {
	s := &Static{hub: newHub()}
	s.state = state
	return s
}

// Set replaces the state and notifies subscribers.
func (s *Static) Set(state pulseapi.State) {
	s.publish(state)
}

// FindHost returns the host whose id equals key or whose hostname equals key
// case-insensitively.
func FindHost(hosts []pulseapi.Host, key string) (pulseapi.Host, bool) {
	for _, h := range hosts {
		if h.ID == key {
			return h, true
		}
	}
	for _, h := range hosts {
		if strings.EqualFold(h.Hostname, key) {
			return h, true
		}
	}
	return pulseapi.Host{}, false
}
