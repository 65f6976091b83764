package livestore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func TestStatic_SubscribeSeesLatest(t *testing.T) {
	store := NewStatic(pulseapi.State{Hosts: []pulseapi.Host{{ID: "h1"}}})
	assert.Len(t, store.Snapshot().Hosts, 1)

	ch, cancel := store.Subscribe()
	defer cancel()

	store.Set(pulseapi.State{Hosts: []pulseapi.Host{{ID: "h1"}, {ID: "h2"}}})
	store.Set(pulseapi.State{Hosts: []pulseapi.Host{{ID: "h3"}}})

	got := <-ch
	require.Len(t, got.Hosts, 1)
	assert.Equal(t, "h3", got.Hosts[0].ID)
	assert.Equal(t, "h3", store.Snapshot().Hosts[0].ID)
}

func TestStatic_CancelClosesChannel(t *testing.T) {
	store := NewStatic(pulseapi.State{})
	ch, cancel := store.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	store.Set(pulseapi.State{})
}

func TestFindHost(t *testing.T) {
	hosts := []pulseapi.Host{
		{ID: "abc", Hostname: "web-01"},
		{ID: "web-02", Hostname: "db-01"},
		{ID: "def", Hostname: "Web-02"},
	}

	h, ok := FindHost(hosts, "abc")
	require.True(t, ok)
	assert.Equal(t, "web-01", h.Hostname)

	h, ok = FindHost(hosts, "WEB-01")
	require.True(t, ok)
	assert.Equal(t, "abc", h.ID)

	h, ok = FindHost(hosts, "web-02")
	require.True(t, ok)
	assert.Equal(t, "web-02", h.ID, "id match wins over hostname match")

	_, ok = FindHost(hosts, "missing")
	assert.False(t, ok)
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:7655", "ws://localhost:7655/ws"},
		{"https://pulse.example.com/", "wss://pulse.example.com/ws"},
		{"https://example.com/pulse", "wss://example.com/pulse/ws"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := websocketURL("ftp://example.com")
	assert.Error(t, err)
}

func TestWSStore_Run(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotToken := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.Header.Get("X-API-Token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(map[string]any{"type": "ping"})
		_ = conn.WriteJSON(map[string]any{
			"type": MessageInitialState,
			"data": map[string]any{
				"hosts": []map[string]any{{"id": "h1", "hostname": "web-01", "lastSeen": 1700000000000}},
			},
		})
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	store, err := NewWSStore(server.URL, "secret")
	require.NoError(t, err)
	defer store.Close()

	ch, cancel := store.Subscribe()
	defer cancel()

	err = store.Run(context.Background())
	assert.True(t, errors.Is(err, ErrClosed), "unexpected error: %v", err)
	assert.Equal(t, "secret", <-gotToken)

	select {
	case state := <-ch:
		require.Len(t, state.Hosts, 1)
		assert.Equal(t, "web-01", state.Hosts[0].Hostname)
		assert.Equal(t, int64(1700000000000), *state.Hosts[0].LastSeen.Millis())
	default:
		t.Fatal("expected a pushed snapshot")
	}
}
