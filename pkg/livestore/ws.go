package livestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// Push message types that carry a full state snapshot.
const (
	MessageInitialState = "initialState"
	MessageRawData      = "rawData"
)

// ErrClosed is returned by Run when the server closes the connection normally.
var ErrClosed = errors.New("live connection closed")

// Message is one frame of the push channel.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WSStore is a Store fed by the dashboard's WebSocket push channel.
type WSStore struct {
	*hub
	url    string
	header http.Header
	dialer *websocket.Dialer
}

// NewWSStore creates a store for the dashboard at baseURL. The token, when
// set, is sent in the X-API-Token header of the upgrade request.
func NewWSStore(baseURL, token string) (*WSStore, error) {
	wsURL, err := websocketURL(baseURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token != "" {
		header.Set("X-API-Token", token)
	}

	return &WSStore{
		hub:    newHub(),
		url:    wsURL,
		header: header,
		dialer: websocket.DefaultDialer,
	}, nil
}

func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse dashboard url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported dashboard url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Run connects and applies pushed snapshots until ctx is cancelled or the
// connection fails. Reconnecting is left to the caller.
func (s *WSStore) Run(ctx context.Context) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect live channel: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("connect live channel: %w", err)
	}
	defer func() { _ = conn.Close() }()

	slog.Debug("live channel connected", "url", s.url)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrClosed
			}
			return fmt.Errorf("read live channel: %w", err)
		}
		s.apply(msg)
	}
}

func (s *WSStore) apply(msg Message) {
	switch msg.Type {
	case MessageInitialState, MessageRawData:
	default:
		slog.Debug("ignoring live message", "type", msg.Type)
		return
	}

	var state pulseapi.State
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		slog.Warn("decode live state", "type", msg.Type, "error", err)
		return
	}
	s.publish(state)
}

// Close releases every subscriber.
func (s *WSStore) Close() {
	s.closeAll()
}
