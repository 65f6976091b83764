package pulseapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a point in time reported by the backend. Different endpoints
// send it as epoch milliseconds, as an ISO-8601 string, or as null, so it
// accepts all three. The zero value means "absent".
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// FromMillis builds a Timestamp from epoch milliseconds.
func FromMillis(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms)}
}

// Valid reports whether the timestamp was present.
func (t Timestamp) Valid() bool {
	return !t.IsZero()
}

// Millis returns the epoch milliseconds, or nil when absent.
func (t Timestamp) Millis() *int64 {
	if !t.Valid() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("parse timestamp %s: %w", data, err)
		}
		t.Time = millisToTime(ms)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		t.Time = millisToTime(ms)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes epoch milliseconds, or null when absent.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

func millisToTime(ms float64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
