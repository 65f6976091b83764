package pulseapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is matched by errors.Is for any 404 APIError.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is matched by errors.Is for 401 and 403 APIErrors.
	ErrUnauthorized = errors.New("unauthorized")
)

// maxErrorBody caps how much of an error body is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the dashboard.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed: status %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// ErrorMessage returns the text a user should see for err: the server's
// message for API errors, the error text otherwise, or fallback when neither
// carries anything.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
