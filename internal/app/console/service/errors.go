package service

import (
	"errors"
	"sort"
	"strings"
)

// Removal flow errors.
var (
	ErrNoHostSelected = errors.New("no host selected")
	ErrCopyFirst      = errors.New("copy the uninstall command first")
	ErrNotRemovable   = errors.New("run the uninstall command and confirm before removing")
	ErrRemoveInFlight = errors.New("removal already in progress")
)

// Installer errors.
var (
	ErrTokenRequired = errors.New("an API token is required on this server")
)

// Lookup errors.
var (
	ErrEmptyQuery = errors.New("Enter a hostname or host ID")
)

// Form and input errors.
var (
	ErrUnknownOption          = errors.New("unknown quick pick option")
	ErrNameRequired           = errors.New("name is required")
	ErrInvalidSubnet          = errors.New("subnet must be \"auto\" or a CIDR range")
	ErrNoCachedScan           = errors.New("no cached discovery scan")
	ErrKeycloakNotConfigured  = errors.New("keycloak import is not configured")
	ErrMetadataSourceRequired = errors.New("metadata URL or XML is required")
)

// FieldErrors maps a form field to its validation message. A field with no
// entry is valid.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// notifiedError marks an error the user has already been shown as a toast.
type notifiedError struct {
	err error
}

func (e *notifiedError) Error() string { return e.err.Error() }
func (e *notifiedError) Unwrap() error { return e.err }

func notified(err error) error {
	return &notifiedError{err: err}
}

// Notified reports whether err was already surfaced through a notifier, so
// callers can avoid printing it twice.
func Notified(err error) bool {
	var n *notifiedError
	return errors.As(err, &n)
}
