package types

import "github.com/google/uuid"

// FilterID identifies a leaf filter across edits.
// String alias keeps JSON encoding a plain string.
type FilterID string

// SessionID identifies an editing session.
type SessionID string

// EventID identifies a structural edit event.
type EventID string

// NewFilterID generates a UUIDv7 filter identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewFilterID() FilterID {
	return FilterID(uuid.Must(uuid.NewV7()).String())
}

// NewSessionID generates a UUIDv7 session identifier.
// Time-ordered IDs cluster sequential inserts in B-tree pages.
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// NewEventID generates a UUIDv7 event identifier.
func NewEventID() EventID {
	return EventID(uuid.Must(uuid.NewV7()).String())
}

// NewAPIKeyID generates a UUIDv7 identifier for a stored API key.
func NewAPIKeyID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseSessionID validates and converts a string to SessionID.
// Rejects malformed UUIDs to prevent invalid IDs from reaching the store.
func ParseSessionID(s string) (SessionID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return SessionID(s), nil
}

// ParseFilterID validates and converts a string to FilterID.
func ParseFilterID(s string) (FilterID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return FilterID(s), nil
}
