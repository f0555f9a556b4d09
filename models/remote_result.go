package models

import "github.com/google/uuid"

// RemoteCallResult is a parsed `{:ok, value}` or `{:error, atom}` tuple.
type RemoteCallResult struct {
	OK bool

	// Atom is set for failures, without the leading colon.
	Atom string

	// Value is the unquoted success payload.
	Value string

	// UUID is set when the success payload is a UUID.
	UUID uuid.UUID
}

// IsUUID reports whether the success payload parsed as a UUID.
func (r RemoteCallResult) IsUUID() bool {
	return r.OK && r.UUID != uuid.Nil
}

// FailedWith reports whether the result is the failure atom.
func (r RemoteCallResult) FailedWith(atom string) bool {
	return !r.OK && r.Atom == atom
}
