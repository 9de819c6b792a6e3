// Package secrets stores RCON passwords outside the config file.
// The config value wins when present; the OS keyring is the fallback
// so that a world-readable config never has to carry the password.
package secrets

import "errors"

// ServiceName identifies worldctl entries in the OS keyring.
const ServiceName = "worldctl"

// ErrNotFound indicates no password is stored for the world.
var ErrNotFound = errors.New("no password stored for world")

// Store abstracts password storage for testability.
type Store interface {
	// GetPassword returns the stored RCON password for a world, or
	// ErrNotFound.
	GetPassword(world string) (string, error)

	// SetPassword stores the RCON password for a world.
	SetPassword(world, password string) error

	// DeletePassword removes the stored password, or ErrNotFound.
	DeletePassword(world string) error
}
