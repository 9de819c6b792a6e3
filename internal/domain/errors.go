package domain

import "errors"

// Sentinel errors for cross-package error classification.
// Lower layers wrap these so the CLI can map failure categories to
// exit codes and messages without importing the failing package.
//
//	return fmt.Errorf("rcon connect %s: %w", addr, domain.ErrConnection)
var (
	// ErrConnection indicates a transport-level failure: the instance's
	// RCON endpoint refused the connection or the dial timed out.
	ErrConnection = errors.New("connection failed")

	// ErrAuth indicates the RCON password was rejected.
	ErrAuth = errors.New("authentication rejected")

	// ErrProtocol indicates malformed or unexpected wire data on an
	// established RCON connection.
	ErrProtocol = errors.New("protocol error")

	// ErrInitSystem indicates the external process supervisor reported
	// failure for a start/stop/status request.
	ErrInitSystem = errors.New("init system failure")

	// ErrNetwork indicates a manifest or artifact fetch failed after
	// bounded retries.
	ErrNetwork = errors.New("network failure")

	// ErrChecksum indicates a downloaded artifact did not hash to the
	// value published in the version manifest. Never retried.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrLock indicates the shared list store could not acquire its
	// file lock within the configured bound.
	ErrLock = errors.New("lock acquisition failed")

	// ErrConfig indicates a missing or invalid world definition.
	ErrConfig = errors.New("invalid configuration")
)

// Exit codes, one per error category. Zero is success; one is reserved
// for uncategorized errors so that scripts can distinguish "worldctl
// itself misbehaved" from a classified operational failure.
const (
	ExitOK         = 0
	ExitGeneric    = 1
	ExitConfig     = 2
	ExitConnection = 3
	ExitAuth       = 4
	ExitProtocol   = 5
	ExitInitSystem = 6
	ExitNetwork    = 7
	ExitChecksum   = 8
	ExitLock       = 9
)

// ExitCode maps an error to its process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfig):
		return ExitConfig
	case errors.Is(err, ErrAuth):
		return ExitAuth
	case errors.Is(err, ErrChecksum):
		// Checked before the transport categories: a checksum failure
		// surfaces during a download but must never be treated as a
		// transient network condition.
		return ExitChecksum
	case errors.Is(err, ErrConnection):
		return ExitConnection
	case errors.Is(err, ErrProtocol):
		return ExitProtocol
	case errors.Is(err, ErrInitSystem):
		return ExitInitSystem
	case errors.Is(err, ErrNetwork):
		return ExitNetwork
	case errors.Is(err, ErrLock):
		return ExitLock
	default:
		return ExitGeneric
	}
}
