// Package initsys is the boundary to the external process supervisor.
// The core never manages server processes itself; it asks the init
// system to start or stop the templated unit for a world and consumes
// the unit's active state. All calls are fallible boundary calls.
package initsys

import "context"

// ActiveState mirrors systemd's unit ActiveState values.
type ActiveState string

const (
	Active       ActiveState = "active"
	Inactive     ActiveState = "inactive"
	Failed       ActiveState = "failed"
	Activating   ActiveState = "activating"
	Deactivating ActiveState = "deactivating"
	Unknown      ActiveState = "unknown"
)

// Client controls one init system. Implementations must be safe for
// concurrent use across distinct units.
type Client interface {
	// Start asks the init system to start the unit. It returns once
	// the request is accepted; readiness is the caller's concern.
	Start(ctx context.Context, unit string) error

	// Stop asks the init system to stop the unit and waits for the
	// request to be accepted.
	Stop(ctx context.Context, unit string) error

	// Status reports the unit's current active state. A probe that
	// cannot reach the init system returns Unknown with an error.
	Status(ctx context.Context, unit string) (ActiveState, error)

	// WaitInactive blocks until the unit reaches inactive or failed,
	// or ctx expires.
	WaitInactive(ctx context.Context, unit string) error
}
