// Package domain holds the types shared between the CLI commands and the
// lifecycle, protocol, and updater packages: the world instance model,
// its observed state, and the error taxonomy.
package domain

import "fmt"

// State is the observed run state of a world instance. It is derived
// from the init system's unit state plus an RCON connectivity probe and
// is never persisted; every invocation recomputes it from live probes.
type State int

const (
	StateUnknown State = iota
	StateStopped
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Flavor identifies the kind of server a world runs. The set is closed:
// lifecycle and protocol steps are fixed per flavor, so new flavors are
// added here rather than behind an open-ended interface.
type Flavor int

const (
	// FlavorVanilla is a stock Mojang server jar.
	FlavorVanilla Flavor = iota
	// FlavorModded is a mod-loader server (Fabric, Forge). Managed the
	// same as vanilla except for JVM flags the launcher layer owns.
	FlavorModded
	// FlavorCustom is an operator-provided server binary. Updates are
	// refused for custom worlds; everything else works normally.
	FlavorCustom
)

func (f Flavor) String() string {
	switch f {
	case FlavorModded:
		return "modded"
	case FlavorCustom:
		return "custom"
	default:
		return "vanilla"
	}
}

// ParseFlavor maps a config string to a Flavor. The empty string means
// vanilla, matching worlds that predate the flavor key.
func ParseFlavor(s string) (Flavor, error) {
	switch s {
	case "", "vanilla":
		return FlavorVanilla, nil
	case "modded":
		return FlavorModded, nil
	case "custom":
		return FlavorCustom, nil
	default:
		return FlavorVanilla, fmt.Errorf("unknown world flavor %q: %w", s, ErrConfig)
	}
}

// Endpoint is a world's RCON connection parameters.
type Endpoint struct {
	Host     string
	Port     int
	Password string
}

// Addr returns the host:port dial string.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Instance represents one configured world. Instances are rebuilt from
// configuration on every invocation and never cached across processes.
type Instance struct {
	// Name is the unique world identifier, also used as the systemd
	// template parameter (minecraft@<name>).
	Name string

	// Directory is the filesystem root for the world's server files.
	Directory string

	// RCON is the remote-console endpoint for administrative commands.
	RCON Endpoint

	// GamePort is the port players connect to, used for the server
	// list ping half of the status probe. Zero disables the ping.
	GamePort int

	// Enabled marks worlds that start on boot (--enabled selection).
	Enabled bool

	// Flavor is the server kind; see Flavor.
	Flavor Flavor
}

// Unit returns the systemd unit name for this world.
func (i Instance) Unit() string {
	return fmt.Sprintf("minecraft@%s", i.Name)
}
