package lifecycle

import (
	"context"
	"encoding/json"

	"github.com/xrjr/mcutils/pkg/ping"

	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/initsys"
)

// PingInfo is the public half of the status report, read from the
// server list ping on the game port.
type PingInfo struct {
	Version       string
	PlayersOnline int
	PlayersMax    int
	Description   string
	LatencyMS     int
}

// Pinger performs a server list ping against the game port.
type Pinger func(host string, port int) (PingInfo, error)

// PingWorld is the production pinger.
func PingWorld(host string, port int) (PingInfo, error) {
	properties, latency, err := ping.Ping(host, port)
	if err != nil {
		return PingInfo{}, err
	}

	// The ping payload is a free-form JSON document; round-trip the
	// parts the report needs through a typed struct.
	var payload struct {
		Version struct {
			Name string `json:"name"`
		} `json:"version"`
		Players struct {
			Online int `json:"online"`
			Max    int `json:"max"`
		} `json:"players"`
		Description json.RawMessage `json:"description"`
	}
	raw, err := json.Marshal(properties)
	if err != nil {
		return PingInfo{LatencyMS: latency}, err
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return PingInfo{LatencyMS: latency}, err
	}

	info := PingInfo{
		Version:       payload.Version.Name,
		PlayersOnline: payload.Players.Online,
		PlayersMax:    payload.Players.Max,
		LatencyMS:     latency,
	}

	// description is either a plain string or a chat component object.
	var text string
	if json.Unmarshal(payload.Description, &text) == nil {
		info.Description = text
	} else {
		var component struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(payload.Description, &component) == nil {
			info.Description = component.Text
		}
	}

	return info, nil
}

// Report is the combined view of one world's state.
type Report struct {
	// Unit is the init system's view of the service.
	Unit initsys.ActiveState

	// State is the derived observed state.
	State domain.State

	// ConsoleReachable is true when an authenticated RCON session
	// could be opened during the probe.
	ConsoleReachable bool

	// Ping holds the server list ping result; valid when Pinged is
	// true. The ping only runs for running worlds with a game port.
	Ping   PingInfo
	Pinged bool
}

// Status probes a world without mutating anything: the init system's
// unit state, RCON reachability, and (for running worlds) the public
// server list ping.
func (c *Controller) Status(ctx context.Context, inst domain.Instance) (Report, error) {
	report := Report{Unit: initsys.Unknown, State: domain.StateUnknown}

	unitState, err := c.Init.Status(ctx, inst.Unit())
	if err != nil {
		return report, err
	}
	report.Unit = unitState

	switch unitState {
	case initsys.Inactive, initsys.Failed:
		report.State = domain.StateStopped
		return report, nil
	case initsys.Activating:
		report.State = domain.StateStarting
		return report, nil
	case initsys.Deactivating:
		report.State = domain.StateStopping
		return report, nil
	case initsys.Active:
		// Fall through to the console probe.
	default:
		return report, nil
	}

	console, err := c.dial(ctx, inst.RCON)
	if err != nil {
		// Unit up but console not answering: still loading.
		report.State = domain.StateStarting
		return report, nil
	}
	console.Close()
	report.ConsoleReachable = true
	report.State = domain.StateRunning

	if c.Ping != nil && inst.GamePort > 0 {
		if info, err := c.Ping(inst.RCON.Host, inst.GamePort); err == nil {
			report.Ping = info
			report.Pinged = true
		}
	}

	return report, nil
}

// observe is the lightweight probe Start uses for its idempotence
// check.
func (c *Controller) observe(ctx context.Context, inst domain.Instance) (domain.State, error) {
	report, err := c.Status(ctx, inst)
	return report.State, err
}
