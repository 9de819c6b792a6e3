// Package config loads the world catalog for worldctl.
//
// Configuration is a JSON document at /etc/worldctl/config.json, or at
// ~/.config/worldctl/config.json (platform equivalent) when the system
// path does not exist. Instances are rebuilt from it on every
// invocation; nothing is cached across processes.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"wurstmineberg/worldctl/internal/domain"
)

const (
	appDir     = "worldctl"
	fileName   = "config.json"
	systemPath = "/etc/worldctl/config.json"

	defaultRconHost = "localhost"
	defaultRconPort = 25575
	defaultGamePort = 25565
)

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Paths are the shared directories worlds live under.
type Paths struct {
	// Worlds is the parent of each world's directory. A world without
	// an explicit directory lives at <worlds>/<name>.
	Worlds string `json:"worlds,omitempty"`

	// Jar is the shared server-jar cache the updater installs into.
	Jar string `json:"jar,omitempty"`

	// Backup is the root of per-world backup directories.
	Backup string `json:"backup,omitempty"`
}

// World is one world's raw configuration entry.
type World struct {
	Directory    string `json:"directory,omitempty"`
	RconHost     string `json:"rconHost,omitempty"`
	RconPort     int    `json:"rconPort,omitempty"`
	RconPassword string `json:"rconPassword,omitempty"`
	GamePort     int    `json:"gamePort,omitempty"`
	Enabled      bool   `json:"enabled,omitempty"`
	Flavor       string `json:"flavor,omitempty"`
}

// Config is the parsed configuration document. It doubles as the
// instance registry: the catalog of configured worlds for one run.
type Config struct {
	MainWorld string           `json:"mainWorld,omitempty"`
	Paths     Paths            `json:"paths"`
	Worlds    map[string]World `json:"worlds"`
}

// Path returns the config file location: the override if set, the
// system path if present, otherwise the per-user path.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config file from disk. A missing file yields an empty
// config (not an error); commands then fail per-world with ErrConfig.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{Worlds: map[string]World{}}, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %v: %w", path, err, domain.ErrConfig)
	}
	if cfg.Worlds == nil {
		cfg.Worlds = map[string]World{}
	}

	return &cfg, nil
}

// Instance resolves one world by name, applying defaults. An unknown
// name is a ConfigError naming the world.
func (c *Config) Instance(name string) (domain.Instance, error) {
	w, ok := c.Worlds[name]
	if !ok {
		return domain.Instance{}, fmt.Errorf("world %q is not configured: %w", name, domain.ErrConfig)
	}

	flavor, err := domain.ParseFlavor(w.Flavor)
	if err != nil {
		return domain.Instance{}, fmt.Errorf("world %q: %w", name, err)
	}

	inst := domain.Instance{
		Name:      name,
		Directory: w.Directory,
		RCON: domain.Endpoint{
			Host:     w.RconHost,
			Port:     w.RconPort,
			Password: w.RconPassword,
		},
		GamePort: w.GamePort,
		Enabled:  w.Enabled,
		Flavor:   flavor,
	}
	if inst.Directory == "" && c.Paths.Worlds != "" {
		inst.Directory = filepath.Join(c.Paths.Worlds, name)
	}
	if inst.RCON.Host == "" {
		inst.RCON.Host = defaultRconHost
	}
	if inst.RCON.Port == 0 {
		inst.RCON.Port = defaultRconPort
	}
	if inst.GamePort == 0 {
		inst.GamePort = defaultGamePort
	}

	return inst, nil
}

// Main resolves the configured main world.
func (c *Config) Main() (domain.Instance, error) {
	if c.MainWorld == "" {
		return domain.Instance{}, fmt.Errorf("no main world configured: %w", domain.ErrConfig)
	}
	return c.Instance(c.MainWorld)
}

// Instances returns all configured worlds, sorted by name.
func (c *Config) Instances() ([]domain.Instance, error) {
	names := make([]string, 0, len(c.Worlds))
	for name := range c.Worlds {
		names = append(names, name)
	}
	sort.Strings(names)

	instances := make([]domain.Instance, 0, len(names))
	for _, name := range names {
		inst, err := c.Instance(name)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// EnabledInstances returns the worlds marked enabled, sorted by name.
func (c *Config) EnabledInstances() ([]domain.Instance, error) {
	all, err := c.Instances()
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, inst := range all {
		if inst.Enabled {
			enabled = append(enabled, inst)
		}
	}
	return enabled, nil
}

// BackupDir returns the backup directory for a world.
func (c *Config) BackupDir(name string) string {
	if c.Paths.Backup == "" {
		return ""
	}
	return filepath.Join(c.Paths.Backup, name)
}
