// Package env sets up a provisioned mesh node from configuration.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/vndmesh/pkg/mesh"
	"github.com/robotalks/vndmesh/pkg/vendor"
)

// Config provides the options to set up a node.
type Config struct {
	// BearerURL specifies the bearer, one of
	//   mqtt://host:port/topic-prefix/
	//   tcp://relay-host:port
	//   ws://relay-host:port/path
	//   mem://hub-name
	BearerURL string `yaml:"bearer"`
	// ConfigFile is the optional YAML file overriding the options.
	ConfigFile string `yaml:"-"`
	// SettingsPath is the file persisting node state, empty to disable.
	// AutoSettings picks a file per node address in the user config dir.
	SettingsPath string `yaml:"settings"`

	Addr       mesh.Address   `yaml:"addr"`
	NetIdx     uint16         `yaml:"net_idx"`
	AppIdx     uint16         `yaml:"app_idx"`
	DefaultTTL uint8          `yaml:"default_ttl"`
	Groups     []mesh.Address `yaml:"groups"`
	Publish    mesh.Address   `yaml:"publish"`
	UUID       string         `yaml:"uuid"`
}

// AutoSettings selects the default settings file of the node.
const AutoSettings = "auto"

var defaultConfig = Config{
	BearerURL:  "mqtt://localhost:1883/vndmesh/",
	DefaultTTL: mesh.DefaultTTL,
}

func init() {
	if val := os.Getenv("VNDMESH_BEARER"); val != "" {
		defaultConfig.BearerURL = val
	}
	if val := os.Getenv("VNDMESH_ADDR"); val != "" {
		if addr, err := mesh.ParseAddress(val); err == nil {
			defaultConfig.Addr = addr
		}
	}
	if val := os.Getenv("VNDMESH_CONFIG"); val != "" {
		defaultConfig.ConfigFile = val
	}
	if val := os.Getenv("VNDMESH_SETTINGS"); val != "" {
		defaultConfig.SettingsPath = val
	}
}

// SetupFlags sets command line flags. Node binaries persist their
// state by default.
func SetupFlags() {
	if defaultConfig.SettingsPath == "" {
		defaultConfig.SettingsPath = AutoSettings
	}
	flag.StringVar(&defaultConfig.BearerURL, "bearer", defaultConfig.BearerURL, "Bearer URL (mqtt://, tcp://, ws://, mem://).")
	flag.TextVar(&defaultConfig.Addr, "addr", defaultConfig.Addr, "Unicast address of the node.")
	flag.StringVar(&defaultConfig.ConfigFile, "config", defaultConfig.ConfigFile, "YAML file with node configuration.")
	flag.StringVar(&defaultConfig.SettingsPath, "settings", defaultConfig.SettingsPath, "File to persist node state, \"auto\" for one per address in the user config dir, empty to disable.")
}

// SetDefaultAddr should be called in init by each node binary.
func SetDefaultAddr(addr mesh.Address) {
	if defaultConfig.Addr.IsUnassigned() {
		defaultConfig.Addr = addr
	}
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Groups = append([]mesh.Address(nil), defaultConfig.Groups...)
	return &conf
}

// LoadFile applies the options in ConfigFile if specified.
func (c *Config) LoadFile() error {
	if c.ConfigFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return err
	}
	return c.Parse(data)
}

// Parse applies options from YAML content.
func (c *Config) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks the options.
func (c *Config) Validate() error {
	if !c.Addr.IsUnicast() {
		return fmt.Errorf("address %s is not unicast", c.Addr)
	}
	if c.DefaultTTL == 1 || c.DefaultTTL > mesh.TTLMax {
		return fmt.Errorf("default TTL %d out of range", c.DefaultTTL)
	}
	for _, g := range c.Groups {
		if g.IsUnicast() || g.IsUnassigned() {
			return fmt.Errorf("subscription %s is not a group address", g)
		}
	}
	if c.UUID != "" {
		if _, err := uuid.Parse(c.UUID); err != nil {
			return fmt.Errorf("invalid UUID %q: %w", c.UUID, err)
		}
	}
	return nil
}

// DefaultSettingsPath returns the settings file for the node address
// under the user config dir.
func DefaultSettingsPath(addr mesh.Address) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "vndmesh", fmt.Sprintf("node-%04x.cbor", uint16(addr))), nil
}

// ResolveSettingsPath returns the settings file to use, empty if the
// node state is not persisted.
func (c *Config) ResolveSettingsPath() (string, error) {
	if c.SettingsPath != AutoSettings {
		return c.SettingsPath, nil
	}
	path, err := DefaultSettingsPath(c.Addr)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// DeviceUUID returns the configured UUID or the one derived from machine ID.
func (c *Config) DeviceUUID() uuid.UUID {
	if id, err := uuid.Parse(c.UUID); err == nil {
		return id
	}
	return DeviceUUID(c.Addr)
}

// ServerModel builds the vendor server model from the options.
func (c *Config) ServerModel() *mesh.Model {
	return c.model(vendor.ServerModel())
}

// ClientModel builds the vendor client model from the options.
func (c *Config) ClientModel() *mesh.Model {
	return c.model(vendor.ClientModel())
}

func (c *Config) model(id mesh.ModelID) *mesh.Model {
	m := mesh.NewModel(id, c.AppIdx).Subscribe(c.Groups...)
	if !c.Publish.IsUnassigned() {
		m.Pub = mesh.Dest(c.Publish, c.AppIdx, mesh.TTLDefault)
	}
	return m
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(m *mesh.Model) *Env {
	env, err := c.NewEnv(m)
	if err != nil {
		log.Fatalln(err)
	}
	return env
}
