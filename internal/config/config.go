package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgoulah/loadwatch/pkg/models"
)

// Config holds the application configuration
type Config struct {
	DataDir       string          `yaml:"data_dir,omitempty"`
	API           APIConfig       `yaml:"api,omitempty"`
	Timezone      string          `yaml:"timezone,omitempty"`       // reference timezone for calendar math
	EpochStart    string          `yaml:"epoch_start,omitempty"`    // first date fetched for an empty store (YYYY-MM-DD)
	Entities      []models.Entity `yaml:"entities,omitempty"`       // tracked countries
	AggregateCode string          `yaml:"aggregate_code,omitempty"` // code under which the sum series is stored
	MQTT          MQTTConfig      `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig        `yaml:"home_assistant,omitempty"`
	Server        ServerConfig    `yaml:"server,omitempty"`
}

// APIConfig holds the energy-charts API settings
type APIConfig struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // per year-request
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`       // e.g., "http://yourdomain.local:5050"
	Token    string `yaml:"token"`     // Long-lived access token
	EntityID string `yaml:"entity_id"` // e.g., "sensor.load_7d_mean_de"
}

// ServerConfig holds the HTTP trace server settings
type ServerConfig struct {
	Listen        string `yaml:"listen,omitempty"`          // default ":8600"
	CacheTTLHours int    `yaml:"cache_ttl_hours,omitempty"` // re-sync an entity at most once per TTL
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// defaultEntities is the registry used when the config lists none.
// Switzerland is tracked but kept out of the aggregate sum.
var defaultEntities = []models.Entity{
	{Code: "de", Name: "Germany", Aggregate: true},
	{Code: "fr", Name: "France", Aggregate: true},
	{Code: "nl", Name: "Netherlands", Aggregate: true},
	{Code: "pl", Name: "Poland", Aggregate: true},
	{Code: "at", Name: "Austria", Aggregate: true},
	{Code: "ch", Name: "Switzerland", Aggregate: false},
}

// GetDataDir returns the series data directory with a default of ./data
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return "data"
	}
	return c.DataDir
}

// GetBaseURL returns the API base URL
func (c *Config) GetBaseURL() string {
	if c.API.BaseURL == "" {
		return "https://api.energy-charts.info"
	}
	return c.API.BaseURL
}

// GetTimeout returns the per-request timeout with a default of 30s
func (c *Config) GetTimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Location returns the reference timezone for daily bucketing
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = "Europe/Berlin"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	return loc, nil
}

// GetEpochStart returns the date fetched from when no local data exists
func (c *Config) GetEpochStart() (time.Time, error) {
	if c.EpochStart == "" {
		return time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", c.EpochStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing epoch_start: %w", err)
	}
	return t.UTC(), nil
}

// GetEntities returns the entity registry, falling back to the default set
func (c *Config) GetEntities() []models.Entity {
	if len(c.Entities) == 0 {
		return defaultEntities
	}
	return c.Entities
}

// Entity looks up a single entity by code
func (c *Config) Entity(code string) (models.Entity, bool) {
	for _, e := range c.GetEntities() {
		if e.Code == code {
			return e, true
		}
	}
	return models.Entity{}, false
}

// AggregateMembers returns the codes summed into the aggregate series
func (c *Config) AggregateMembers() []string {
	var codes []string
	for _, e := range c.GetEntities() {
		if e.Aggregate {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// GetAggregateCode returns the code the sum series is stored under
func (c *Config) GetAggregateCode() string {
	if c.AggregateCode == "" {
		return "eu_sum"
	}
	return c.AggregateCode
}

// GetListen returns the HTTP listen address
func (c *Config) GetListen() string {
	if c.Server.Listen == "" {
		return ":8600"
	}
	return c.Server.Listen
}

// GetCacheTTL returns how long a synced series is considered fresh
func (c *Config) GetCacheTTL() time.Duration {
	if c.Server.CacheTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Server.CacheTTLHours) * time.Hour
}

// GetTopicPrefix returns the MQTT topic prefix with a default
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "loadwatch"
	}
	return c.MQTT.TopicPrefix
}
