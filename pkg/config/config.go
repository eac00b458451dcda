package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves values unset.
const (
	DefaultDataDir       = "/var/lib/certkeep"
	DefaultClientBin     = "letsencrypt"
	DefaultLiveDir       = "/etc/letsencrypt/live"
	DefaultDHParamTarget = "/etc/letsencrypt/dhparam.pem"
	DefaultAssetsDir     = "/usr/share/certkeep/files"
	DefaultCycleInterval = 5 * time.Minute
)

// Config holds the certkeep configuration surface.
type Config struct {
	// FQDN is the single configured domain name. Setting it queues a
	// certificate request for that name on the next event cycle.
	FQDN string `yaml:"fqdn"`

	// ContactEmail is passed to the issuance client with --email. When
	// empty the client is invoked with --register-unsafely-without-email.
	ContactEmail string `yaml:"contact-email"`

	// ServiceName is the web service sharing ports 80/443 with the
	// issuance client. Empty means there is no service to manage.
	ServiceName string `yaml:"service-name"`

	// Disable skips registration and renewal entirely.
	Disable bool `yaml:"disable"`

	// DisableRenew skips only the periodic renewal handling.
	DisableRenew bool `yaml:"disable-renew"`

	// DataDir holds the BoltDB state file.
	DataDir string `yaml:"data-dir"`

	// ClientBin is the issuance client binary.
	ClientBin string `yaml:"client-bin"`

	// LiveDir is where the client keeps per-FQDN certificate
	// directories.
	LiveDir string `yaml:"live-dir"`

	// DHParamSource and DHParamTarget describe the packaged
	// Diffie-Hellman parameter file and its install location.
	DHParamSource string `yaml:"dhparam-source"`
	DHParamTarget string `yaml:"dhparam-target"`

	// CycleInterval is how often the daemon runs an update-status
	// cycle.
	CycleInterval time.Duration `yaml:"cycle-interval"`

	// MetricsAddr enables the Prometheus /metrics listener when set,
	// e.g. "127.0.0.1:9109".
	MetricsAddr string `yaml:"metrics-addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log-level"`

	// LogJSON switches log output from console to JSON.
	LogJSON bool `yaml:"log-json"`
}

// Default returns a config populated with defaults.
func Default() *Config {
	return &Config{
		DataDir:       DefaultDataDir,
		ClientBin:     DefaultClientBin,
		LiveDir:       DefaultLiveDir,
		DHParamSource: DefaultAssetsDir + "/dhparam.pem",
		DHParamTarget: DefaultDHParamTarget,
		CycleInterval: DefaultCycleInterval,
		LogLevel:      "info",
	}
}

// Load reads the YAML config file at path on top of defaults. A missing
// file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside an event
// handler.
func (c *Config) Validate() error {
	if c.CycleInterval <= 0 {
		return fmt.Errorf("cycle-interval must be positive, got %s", c.CycleInterval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log-level %q", c.LogLevel)
	}
	return nil
}
