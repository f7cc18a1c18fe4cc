package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// StorageMode selects the cache backend.
const (
	StorageModeLocal = "local"
	StorageModeRelay = "relay"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Relay     RelayConfig     `yaml:"relay"`
	Extractor ExtractorConfig `yaml:"extractor"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"PORT" default:"8000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"15m"`
}

// AuthConfig holds API key and CORS allow-lists.
type AuthConfig struct {
	APIKeys      []string `yaml:"api_keys" envconfig:"API_KEYS"`
	AllowedHosts []string `yaml:"allowed_hosts" envconfig:"ALLOWED_HOSTS"`
}

// StorageConfig holds cache storage configuration.
type StorageConfig struct {
	Mode         string `yaml:"mode" envconfig:"STORAGE_MODE" default:"local"`
	DownloadsDir string `yaml:"downloads_dir" envconfig:"DOWNLOADS_DIR" default:"downloads"`
	TempDir      string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
}

// RelayConfig holds settings for the external file-hosting relay.
type RelayConfig struct {
	BaseURL  string        `yaml:"base_url" envconfig:"RELAY_BASE_URL"`
	Username string        `yaml:"username" envconfig:"RELAY_USERNAME"`
	Password string        `yaml:"password" envconfig:"RELAY_PASSWORD"`
	Folder   string        `yaml:"folder" envconfig:"RELAY_FOLDER" default:"videos"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"RELAY_TIMEOUT" default:"30s"`
}

// ExtractorConfig holds settings for the extraction engine subprocess.
type ExtractorConfig struct {
	BinPath         string        `yaml:"bin_path" envconfig:"YTDLP_PATH" default:"yt-dlp"`
	Format          string        `yaml:"format" envconfig:"DOWNLOAD_FORMAT" default:"best"`
	ExtractTimeout  time.Duration `yaml:"extract_timeout" envconfig:"EXTRACT_TIMEOUT" default:"30s"`
	DownloadTimeout time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"10m"`
	InfoCacheTTL    time.Duration `yaml:"info_cache_ttl" envconfig:"INFO_CACHE_TTL" default:"1h"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Temp files default to a dot-directory under the downloads dir so a
	// rename into the cache stays on the same filesystem.
	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = filepath.Join(cfg.Storage.DownloadsDir, ".partial")
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if len(nonEmpty(c.Auth.APIKeys)) == 0 {
		return fmt.Errorf("API_KEYS is required")
	}
	if c.Storage.DownloadsDir == "" {
		return fmt.Errorf("DOWNLOADS_DIR is required")
	}
	switch c.Storage.Mode {
	case StorageModeLocal:
	case StorageModeRelay:
		if c.Relay.BaseURL == "" {
			return fmt.Errorf("RELAY_BASE_URL is required in relay mode")
		}
	default:
		return fmt.Errorf("STORAGE_MODE must be %q or %q, got %q",
			StorageModeLocal, StorageModeRelay, c.Storage.Mode)
	}
	return nil
}

// Keys returns the API key allow-list with empty entries removed.
// A trailing comma in API_KEYS must not open the API to empty keys.
func (c *AuthConfig) Keys() []string {
	return nonEmpty(c.APIKeys)
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
