package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/usecases"
)

// Config represents the curator configuration
type Config struct {
	Immich    ImmichConfig    `json:"immich" yaml:"immich"`
	EnvFile   string          `json:"envFile,omitempty" yaml:"env_file,omitempty"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Dedup     DedupConfig     `json:"dedup" yaml:"dedup"`
	Reconcile ReconcileConfig `json:"reconcile" yaml:"reconcile"`
	Export    ExportConfig    `json:"export" yaml:"export"`

	// DryRun is set from CURATOR_DRY_RUN or the --dry-run flag
	DryRun bool `json:"dryRun,omitempty" yaml:"dry_run,omitempty"`
}

// ImmichConfig contains photo server API configuration
type ImmichConfig struct {
	URL            string `json:"url" yaml:"url"`
	APIKey         string `json:"apiKey,omitempty" yaml:"api_key,omitempty"`
	AccessToken    string `json:"accessToken,omitempty" yaml:"access_token,omitempty"`
	RequestTimeout string `json:"requestTimeout,omitempty" yaml:"request_timeout,omitempty"`
	MaxRetries     int    `json:"maxRetries" yaml:"max_retries"`
	UploadDeviceID string `json:"uploadDeviceId,omitempty" yaml:"upload_device_id,omitempty"`
	AlbumUserID    string `json:"albumUserId,omitempty" yaml:"album_user_id,omitempty"`
}

// GetRequestTimeout returns parsed request timeout duration
func (i *ImmichConfig) GetRequestTimeout() time.Duration {
	if i.RequestTimeout == "" {
		return 60 * time.Second
	}
	if d, err := time.ParseDuration(i.RequestTimeout); err == nil {
		return d
	}
	return 60 * time.Second
}

// DatabaseConfig contains the photo server's Postgres connection settings
type DatabaseConfig struct {
	DSN      string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	SSLMode  string `json:"sslMode,omitempty" yaml:"ssl_mode,omitempty"`
}

// JournalConfig contains the local run journal configuration
type JournalConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	Path          string `json:"path" yaml:"path"`
	RetentionDays int    `json:"retentionDays,omitempty" yaml:"retention_days,omitempty"`
}

// DedupConfig contains duplicate resolution settings
type DedupConfig struct {
	PathPriority []string `json:"pathPriority" yaml:"path_priority"`
	FailFast     bool     `json:"failFast" yaml:"fail_fast"`
}

// ReconcileConfig contains folder reconciliation settings
type ReconcileConfig struct {
	TakeoutRoot       string `json:"takeoutRoot" yaml:"takeout_root"`
	YearFolderPattern string `json:"yearFolderPattern" yaml:"year_folder_pattern"`
}

// ExportConfig maps server paths to locally readable paths
type ExportConfig struct {
	PathMappings []usecases.PathMapping `json:"pathMappings,omitempty" yaml:"path_mappings,omitempty"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Immich: ImmichConfig{
			URL:            "http://localhost:2283/api",
			RequestTimeout: "60s",
			MaxRetries:     2,
		},
		EnvFile: ".env",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Journal: JournalConfig{
			Enabled:       true,
			Path:          "./data/curator.db",
			RetentionDays: 90,
		},
		Reconcile: ReconcileConfig{
			TakeoutRoot:       "photos/GooglePhotos",
			YearFolderPattern: "Photos from [0-9]{4}",
		},
	}
}

// LoadConfig loads configuration from a file (JSON or YAML), then fills
// secrets from the .env file and applies environment overrides.
// A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			klog.V(1).Infof("📄 Config file %s not found, using defaults", configPath)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := decode(configPath, data, config); err != nil {
				return nil, err
			}
		}
	}

	if err := config.mergeEnvFile(); err != nil {
		return nil, err
	}
	config.applyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func decode(configPath string, data []byte, config *Config) error {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return &entities.ConfigurationError{Field: "config", Reason: fmt.Sprintf("failed to parse YAML config file: %v", err)}
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return &entities.ConfigurationError{Field: "config", Reason: fmt.Sprintf("failed to parse JSON config file: %v", err)}
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			if yamlErr := yaml.Unmarshal(data, config); yamlErr != nil {
				return &entities.ConfigurationError{
					Field:  "config",
					Reason: fmt.Sprintf("failed to parse config file as JSON or YAML: JSON error: %v, YAML error: %v", err, yamlErr),
				}
			}
		}
	}
	return nil
}

// mergeEnvFile fills values still unset from the photo server's .env file
func (c *Config) mergeEnvFile() error {
	if c.EnvFile == "" {
		return nil
	}
	values, err := godotenv.Read(c.EnvFile)
	if err != nil {
		if os.IsNotExist(err) {
			klog.V(2).Infof("no env file at %s", c.EnvFile)
			return nil
		}
		return &entities.ConfigurationError{Field: "env_file", Reason: err.Error()}
	}
	klog.V(1).Infof("🔑 Loaded %d values from %s", len(values), c.EnvFile)
	c.mergeEnvValues(values)
	return nil
}

func (c *Config) mergeEnvValues(values map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = values[key]
		}
	}
	fill(&c.Immich.APIKey, "X_API_KEY")
	fill(&c.Database.Name, "DB_DATABASE_NAME")
	fill(&c.Database.User, "DB_USERNAME")
	fill(&c.Database.Password, "DB_PASSWORD")
	if host := values["DB_HOSTNAME"]; host != "" && (c.Database.Host == "" || c.Database.Host == "localhost") {
		c.Database.Host = host
	}
	if port, err := strconv.Atoi(values["DB_PORT"]); err == nil && port > 0 {
		c.Database.Port = port
	}
}

// applyEnv applies process environment overrides
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("IMMICH_URL"); ok && v != "" {
		c.Immich.URL = v
	}
	if v, ok := lookup("IMMICH_API_KEY"); ok && v != "" {
		c.Immich.APIKey = v
	}
	if v, ok := lookup("IMMICH_ACCESS_TOKEN"); ok && v != "" {
		c.Immich.AccessToken = v
	}
	if v, ok := lookup("CURATOR_JOURNAL_PATH"); ok && v != "" {
		c.Journal.Path = v
	}
	if v, ok := lookup("CURATOR_DRY_RUN"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DryRun = b
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Immich.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &entities.ConfigurationError{Field: "immich.url", Reason: fmt.Sprintf("invalid URL %q", c.Immich.URL)}
	}
	if c.Immich.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Immich.RequestTimeout); err != nil {
			return &entities.ConfigurationError{Field: "immich.request_timeout", Reason: err.Error()}
		}
	}
	if c.Immich.MaxRetries < 0 {
		return &entities.ConfigurationError{Field: "immich.max_retries", Reason: "must not be negative"}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return &entities.ConfigurationError{Field: "journal.path", Reason: "journal path is required when the journal is enabled"}
	}
	if strings.Trim(c.Reconcile.TakeoutRoot, "/") == "" {
		return &entities.ConfigurationError{Field: "reconcile.takeout_root", Reason: "takeout root is required"}
	}
	if _, err := regexp.Compile(c.Reconcile.YearFolderPattern); err != nil || c.Reconcile.YearFolderPattern == "" {
		return &entities.ConfigurationError{Field: "reconcile.year_folder_pattern", Reason: fmt.Sprintf("invalid pattern %q", c.Reconcile.YearFolderPattern)}
	}
	for i, prefix := range c.Dedup.PathPriority {
		if !strings.HasPrefix(prefix, "/") {
			return &entities.ConfigurationError{Field: fmt.Sprintf("dedup.path_priority[%d]", i), Reason: fmt.Sprintf("prefix %q must be absolute", prefix)}
		}
	}
	for i, m := range c.Export.PathMappings {
		if m.From == "" || m.To == "" {
			return &entities.ConfigurationError{Field: fmt.Sprintf("export.path_mappings[%d]", i), Reason: "both from and to are required"}
		}
	}
	return nil
}

// DatabaseDSN returns the Postgres connection string, or "" when no database is configured
func (c *Config) DatabaseDSN() string {
	d := c.Database
	if d.DSN != "" {
		return d.DSN
	}
	if d.Name == "" {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
	}
	return u.String()
}
