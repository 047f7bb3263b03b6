package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTokenURL   = "https://services.sentinel-hub.com/oauth/token"
	DefaultProcessURL = "https://services.sentinel-hub.com/api/v1/process"
)

// Config holds all configuration options for sentinelfetch
type Config struct {
	// Sentinel Hub credentials and endpoints
	SentinelHub SentinelHubConfig `yaml:"sentinel_hub" json:"sentinel_hub"`

	// Input table
	Input InputConfig `yaml:"input" json:"input"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Process API request parameters
	Request RequestConfig `yaml:"request" json:"request"`

	// Pacing between fetches
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	HTTP HTTPConfig `yaml:"http" json:"http"`

	Retry RetryConfig `yaml:"retry" json:"retry"`

	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SentinelHubConfig holds the OAuth client and API endpoints
type SentinelHubConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	// Account names a credential set stored with `sentinelfetch auth login`
	Account    string `yaml:"account" json:"account"`
	TokenURL   string `yaml:"token_url" json:"token_url"`
	ProcessURL string `yaml:"process_url" json:"process_url"`
}

// InputConfig describes where rows come from
type InputConfig struct {
	CSVPath string `yaml:"csv_path" json:"csv_path"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	ImageDir     string `yaml:"image_dir" json:"image_dir"`
	AtomicWrites bool   `yaml:"atomic_writes" json:"atomic_writes"`
}

// RequestConfig holds the Process API rendering parameters
type RequestConfig struct {
	Collection   string  `yaml:"collection" json:"collection"`
	HalfWidthDeg float64 `yaml:"half_width_deg" json:"half_width_deg"`
	Width        int     `yaml:"width" json:"width"`
	Height       int     `yaml:"height" json:"height"`
	TimeFrom     string  `yaml:"time_from" json:"time_from"`
	TimeTo       string  `yaml:"time_to" json:"time_to"`
}

// RateLimitConfig holds pacing configuration
type RateLimitConfig struct {
	// Strategy is "fixed" or "token_bucket"
	Strategy          string        `yaml:"strategy" json:"strategy"`
	Delay             time.Duration `yaml:"delay" json:"delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// HTTPConfig holds transport settings. A zero timeout means none.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds retry configuration for Process API calls
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// MetricsConfig controls the optional Prometheus endpoint
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SentinelHub: SentinelHubConfig{
			TokenURL:   DefaultTokenURL,
			ProcessURL: DefaultProcessURL,
		},
		Input: InputConfig{
			CSVPath: "train.csv",
		},
		Output: OutputConfig{
			ImageDir:     filepath.Join("data", "images"),
			AtomicWrites: true,
		},
		Request: RequestConfig{
			Collection:   "sentinel-2-l2a",
			HalfWidthDeg: 0.002,
			Width:        224,
			Height:       224,
			TimeFrom:     "2023-01-01T00:00:00Z",
			TimeTo:       "2023-12-31T23:59:59Z",
		},
		RateLimit: RateLimitConfig{
			Strategy:          "fixed",
			Delay:             500 * time.Millisecond,
			RequestsPerMinute: 120,
		},
		HTTP: HTTPConfig{
			Timeout: 0,
		},
		Retry: RetryConfig{
			Enabled:     false,
			MaxAttempts: 1,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9464",
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if clientID := os.Getenv("SENTINELFETCH_CLIENT_ID"); clientID != "" {
		c.SentinelHub.ClientID = clientID
	}
	if clientSecret := os.Getenv("SENTINELFETCH_CLIENT_SECRET"); clientSecret != "" {
		c.SentinelHub.ClientSecret = clientSecret
	}
	if account := os.Getenv("SENTINELFETCH_ACCOUNT"); account != "" {
		c.SentinelHub.Account = account
	}
	if tokenURL := os.Getenv("SENTINELFETCH_TOKEN_URL"); tokenURL != "" {
		c.SentinelHub.TokenURL = tokenURL
	}
	if processURL := os.Getenv("SENTINELFETCH_PROCESS_URL"); processURL != "" {
		c.SentinelHub.ProcessURL = processURL
	}

	if input := os.Getenv("SENTINELFETCH_INPUT"); input != "" {
		c.Input.CSVPath = input
	}
	if imageDir := os.Getenv("SENTINELFETCH_IMAGE_DIR"); imageDir != "" {
		c.Output.ImageDir = imageDir
	}

	if delay := os.Getenv("SENTINELFETCH_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid SENTINELFETCH_DELAY: %w", err)
		}
		c.RateLimit.Delay = d
	}

	if timeout := os.Getenv("SENTINELFETCH_HTTP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid SENTINELFETCH_HTTP_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}

	if notifEnabled := os.Getenv("SENTINELFETCH_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if metricsAddr := os.Getenv("SENTINELFETCH_METRICS_ADDR"); metricsAddr != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = metricsAddr
	}

	if logLevel := os.Getenv("SENTINELFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"sentinelfetch.yaml",
		"sentinelfetch.yml",
		filepath.Join(home, ".config", "sentinelfetch", "config.yaml"),
		filepath.Join(home, ".config", "sentinelfetch", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not checked
// here because they may still come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.SentinelHub.TokenURL == "" {
		errs = append(errs, errors.New("token URL is required"))
	}
	if c.SentinelHub.ProcessURL == "" {
		errs = append(errs, errors.New("process URL is required"))
	}

	if c.Input.CSVPath == "" {
		errs = append(errs, errors.New("input CSV path is required"))
	}
	if c.Output.ImageDir == "" {
		errs = append(errs, errors.New("image directory is required"))
	}

	if c.Request.Collection == "" {
		errs = append(errs, errors.New("data collection is required"))
	}
	if c.Request.HalfWidthDeg <= 0 {
		errs = append(errs, errors.New("bounding box half width must be positive"))
	}
	if c.Request.Width <= 0 || c.Request.Height <= 0 {
		errs = append(errs, errors.New("output width and height must be positive"))
	}
	from, errFrom := time.Parse(time.RFC3339, c.Request.TimeFrom)
	if errFrom != nil {
		errs = append(errs, fmt.Errorf("invalid time_from: %w", errFrom))
	}
	to, errTo := time.Parse(time.RFC3339, c.Request.TimeTo)
	if errTo != nil {
		errs = append(errs, fmt.Errorf("invalid time_to: %w", errTo))
	}
	if errFrom == nil && errTo == nil && to.Before(from) {
		errs = append(errs, errors.New("time_to must not be before time_from"))
	}

	switch strings.ToLower(c.RateLimit.Strategy) {
	case "fixed":
		if c.RateLimit.Delay < 0 {
			errs = append(errs, errors.New("delay cannot be negative"))
		}
	case "token_bucket":
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("requests per minute must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy: %q", c.RateLimit.Strategy))
	}

	if c.HTTP.Timeout < 0 {
		errs = append(errs, errors.New("HTTP timeout cannot be negative"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errs = append(errs, errors.New("metrics listen address is required when metrics are enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if clientID, ok := flags["client-id"].(string); ok && clientID != "" {
		c.SentinelHub.ClientID = clientID
	}
	if clientSecret, ok := flags["client-secret"].(string); ok && clientSecret != "" {
		c.SentinelHub.ClientSecret = clientSecret
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.SentinelHub.Account = account
	}
	if input, ok := flags["input"].(string); ok && input != "" {
		c.Input.CSVPath = input
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.ImageDir = output
	}
	if delay, ok := flags["delay"].(time.Duration); ok {
		c.RateLimit.Delay = delay
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok {
		c.HTTP.Timeout = timeout
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries >= 0 {
		c.Retry.Enabled = maxRetries > 0
		c.Retry.MaxAttempts = maxRetries + 1
	}
	if metricsAddr, ok := flags["metrics-addr"].(string); ok && metricsAddr != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = metricsAddr
	}
	if notify, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = notify
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv.Load never overrides variables already set in the environment
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".sentinelfetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// HasCredentials reports whether both halves of the OAuth client are set
func (c *Config) HasCredentials() bool {
	return c.SentinelHub.ClientID != "" && c.SentinelHub.ClientSecret != ""
}
