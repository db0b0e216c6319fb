package config

import (
	"fmt"
	"os"
	"strings"

	"market-dashboard/src/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. DASHBOARD_FEED_URL.
const EnvPrefix = "DASHBOARD"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, a local .env and the environment.
func NewConfig(configPath string) (*Config, error) {
	// 1. .env is optional
	_ = godotenv.Load()

	// 2. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 3. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	// 4. Environment overrides win over the file
	if err := envconfig.Process(EnvPrefix, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	// 5. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a valid configuration with every default applied.
func Default() *Config {
	c := &Config{MConfig: &models.MConfig{
		Name: "market-dashboard",
		Host: "127.0.0.1",
		Port: 8080,
		Feed: models.MFeedConfig{URL: "ws://127.0.0.1:5000/feed"},
		Storage: models.MStorageConfig{
			DBType: "none",
		},
		Backend: models.MBackendConfig{BaseURL: "http://127.0.0.1:5000"},
	}}
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills every unset optional field.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 30
	}

	f := &c.Feed
	if f.HandshakeTimeoutSeconds == 0 {
		f.HandshakeTimeoutSeconds = 10
	}
	if f.ReconnectMinSeconds == 0 {
		f.ReconnectMinSeconds = 1
	}
	if f.ReconnectMaxSeconds == 0 {
		f.ReconnectMaxSeconds = 30
	}
	if f.EventBuffer == 0 {
		f.EventBuffer = 256
	}

	s := &c.Session
	if s.DefaultSymbol == "" {
		s.DefaultSymbol = "BTC"
	}
	s.DefaultSymbol = strings.ToUpper(strings.TrimSpace(s.DefaultSymbol))
	if s.PageURL == "" {
		s.PageURL = "/"
	}
	if s.TitlePrefix == "" {
		s.TitlePrefix = "Sniper AI"
	}
	if s.RequestTimeoutSeconds == 0 {
		s.RequestTimeoutSeconds = 15
	}

	if c.Chart.DerivedWindow == 0 {
		c.Chart.DerivedWindow = 9
	}

	d := &c.Display
	if d.Placeholder == "" {
		d.Placeholder = "--"
	}
	if d.PricePrecision == 0 {
		d.PricePrecision = 2
	}
	if len(d.Indicators) == 0 {
		d.Indicators = []string{"adx", "rsi", "atr"}
	}
	if len(d.Strategies) == 0 {
		d.Strategies = []models.MStrategyConfig{
			{Name: "Trend_MA_Cross", Aliases: []string{"Trend"}},
			{Name: "VWAP_Pullback", Aliases: []string{"VWAP"}},
			{Name: "Bollinger_Breakout", Aliases: []string{"Bollinger"}},
			{Name: "MACD"},
		}
	}

	t := &c.Alerts.Telegram
	if t.APIURL == "" {
		t.APIURL = "https://api.telegram.org"
	}
	if t.Retries == 0 {
		t.Retries = 3
	}

	b := &c.Backend
	if b.TimeoutSeconds == 0 {
		b.TimeoutSeconds = 10
	}
	if b.Retries == 0 {
		b.Retries = 2
	}
	if b.SaveConfigPath == "" {
		b.SaveConfigPath = "/save_config"
	}
	if b.PanicPath == "" {
		b.PanicPath = "/panic"
	}
	if b.WipePath == "" {
		b.WipePath = "/wipe_config"
	}

	if c.Schedule.CleanupCron == "" {
		c.Schedule.CleanupCron = "0 0 3 * * *"
	}
	if c.Schedule.ClockCron == "" {
		c.Schedule.ClockCron = "0 * * * * *"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	case "none":
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unsupported database type '%s'", c.Storage.DBType)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}

	// Feed
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url cannot be empty")
	}
	if !strings.HasPrefix(c.Feed.URL, "ws://") && !strings.HasPrefix(c.Feed.URL, "wss://") {
		return fmt.Errorf("feed url must use ws:// or wss://, got '%s'", c.Feed.URL)
	}
	if c.Feed.ReconnectMinSeconds <= 0 || c.Feed.ReconnectMaxSeconds < c.Feed.ReconnectMinSeconds {
		return fmt.Errorf("invalid reconnect window %ds..%ds", c.Feed.ReconnectMinSeconds, c.Feed.ReconnectMaxSeconds)
	}
	if c.Feed.EventBuffer <= 0 {
		return fmt.Errorf("event buffer must be greater than 0")
	}

	// Session
	if c.Session.DefaultSymbol == "" {
		return fmt.Errorf("default symbol cannot be empty")
	}
	if c.Session.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Chart and display
	if c.Chart.DerivedWindow <= 0 {
		return fmt.Errorf("derived window must be greater than 0")
	}
	if c.Display.PricePrecision < 0 {
		return fmt.Errorf("price precision cannot be negative")
	}
	for i, s := range c.Display.Strategies {
		if s.Name == "" {
			return fmt.Errorf("strategy %d must have a name", i)
		}
	}

	// Alerts
	if c.Alerts.MinConfidence < 0 || c.Alerts.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be between 0 and 100, got %v", c.Alerts.MinConfidence)
	}
	if c.Alerts.Telegram.Enabled && (c.Alerts.Telegram.BotToken == "" || c.Alerts.Telegram.ChatID == "") {
		return fmt.Errorf("telegram alerts need bot_token and chat_id")
	}

	// Backend
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base url cannot be empty")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend timeout must be greater than 0")
	}
	if c.Backend.Retries < 0 {
		return fmt.Errorf("backend retries cannot be negative")
	}

	// Schedule
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.CleanupCron); err != nil {
		return fmt.Errorf("invalid cleanup_cron '%s': %w", c.Schedule.CleanupCron, err)
	}
	if _, err := parser.Parse(c.Schedule.ClockCron); err != nil {
		return fmt.Errorf("invalid clock_cron '%s': %w", c.Schedule.ClockCron, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
