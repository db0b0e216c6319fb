package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level" split_words:"true"`
	LogFile  string          `yaml:"log_file" split_words:"true"`
	GrpcHost string          `yaml:"grpc_host" split_words:"true"`
	GrpcPort int             `yaml:"grpc_port" split_words:"true"`
	Storage  MStorageConfig  `yaml:"storage"`
	Feed     MFeedConfig     `yaml:"feed"`
	Session  MSessionConfig  `yaml:"session"`
	Chart    MChartConfig    `yaml:"chart"`
	Display  MDisplayConfig  `yaml:"display"`
	Alerts   MAlertConfig    `yaml:"alerts"`
	Backend  MBackendConfig  `yaml:"backend"`
	Schedule MScheduleConfig `yaml:"schedule"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" split_words:"true"`
	DBPath             string `yaml:"db_path" split_words:"true"`
	DBConnectionString string `yaml:"db_connection_string" split_words:"true"`
	RetentionDays      int    `yaml:"retention_days" split_words:"true"`
}

type MFeedConfig struct {
	URL                     string `yaml:"url"`
	HandshakeTimeoutSeconds int    `yaml:"handshake_timeout_seconds" split_words:"true"`
	ReconnectMinSeconds     int    `yaml:"reconnect_min_seconds" split_words:"true"`
	ReconnectMaxSeconds     int    `yaml:"reconnect_max_seconds" split_words:"true"`
	EventBuffer             int    `yaml:"event_buffer" split_words:"true"`
}

type MSessionConfig struct {
	DefaultSymbol         string `yaml:"default_symbol" split_words:"true"`
	PageURL               string `yaml:"page_url" split_words:"true"`
	TitlePrefix           string `yaml:"title_prefix" split_words:"true"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" split_words:"true"`
}

type MChartConfig struct {
	DerivedWindow int `yaml:"derived_window" split_words:"true"`
}

type MDisplayConfig struct {
	Placeholder    string            `yaml:"placeholder"`
	PricePrecision int32             `yaml:"price_precision" split_words:"true"`
	Indicators     []string          `yaml:"indicators"`
	Strategies     []MStrategyConfig `yaml:"strategies"`
}

type MStrategyConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type MAlertConfig struct {
	MinConfidence float64         `yaml:"min_confidence" split_words:"true"`
	Telegram      MTelegramConfig `yaml:"telegram"`
}

type MTelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token" split_words:"true"`
	ChatID   string `yaml:"chat_id" split_words:"true"`
	APIURL   string `yaml:"api_url" split_words:"true"`
	Retries  int    `yaml:"retries"`
}

type MBackendConfig struct {
	BaseURL        string `yaml:"base_url" split_words:"true"`
	TimeoutSeconds int    `yaml:"timeout_seconds" split_words:"true"`
	Retries        int    `yaml:"retries"`
	SaveConfigPath string `yaml:"save_config_path" split_words:"true"`
	PanicPath      string `yaml:"panic_path" split_words:"true"`
	WipePath       string `yaml:"wipe_path" split_words:"true"`
}

type MScheduleConfig struct {
	CleanupCron string `yaml:"cleanup_cron" split_words:"true"`
	ClockCron   string `yaml:"clock_cron" split_words:"true"`
}
