package config

// Config is the root configuration structure for snyklines.
// Serialised to ~/.snyklines/config.json.
type Config struct {
	Snyk     SnykConfig     `mapstructure:"snyk"     json:"snyk"`
	Report   ReportConfig   `mapstructure:"report"   json:"report"`
	History  HistoryConfig  `mapstructure:"history"  json:"history"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Notify   NotifyConfig   `mapstructure:"notify"   json:"notify"`
}

// SnykConfig controls how the Snyk REST API is reached.
type SnykConfig struct {
	// Token is only ever read from SNYK_TOKEN and is never written to disk.
	Token string `mapstructure:"-" json:"-"`
	// Region is a Snyk region code such as SNYK-US-01 or SNYK-EU-01.
	Region string `mapstructure:"region"      json:"region"`
	// BaseURL overrides the region's API root (useful for proxies).
	BaseURL string `mapstructure:"base_url"    json:"base_url"`
	// APIVersion is the REST version used for listing and org lookups.
	APIVersion string `mapstructure:"api_version" json:"api_version"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// ReportConfig controls where and how the report is written.
type ReportConfig struct {
	// Format is "json" (default) or "yaml".
	Format string `mapstructure:"format" json:"format"`
	// Dir is the directory for auto-named report files (default: current dir).
	Dir string `mapstructure:"dir"    json:"dir"`
}

// HistoryConfig controls the optional run history log.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Limit is the default number of runs listed by `snyklines history`.
	Limit int `mapstructure:"limit"   json:"limit"`
}

// DatabaseConfig controls the storage backend used for run history.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// NotifyConfig lists the channels told about finished reports.
type NotifyConfig struct {
	Slack   SlackNotifyConfig   `mapstructure:"slack"   json:"slack"`
	Webhook WebhookNotifyConfig `mapstructure:"webhook" json:"webhook"`
}

// SlackNotifyConfig holds a Slack incoming webhook.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// WebhookNotifyConfig holds a generic HTTP endpoint with optional HMAC signing.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}
