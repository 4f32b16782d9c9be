package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	// DataDir holds run snapshots. A leading ~ is expanded by the storage layer.
	DataDir string `yaml:"data_dir" env:"CITY_EVENTS_DATA_DIR" env-default:"~/.city-events"`
	// ProfilesPath replaces the embedded profiles when set.
	ProfilesPath string `yaml:"profiles_path" env:"CITY_EVENTS_PROFILES"`
	// ReferenceYear fills in year-less dates. 0 means the current year.
	ReferenceYear int `yaml:"reference_year" env:"CITY_EVENTS_REFERENCE_YEAR" env-default:"0"`

	Log    LogConfig    `yaml:"log"`
	HTTP   HTTPConfig   `yaml:"http"`
	Notify NotifyConfig `yaml:"notify"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// HTTPConfig holds feed fetching settings.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"       env:"HTTP_TIMEOUT"       env-default:"15s"`
	RequestDelay time.Duration `yaml:"request_delay" env:"HTTP_REQUEST_DELAY" env-default:"1s"`
	UserAgent    string        `yaml:"user_agent"    env:"HTTP_USER_AGENT"    env-default:"city-events/1.0 (github.com/pfrederiksen/city-events)"`
}

// NotifyConfig holds new-record notification settings.
// Notifications are off while WebhookURL is empty.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url" env:"NOTIFY_WEBHOOK_URL"`
	Delay      time.Duration `yaml:"delay"       env:"NOTIFY_DELAY"       env-default:"1s"`
}

// Year returns the reference year for year-less dates.
func (c *Config) Year(now time.Time) int {
	if c.ReferenceYear != 0 {
		return c.ReferenceYear
	}
	return now.Year()
}
